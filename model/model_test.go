// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyTriples is a store of 3 users and 3 items with mean 26/7.
var toyTriples = []dataset.Triple{
	{User: 1, Item: 1, Rating: 5},
	{User: 1, Item: 2, Rating: 3},
	{User: 2, Item: 1, Rating: 4},
	{User: 2, Item: 2, Rating: 2},
	{User: 2, Item: 3, Rating: 5},
	{User: 3, Item: 2, Rating: 3},
	{User: 3, Item: 3, Rating: 4},
}

func newToyRatings(t *testing.T, lastUser, lastItem int) *dataset.Ratings {
	ratings, err := dataset.NewRatings(toyTriples, lastUser, lastItem)
	require.NoError(t, err)
	return ratings
}

// memStore is an in-memory blob store.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (s *memStore) Open(name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, errors.NotFoundf("blob %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Create(name string) (io.WriteCloser, chan struct{}, error) {
	done := make(chan struct{})
	return &memWriter{store: s, name: name, done: done}, done, nil
}

type memWriter struct {
	bytes.Buffer
	store *memStore
	name  string
	done  chan struct{}
}

func (w *memWriter) Close() error {
	w.store.mu.Lock()
	w.store.blobs[w.name] = w.Bytes()
	w.store.mu.Unlock()
	close(w.done)
	return nil
}

func TestBaseModel(t *testing.T) {
	var m BaseModel
	m.SetParams(nil)
	assert.NotNil(t, m.GetParams())
	_, _, err := m.XY(1, 1)
	assert.True(t, errors.Is(err, errors.NotValid))

	m.SetParams(Params{Orientation: "items"})
	require.NoError(t, m.Init(newToyRatings(t, 0, 0)))
	x, y, err := m.XY(1, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, x)
	assert.Equal(t, 1, y)
	_, _, err = m.XY(4, 1)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, _, err = m.XY(1, 0)
	assert.True(t, errors.Is(err, errors.NotValid))

	m.SetParams(Params{Orientation: "movies"})
	assert.True(t, errors.Is(m.Init(newToyRatings(t, 0, 0)), errors.NotValid))
	assert.True(t, errors.Is(m.Init(nil), errors.NotValid))
}

func TestBaseModel_RandomGenerator(t *testing.T) {
	var a, b BaseModel
	a.SetParams(Params{RandomState: 42})
	b.SetParams(Params{RandomState: 42})
	assert.Equal(t, a.GetRandomGenerator().Int63(), b.GetRandomGenerator().Int63())
}

func TestNewPredictor(t *testing.T) {
	names := Predictors()
	assert.Len(t, names, 7)
	assert.IsIncreasing(t, names)
	for _, name := range names {
		p, err := NewPredictor(name, Params{Orientation: "items"})
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
		info := GetInfo(p)
		assert.Equal(t, name, info.Name)
		assert.Equal(t, "items", info.BasedOn)
	}
	_, err := NewPredictor("svd", nil)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestPredictBeforeFit(t *testing.T) {
	for _, name := range Predictors() {
		p, err := NewPredictor(name, nil)
		require.NoError(t, err)
		_, err = p.Predict(1, 1)
		assert.True(t, errors.Is(err, errors.NotValid), name)
	}
}

func TestPredictInvalidIds(t *testing.T) {
	ratings := newToyRatings(t, 0, 0)
	for _, name := range Predictors() {
		p, err := NewPredictor(name, Params{NEpochs: 1, NTrials: 10})
		require.NoError(t, err)
		require.NoError(t, p.Fit(context.Background(), ratings, NewFitConfig()))
		_, err = p.Predict(0, 1)
		assert.True(t, errors.Is(err, errors.NotValid), name)
		_, err = p.Predict(1, 4)
		assert.True(t, errors.Is(err, errors.NotValid), name)
		estimate, err := p.Predict(1, 1)
		assert.NoError(t, err, name)
		assert.True(t, estimate == Impossible || (estimate >= 1 && estimate <= 5), name)
	}
}

func TestVote(t *testing.T) {
	avg, ok := weightedAverage([]float64{5, 4}, []float64{1, 0})
	assert.True(t, ok)
	assert.Equal(t, 5.0, avg)
	_, ok = weightedAverage([]float64{5, 4}, []float64{0, 0})
	assert.False(t, ok)
	_, ok = weightedAverage(nil, nil)
	assert.False(t, ok)
	_, ok = weightedAverage([]float64{5, 4}, []float64{1, -1})
	assert.False(t, ok)

	assert.Equal(t, 4.0, round(4.5))
	assert.Equal(t, 4.0, round(3.5))
	assert.Equal(t, 4.0, round(3.6))
	assert.Equal(t, 1.0, clamp(-2, 1, 5))
	assert.Equal(t, 5.0, clamp(7, 1, 5))
	assert.Equal(t, 3.5, clamp(3.5, 1, 5))
}
