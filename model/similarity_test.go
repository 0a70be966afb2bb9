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
	"encoding/binary"
	"testing"

	"github.com/gorse-io/analogy/base/encoding"
	"github.com/gorse-io/analogy/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestSimilarity(t *testing.T) {
	view := newToyRatings(t, 0, 0).View(dataset.UserBased)
	for a := 1; a <= 3; a++ {
		assert.InDelta(t, 1.0, Similarity(view, a, a), 1e-12)
		for b := 1; b <= 3; b++ {
			assert.Equal(t, Similarity(view, a, b), Similarity(view, b, a))
		}
	}
	// users 1 and 3 only share item 2
	assert.Equal(t, 0.0, Similarity(view, 1, 3))
	assert.InDelta(t, 26/(5.830951894845301*4.47213595499958), Similarity(view, 1, 2), 1e-12)
	assert.InDelta(t, 26/(5.385164807134504*5), Similarity(view, 2, 3), 1e-12)

	view = view.View(dataset.ItemBased)
	// items 1 and 3 only share user 2
	assert.Equal(t, 0.0, Similarity(view, 1, 3))
	assert.InDelta(t, 22/(6.4031242374328485*3.605551275463989), Similarity(view, 3, 2), 1e-12)
}

func TestBuildSimilarity(t *testing.T) {
	view := newToyRatings(t, 4, 0).View(dataset.UserBased)
	sim, err := BuildSimilarity(context.Background(), view, 1)
	require.NoError(t, err)
	assert.Len(t, sim, 5)
	for a := 1; a <= 3; a++ {
		for b := 1; b <= 3; b++ {
			assert.Equal(t, Similarity(view, a, b), sim.At(a, b))
		}
	}
	// user 4 has no ratings
	for b := 0; b <= 4; b++ {
		assert.Zero(t, sim.At(4, b))
	}
	parallel, err := BuildSimilarity(context.Background(), view, 3)
	require.NoError(t, err)
	assert.Equal(t, sim, parallel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildSimilarity(ctx, view, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSimilarity(t *testing.T) {
	view := newToyRatings(t, 0, 0).View(dataset.ItemBased)
	cache := newMemStore()
	config := NewFitConfig().SetCache(cache).SetJobs(2)
	key := SimilarityCacheKey(view)
	assert.Contains(t, key, "items")

	// miss then write back
	built, err := LoadSimilarity(context.Background(), view, config)
	require.NoError(t, err)
	assert.Contains(t, cache.blobs, key)

	// hit
	loaded, err := LoadSimilarity(context.Background(), view, config)
	require.NoError(t, err)
	for a := range built {
		assert.InDeltaSlice(t, built[a], loaded[a], 1e-12)
	}

	// malformed cache is rebuilt and overwritten
	cache.blobs[key] = []byte("garbage")
	rebuilt, err := LoadSimilarity(context.Background(), view, config)
	require.NoError(t, err)
	assert.Equal(t, built, rebuilt)
	r, err := cache.Open(key)
	require.NoError(t, err)
	m, err := encoding.ReadMatrix(r)
	require.NoError(t, err)
	assert.Equal(t, [][]float64(built), m)

	// oversized header is rejected before allocation
	var header bytes.Buffer
	require.NoError(t, binary.Write(&header, binary.LittleEndian, encoding.MatrixHeader{
		Magic: [4]byte{'G', 'M', 'A', 'T'}, Version: encoding.MatrixVersion, Rows: 1 << 62, Cols: 4}))
	cache.blobs[key] = header.Bytes()
	assert.NotPanics(t, func() {
		rebuilt, err = LoadSimilarity(context.Background(), view, config)
	})
	require.NoError(t, err)
	assert.Equal(t, built, rebuilt)

	// header of another size is rejected
	header.Reset()
	require.NoError(t, binary.Write(&header, binary.LittleEndian, encoding.MatrixHeader{
		Magic: [4]byte{'G', 'M', 'A', 'T'}, Version: encoding.MatrixVersion, Rows: 2, Cols: 2}))
	cache.blobs[key] = header.Bytes()
	rebuilt, err = LoadSimilarity(context.Background(), view, config)
	require.NoError(t, err)
	assert.Equal(t, built, rebuilt)

	// matrix of another size is rejected
	other := newToyRatings(t, 0, 5).View(dataset.ItemBased)
	cache.blobs[SimilarityCacheKey(other)] = cache.blobs[key]
	sim, err := LoadSimilarity(context.Background(), other, config)
	require.NoError(t, err)
	assert.Len(t, sim, 6)

	// the key depends on the content
	assert.NotEqual(t, key, SimilarityCacheKey(other))
	assert.NotEqual(t, key, SimilarityCacheKey(view.View(dataset.UserBased)))

	// no cache
	sim, err = LoadSimilarity(context.Background(), view, nil)
	require.NoError(t, err)
	assert.Equal(t, built, sim)
}
