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
	"context"
	"math"
	"testing"

	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAnalogyRatings builds 5 users and 5 items. Users 1 to 4 rate items 1 and 2 with 3.
// Item 3 is rated 2, 2 and 5 by users 1, 2 and 3. Item 4 has two raters, item 5 none
// and user 5 rated nothing.
func newAnalogyRatings(t *testing.T) *dataset.Ratings {
	var triples []dataset.Triple
	for u := 1; u <= 4; u++ {
		triples = append(triples, dataset.Triple{User: u, Item: 1, Rating: 3}, dataset.Triple{User: u, Item: 2, Rating: 3})
	}
	triples = append(triples,
		dataset.Triple{User: 1, Item: 3, Rating: 2},
		dataset.Triple{User: 2, Item: 3, Rating: 2},
		dataset.Triple{User: 3, Item: 3, Rating: 5},
		dataset.Triple{User: 1, Item: 4, Rating: 4},
		dataset.Triple{User: 2, Item: 4, Rating: 4})
	ratings, err := dataset.NewRatings(triples, 5, 5)
	require.NoError(t, err)
	return ratings
}

func TestSolve(t *testing.T) {
	assert.True(t, IsSolvable(3, 3, 4))
	assert.Equal(t, 4, Solve(3, 3, 4))
	assert.True(t, IsSolvable(3, 4, 3))
	assert.Equal(t, 4, Solve(3, 4, 3))
	assert.False(t, IsSolvable(3, 4, 5))
	for ra := 1; ra <= 5; ra++ {
		for rb := 1; rb <= 5; rb++ {
			for rc := 1; rc <= 5; rc++ {
				if IsSolvable(ra, rb, rc) {
					assert.GreaterOrEqual(t, Solve(ra, rb, rc), 1)
					assert.LessOrEqual(t, Solve(ra, rb, rc), 5)
				}
			}
		}
	}
}

func TestTruthValue(t *testing.T) {
	for ra := 1; ra <= 5; ra++ {
		for rb := 1; rb <= 5; rb++ {
			for rc := 1; rc <= 5; rc++ {
				for rd := 1; rd <= 5; rd++ {
					for _, tv := range []float64{TvA(ra, rb, rc, rd), TvAStar(ra, rb, rc, rd)} {
						assert.GreaterOrEqual(t, tv, 0.0)
						assert.LessOrEqual(t, tv, 1.0)
					}
				}
			}
		}
	}
	assert.Equal(t, 1.0, TvA(2, 2, 2, 2))
	assert.Equal(t, 1.0, TvA(5, 1, 5, 1))
	assert.Equal(t, 0.0, TvA(1, 5, 5, 1))
	assert.Equal(t, 0.5, TvA(1, 3, 3, 3))
	assert.Equal(t, 1.0, TvAStar(4, 4, 4, 4))
	assert.Equal(t, 0.0, TvAStar(1, 5, 5, 1))
	assert.Equal(t, 1.0, TvAStar(1, 2, 1, 2))
}

func TestParallelogram(t *testing.T) {
	view := newAnalogyRatings(t).View(dataset.UserBased)
	n, norm := Parallelogram(view, 1, 2, 3, 4)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0.0, norm)
	n, norm = Parallelogram(view, 1, 2, 3, 5)
	assert.Zero(t, n)
	assert.True(t, math.IsInf(norm, 1))

	view = newToyRatings(t, 0, 0).View(dataset.ItemBased)
	// items 1, 2 and 3 with item 2 again share user 2 only
	n, norm = Parallelogram(view, 1, 2, 3, 2)
	assert.Equal(t, 1, n)
	assert.Equal(t, math.Abs(float64((4-2)-(5-2))), norm)
}

func TestAnalogy(t *testing.T) {
	ratings := newAnalogyRatings(t)
	m := NewAnalogy(Params{RandomState: 1})
	require.NoError(t, m.Fit(context.Background(), ratings, nil))
	// every solvable triplet of raters of item 3 solves to 5
	estimate, err := m.Predict(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, estimate)
	// two raters never form a triplet
	estimate, err = m.Predict(4, 4)
	require.NoError(t, err)
	assert.Equal(t, Impossible, estimate)
	// no raters
	estimate, err = m.Predict(4, 5)
	require.NoError(t, err)
	assert.Equal(t, Impossible, estimate)
	// no common partners
	estimate, err = m.Predict(5, 3)
	require.NoError(t, err)
	assert.Equal(t, Impossible, estimate)

	m = NewAnalogy(Params{TruthValue: TruthAStar, NTrials: 100})
	require.NoError(t, m.Fit(context.Background(), ratings, nil))
	estimate, err = m.Predict(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, estimate)

	m = NewAnalogy(Params{TruthValue: "b"})
	assert.True(t, errors.Is(m.Fit(context.Background(), ratings, nil), errors.NotValid))
}

func TestAnalogy_Deterministic(t *testing.T) {
	ratings := newToyRatings(t, 0, 0)
	predict := func(m *Analogy) []float64 {
		var estimates []float64
		for u := 1; u <= 3; u++ {
			for i := 1; i <= 3; i++ {
				estimate, err := m.Predict(u, i)
				require.NoError(t, err)
				estimates = append(estimates, estimate)
			}
		}
		return estimates
	}
	a := NewAnalogy(Params{RandomState: 7, NTrials: 50, Orientation: "items"})
	require.NoError(t, a.Fit(context.Background(), ratings, nil))
	b := NewAnalogy(Params{RandomState: 7, NTrials: 50, Orientation: "items"})
	require.NoError(t, b.Fit(context.Background(), ratings, nil))
	first := predict(a)
	assert.Equal(t, first, predict(b))
	// refitting resets the random generator
	require.NoError(t, a.Fit(context.Background(), ratings, nil))
	assert.Equal(t, first, predict(a))
}

func TestGilles(t *testing.T) {
	ratings := newAnalogyRatings(t)
	for _, weighting := range []string{UniformWeighting, NormWeighting, SupportWeighting} {
		m := NewGilles(Params{Weighting: weighting})
		require.NoError(t, m.Fit(context.Background(), ratings, nil))
		estimate, err := m.Predict(4, 3)
		require.NoError(t, err)
		assert.Equal(t, 5.0, estimate, weighting)
		estimate, err = m.Predict(5, 3)
		require.NoError(t, err)
		assert.Equal(t, Impossible, estimate, weighting)
		estimate, err = m.Predict(4, 4)
		require.NoError(t, err)
		assert.Equal(t, Impossible, estimate, weighting)
	}

	// a null margin rejects even perfect parallelograms
	m := NewGilles(Params{Margin: 0.0})
	require.NoError(t, m.Fit(context.Background(), ratings, nil))
	estimate, err := m.Predict(4, 3)
	require.NoError(t, err)
	assert.Equal(t, Impossible, estimate)

	m = NewGilles(Params{Weighting: "median"})
	assert.True(t, errors.Is(m.Fit(context.Background(), ratings, nil), errors.NotValid))
}

func TestGillesWeighting(t *testing.T) {
	assert.Equal(t, 1.0, gillesWeight(UniformWeighting, 9, 3))
	assert.Equal(t, 0.25, gillesWeight(NormWeighting, 9, 3))
	assert.Equal(t, 9.0, gillesWeight(SupportWeighting, 9, 3))
	assert.Equal(t, 1.0, gillesWeight(NormWeighting, 4, 0))

	// a close solution on little support against a far one on wide support
	candidates := []struct {
		solution float64
		n        int
		norm     float64
	}{{1, 1, 0}, {5, 9, 3}}
	expected := map[string]float64{UniformWeighting: 3, NormWeighting: 2, SupportWeighting: 5}
	for weighting, estimate := range expected {
		var solutions, weights []float64
		for _, c := range candidates {
			solutions = append(solutions, c.solution)
			weights = append(weights, gillesWeight(weighting, c.n, c.norm))
		}
		avg, ok := weightedAverage(solutions, weights)
		require.True(t, ok)
		assert.Equal(t, estimate, round(avg), weighting)
	}
}
