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
	"math"
	"sort"

	"github.com/gorse-io/analogy/dataset"
	"gonum.org/v1/gonum/floats"
)

// weightedAverage returns Σ w·v / Σ w. ok is false when the weights sum to zero.
func weightedAverage(values, weights []float64) (avg float64, ok bool) {
	sum := floats.Sum(weights)
	if len(values) == 0 || sum == 0 {
		return 0, false
	}
	return floats.Dot(values, weights) / sum, true
}

// round half to even.
func round(x float64) float64 {
	return math.RoundToEven(x)
}

func clamp(x, low, high float64) float64 {
	return math.Max(low, math.Min(high, x))
}

// neighbor is a candidate entity voting for a query.
type neighbor struct {
	id         int
	similarity float64
	rating     float64
}

// nearest returns the k candidates most similar to x0 among entries, ties kept in id order.
func nearest(sim SimilarityMatrix, x0 int, entries []dataset.Entry, k int) []neighbor {
	neighbors := make([]neighbor, len(entries))
	for i, e := range entries {
		neighbors[i] = neighbor{id: e.Id, similarity: sim.At(x0, e.Id), rating: float64(e.Rating)}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
