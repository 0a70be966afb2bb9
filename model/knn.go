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

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// BasicCollaborative lets the k most similar entities vote with their ratings, weighted
// by cosine similarity.
type BasicCollaborative struct {
	BaseModel
	k   int
	sim SimilarityMatrix
}

func NewBasicCollaborative(params Params) *BasicCollaborative {
	m := new(BasicCollaborative)
	m.SetParams(params)
	return m
}

func (m *BasicCollaborative) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.k = m.Params.GetInt(K, 40)
}

func (m *BasicCollaborative) Name() string {
	return "basic_collaborative"
}

func (m *BasicCollaborative) Fit(ctx context.Context, ratings *dataset.Ratings, config *FitConfig) error {
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit basic_collaborative",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	sim, err := LoadSimilarity(ctx, m.View(), config)
	if err != nil {
		return errors.Trace(err)
	}
	m.sim = sim
	return nil
}

func (m *BasicCollaborative) Predict(userId, itemId int) (float64, error) {
	x0, y0, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	neighbors := nearest(m.sim, x0, m.View().YRatings(y0), m.k)
	if len(neighbors) == 0 {
		return Impossible, nil
	}
	ratings := make([]float64, len(neighbors))
	weights := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ratings[i] = n.rating
		weights[i] = n.similarity
	}
	avg, ok := weightedAverage(ratings, weights)
	if !ok {
		return Impossible, nil
	}
	// negative similarities may push the average out of range
	return clamp(round(avg), dataset.MinRating, dataset.MaxRating), nil
}

// Similarity returns the fitted similarity matrix.
func (m *BasicCollaborative) Similarity() SimilarityMatrix {
	return m.sim
}

// NeighborhoodWithBaseline adds to the baseline the similarity weighted deviations of the
// k nearest neighbors from their own baselines.
type NeighborhoodWithBaseline struct {
	BaseModel
	k        int
	config   baselineConfig
	baseline *Baseline
	sim      SimilarityMatrix
}

func NewNeighborhoodWithBaseline(params Params) *NeighborhoodWithBaseline {
	m := new(NeighborhoodWithBaseline)
	m.SetParams(params)
	return m
}

func (m *NeighborhoodWithBaseline) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.k = m.Params.GetInt(K, 40)
	m.config = newBaselineConfig(m.Params)
}

func (m *NeighborhoodWithBaseline) Name() string {
	return "neighborhood_with_baseline"
}

func (m *NeighborhoodWithBaseline) Fit(ctx context.Context, ratings *dataset.Ratings, config *FitConfig) error {
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit neighborhood_with_baseline",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	baseline, err := m.config.fit(ctx, m.View())
	if err != nil {
		return errors.Trace(err)
	}
	sim, err := LoadSimilarity(ctx, m.View(), config)
	if err != nil {
		return errors.Trace(err)
	}
	m.baseline, m.sim = baseline, sim
	return nil
}

// Predict never returns Impossible: without usable neighbors the baseline alone is used.
func (m *NeighborhoodWithBaseline) Predict(userId, itemId int) (float64, error) {
	x0, y0, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	estimate := m.baseline.Get(x0, y0)
	neighbors := nearest(m.sim, x0, m.View().YRatings(y0), m.k)
	deviations := make([]float64, len(neighbors))
	weights := make([]float64, len(neighbors))
	for i, n := range neighbors {
		deviations[i] = n.rating - m.baseline.Get(n.id, y0)
		weights[i] = n.similarity
	}
	if avg, ok := weightedAverage(deviations, weights); ok {
		estimate += avg
	}
	return clamp(estimate, dataset.MinRating, dataset.MaxRating), nil
}

func (m *NeighborhoodWithBaseline) Baseline() *Baseline {
	return m.baseline
}
