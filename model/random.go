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
	"gonum.org/v1/gonum/stat/distuv"
)

// Random draws ratings from the empirical distribution of the training ratings, ignoring
// the query.
type Random struct {
	BaseModel
	distribution distuv.Categorical
}

func NewRandom(params Params) *Random {
	m := new(Random)
	m.SetParams(params)
	return m
}

func (m *Random) Name() string {
	return "random"
}

func (m *Random) Fit(_ context.Context, ratings *dataset.Ratings, _ *FitConfig) error {
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	if ratings.Count() == 0 {
		return errors.NotValidf("fit random on empty ratings")
	}
	histogram := ratings.Histogram()
	weights := make([]float64, 0, dataset.MaxRating)
	for r := dataset.MinRating; r <= dataset.MaxRating; r++ {
		weights = append(weights, float64(histogram[r]))
	}
	log.Logger().Info("fit random",
		zap.Int("n_ratings", ratings.Count()),
		zap.Ints("histogram", histogram[dataset.MinRating:]))
	m.distribution = distuv.NewCategorical(weights, m.rng.Source())
	return nil
}

func (m *Random) Predict(userId, itemId int) (float64, error) {
	if _, _, err := m.XY(userId, itemId); err != nil {
		return Impossible, errors.Trace(err)
	}
	return m.distribution.Rand() + dataset.MinRating, nil
}
