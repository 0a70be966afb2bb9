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
	"fmt"
	"math"
	"time"

	"github.com/gorse-io/analogy/base"
	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/base/progress"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// KNNBellkor learns interpolation weights between every pair of primary entities jointly
// with the biases of a baseline.
type KNNBellkor struct {
	BaseModel
	nEpochs   int
	lr        float64
	reg       float64
	warmStart bool
	config    baselineConfig
	baseline  *Baseline
	weights   [][]float64
}

func NewKNNBellkor(params Params) *KNNBellkor {
	m := new(KNNBellkor)
	m.SetParams(params)
	return m
}

func (m *KNNBellkor) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.nEpochs = m.Params.GetInt(NEpochs, 20)
	m.lr = m.Params.GetFloat64(Lr, 0.005)
	m.reg = m.Params.GetFloat64(WeightReg, 0.002)
	m.warmStart = m.Params.GetBool(WarmStart, false)
	m.config = newBaselineConfig(m.Params)
}

func (m *KNNBellkor) Name() string {
	return "knn_bellkor"
}

func (m *KNNBellkor) Fit(ctx context.Context, ratings *dataset.Ratings, _ *FitConfig) error {
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit knn_bellkor",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	view := m.View()
	if m.warmStart {
		baseline, err := m.config.fit(ctx, view)
		if err != nil {
			return errors.Trace(err)
		}
		m.baseline = baseline
	} else {
		m.baseline = NewBaseline(view)
	}
	m.weights = base.NewMatrix(view.LastX()+1, view.LastX()+1)
	_, span := progress.Start(ctx, "KNNBellkor.Fit", m.nEpochs)
	defer span.End()
	for epoch := 1; epoch <= m.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		fitStart := time.Now()
		cost := 0.0
		for x := 1; x <= view.LastX(); x++ {
			for _, e := range view.XRatings(x) {
				y, raters := e.Id, view.YRatings(e.Id)
				diff := float64(e.Rating) - m.baseline.Get(x, y) - m.interpolate(x, y, raters)
				cost += diff * diff
				m.baseline.update(x, y, diff, m.lr, m.reg)
				norm := math.Sqrt(float64(len(raters)))
				for _, r := range raters {
					deviation := float64(r.Rating) - m.baseline.Get(r.Id, y)
					m.weights[x][r.Id] += m.lr * (diff*deviation/norm - m.reg*m.weights[x][r.Id])
				}
			}
		}
		log.Logger().Debug(fmt.Sprintf("fit knn_bellkor %v/%v", epoch, m.nEpochs),
			zap.Float64("cost", cost),
			zap.String("fit_time", time.Since(fitStart).String()))
		span.Add(1)
	}
	return nil
}

// interpolate sums the weighted deviations of the raters of y from their baselines,
// normalized by the square root of their number.
func (m *KNNBellkor) interpolate(x, y int, raters []dataset.Entry) float64 {
	if len(raters) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range raters {
		sum += (float64(r.Rating) - m.baseline.Get(r.Id, y)) * m.weights[x][r.Id]
	}
	return sum / math.Sqrt(float64(len(raters)))
}

// Predict is clamped into the rating range and never Impossible.
func (m *KNNBellkor) Predict(userId, itemId int) (float64, error) {
	x0, y0, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	estimate := m.baseline.Get(x0, y0) + m.interpolate(x0, y0, m.View().YRatings(y0))
	return clamp(estimate, dataset.MinRating, dataset.MaxRating), nil
}

func (m *KNNBellkor) Weight(x, x2 int) float64 {
	return m.weights[x][x2]
}
