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
	"time"

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/base/progress"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	SGD       = "sgd"
	Shrinkage = "shrinkage"
)

// Baseline predicts a rating from the global mean and additive biases of both entities.
type Baseline struct {
	mu      float64
	xBiases []float64
	yBiases []float64
}

// NewBaseline creates a baseline with every bias at zero.
func NewBaseline(view dataset.View) *Baseline {
	return &Baseline{
		mu:      view.GlobalMean(),
		xBiases: make([]float64, view.LastX()+1),
		yBiases: make([]float64, view.LastY()+1),
	}
}

func (b *Baseline) Mu() float64 {
	return b.mu
}

func (b *Baseline) XBias(x int) float64 {
	return b.xBiases[x]
}

func (b *Baseline) YBias(y int) float64 {
	return b.yBiases[y]
}

// Get returns mu + bx + by. The result is not clamped.
func (b *Baseline) Get(x, y int) float64 {
	return b.mu + b.xBiases[x] + b.yBiases[y]
}

// update applies one SGD step for an observation with residual err.
func (b *Baseline) update(x, y int, err, lr, reg float64) {
	b.xBiases[x] += lr * (err - reg*b.xBiases[x])
	b.yBiases[y] += lr * (err - reg*b.yBiases[y])
}

// FitSGD learns biases by stochastic gradient descent. Observations are visited by
// ascending x then ascending y, so the trajectory is deterministic.
func (b *Baseline) FitSGD(ctx context.Context, view dataset.View, nEpochs int, lr, reg float64) error {
	_, span := progress.Start(ctx, "Baseline.FitSGD", nEpochs)
	defer span.End()
	for epoch := 1; epoch <= nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		cost := 0.0
		for x := 1; x <= view.LastX(); x++ {
			for _, e := range view.XRatings(x) {
				diff := float64(e.Rating) - b.Get(x, e.Id)
				cost += diff * diff
				b.update(x, e.Id, diff, lr, reg)
			}
		}
		log.Logger().Debug(fmt.Sprintf("fit baseline %v/%v", epoch, nEpochs), zap.Float64("cost", cost))
		span.Add(1)
	}
	return nil
}

// FitShrinkage computes biases as regularized averages of deviations from mu. The user
// constant always applies to users and the item constant to items.
func (b *Baseline) FitShrinkage(view dataset.View, regUser, regItem float64) {
	regX, regY := regUser, regItem
	if view.Orientation() == dataset.ItemBased {
		regX, regY = regItem, regUser
	}
	for x := 1; x <= view.LastX(); x++ {
		b.xBiases[x] = b.shrink(view.XRatings(x), regX)
	}
	for y := 1; y <= view.LastY(); y++ {
		b.yBiases[y] = b.shrink(view.YRatings(y), regY)
	}
}

func (b *Baseline) shrink(entries []dataset.Entry, reg float64) float64 {
	sum := 0.0
	for _, e := range entries {
		sum += float64(e.Rating) - b.mu
	}
	if reg+float64(len(entries)) == 0 {
		return 0
	}
	return sum / (reg + float64(len(entries)))
}

// baselineConfig holds the hyper-parameters of a baseline component.
type baselineConfig struct {
	method  string
	lr      float64
	reg     float64
	nEpochs int
	regUser float64
	regItem float64
}

func newBaselineConfig(params Params) baselineConfig {
	return baselineConfig{
		method:  params.GetString(BaselineMethod, SGD),
		lr:      params.GetFloat64(Lr, 0.005),
		reg:     params.GetFloat64(Reg, 0.02),
		nEpochs: params.GetInt(NEpochs, 20),
		regUser: params.GetFloat64(RegUser, 10),
		regItem: params.GetFloat64(RegItem, 25),
	}
}

func (c baselineConfig) fit(ctx context.Context, view dataset.View) (*Baseline, error) {
	start := time.Now()
	b := NewBaseline(view)
	switch c.method {
	case SGD:
		if err := b.FitSGD(ctx, view, c.nEpochs, c.lr, c.reg); err != nil {
			return nil, errors.Trace(err)
		}
	case Shrinkage:
		b.FitShrinkage(view, c.regUser, c.regItem)
	default:
		return nil, errors.NotSupportedf("baseline method %q", c.method)
	}
	log.Logger().Info("fit baseline",
		zap.String("method", c.method),
		zap.Float64("mu", b.mu),
		zap.String("duration", time.Since(start).String()))
	return b, nil
}

// BaselineOnly predicts the baseline estimate.
type BaselineOnly struct {
	BaseModel
	config   baselineConfig
	baseline *Baseline
}

func NewBaselineOnly(params Params) *BaselineOnly {
	m := new(BaselineOnly)
	m.SetParams(params)
	return m
}

func (m *BaselineOnly) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.config = newBaselineConfig(m.Params)
}

func (m *BaselineOnly) Name() string {
	return "baseline_only"
}

func (m *BaselineOnly) Fit(ctx context.Context, ratings *dataset.Ratings, _ *FitConfig) error {
	if err := m.Init(ratings); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit baseline_only",
		zap.Int("n_ratings", ratings.Count()),
		zap.Any("params", m.GetParams()))
	baseline, err := m.config.fit(ctx, m.View())
	if err != nil {
		return errors.Trace(err)
	}
	m.baseline = baseline
	return nil
}

// Predict returns the baseline clamped into the rating range.
func (m *BaselineOnly) Predict(userId, itemId int) (float64, error) {
	x, y, err := m.XY(userId, itemId)
	if err != nil {
		return Impossible, errors.Trace(err)
	}
	return clamp(m.baseline.Get(x, y), dataset.MinRating, dataset.MaxRating), nil
}

// Baseline returns the fitted baseline component.
func (m *BaselineOnly) Baseline() *Baseline {
	return m.baseline
}
