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

package eval

import (
	"context"
	"math"
	"time"

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/base/progress"
	"github.com/gorse-io/analogy/dataset"
	"github.com/gorse-io/analogy/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Config decides how impossible predictions enter the statistics.
type Config struct {
	// ImpossibleDefault replaces impossible estimates before aggregation.
	ImpossibleDefault float64
	// ExcludeImpossible drops impossible estimates from the aggregates instead.
	ExcludeImpossible bool
	// SqrtMAE reports the square root of the mean absolute error.
	SqrtMAE bool
	// Verbose logs every prediction.
	Verbose bool
}

func NewConfig() *Config {
	return &Config{ImpossibleDefault: 3}
}

func (config *Config) SetImpossibleDefault(value float64) *Config {
	config.ImpossibleDefault = value
	return config
}

func (config *Config) SetExcludeImpossible(exclude bool) *Config {
	config.ExcludeImpossible = exclude
	return config
}

func (config *Config) SetSqrtMAE(sqrt bool) *Config {
	config.SqrtMAE = sqrt
	return config
}

func (config *Config) SetVerbose(verbose bool) *Config {
	config.Verbose = verbose
	return config
}

type Stats struct {
	Count      int     `json:"count"`
	Impossible int     `json:"impossible"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	Accuracy   float64 `json:"accuracy"`
}

// Prediction is a raw estimate against the actual rating.
type Prediction struct {
	User     int     `json:"user"`
	Item     int     `json:"item"`
	Estimate float64 `json:"estimate"`
	Actual   float64 `json:"actual"`
}

func (p Prediction) IsImpossible() bool {
	return p.Estimate == model.Impossible
}

// Evaluator accumulates predictions of a predictor.
type Evaluator struct {
	predictor   string
	config      *Config
	predictions []Prediction
}

func NewEvaluator(predictor string, config *Config) *Evaluator {
	if config == nil {
		config = NewConfig()
	}
	return &Evaluator{predictor: predictor, config: config}
}

// Add records an estimate.
func (e *Evaluator) Add(user, item int, estimate, actual float64) {
	p := Prediction{User: user, Item: item, Estimate: estimate, Actual: actual}
	e.predictions = append(e.predictions, p)
	outcome := OutcomeMiss
	switch {
	case p.IsImpossible():
		outcome = OutcomeImpossible
	case estimate == actual:
		outcome = OutcomeHit
	}
	PredictionsTotal.WithLabelValues(e.predictor, outcome).Inc()
	if !p.IsImpossible() {
		AbsoluteError.WithLabelValues(e.predictor).Observe(math.Abs(estimate - actual))
	}
	if e.config.Verbose {
		log.Logger().Debug("predict",
			zap.String("outcome", outcome),
			zap.Int("user", user),
			zap.Int("item", item),
			zap.Float64("estimate", estimate),
			zap.Float64("actual", actual))
	}
}

// Predictions returns raw predictions in insertion order.
func (e *Evaluator) Predictions() []Prediction {
	return e.predictions
}

// Estimates returns raw estimates in insertion order.
func (e *Evaluator) Estimates() []float64 {
	return lo.Map(e.predictions, func(p Prediction, _ int) float64 {
		return p.Estimate
	})
}

// Stats computes the statistics of all predictions so far.
func (e *Evaluator) Stats() Stats {
	var stats Stats
	residuals := make([]float64, 0, len(e.predictions))
	hits := 0
	for _, p := range e.predictions {
		estimate := p.Estimate
		if p.IsImpossible() {
			stats.Impossible++
			if e.config.ExcludeImpossible {
				continue
			}
			estimate = e.config.ImpossibleDefault
		}
		if estimate == p.Actual {
			hits++
		}
		residuals = append(residuals, p.Actual-estimate)
	}
	stats.Count = len(residuals)
	if stats.Count == 0 {
		return stats
	}
	n := float64(stats.Count)
	stats.RMSE = floats.Norm(residuals, 2) / math.Sqrt(n)
	stats.MAE = floats.Norm(residuals, 1) / n
	if e.config.SqrtMAE {
		stats.MAE = math.Sqrt(stats.MAE)
	}
	stats.Accuracy = float64(hits) / n
	return stats
}

// Evaluate queries a fitted predictor on every test rating.
func Evaluate(ctx context.Context, predictor model.Predictor, test []dataset.Triple, config *Config) (*Evaluator, error) {
	start := time.Now()
	evaluator := NewEvaluator(predictor.Name(), config)
	_, span := progress.Start(ctx, "Evaluate", len(test))
	defer span.End()
	for _, t := range test {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return nil, errors.Trace(err)
		}
		estimate, err := predictor.Predict(t.User, t.Item)
		if err != nil {
			span.Fail(err)
			return nil, errors.Annotatef(err, "predict (%d, %d)", t.User, t.Item)
		}
		evaluator.Add(t.User, t.Item, estimate, float64(t.Rating))
		span.Add(1)
	}
	stats := evaluator.Stats()
	EvaluateSeconds.WithLabelValues(predictor.Name()).Set(time.Since(start).Seconds())
	log.Logger().Info("evaluate",
		zap.String("predictor", predictor.Name()),
		zap.Int("n_predictions", len(test)),
		zap.Int("impossible", stats.Impossible),
		zap.Float64("rmse", stats.RMSE),
		zap.Float64("mae", stats.MAE),
		zap.Float64("accuracy", stats.Accuracy),
		zap.String("duration", time.Since(start).String()))
	return evaluator, nil
}
