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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelPredictor = "predictor"
	LabelOutcome   = "outcome"

	OutcomeImpossible = "impossible"
	OutcomeHit        = "ok"
	OutcomeMiss       = "ko"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analogy",
		Subsystem: "eval",
		Name:      "predictions_total",
	}, []string{LabelPredictor, LabelOutcome})
	AbsoluteError = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "analogy",
		Subsystem: "eval",
		Name:      "absolute_error",
		Buckets:   []float64{0, 0.5, 1, 2, 3, 4},
	}, []string{LabelPredictor})
	EvaluateSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "analogy",
		Subsystem: "eval",
		Name:      "evaluate_seconds",
	}, []string{LabelPredictor})
)
