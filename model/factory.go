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
	"sort"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

var predictors = map[string]func(Params) Predictor{
	"random":                     func(p Params) Predictor { return NewRandom(p) },
	"basic_collaborative":        func(p Params) Predictor { return NewBasicCollaborative(p) },
	"baseline_only":              func(p Params) Predictor { return NewBaselineOnly(p) },
	"neighborhood_with_baseline": func(p Params) Predictor { return NewNeighborhoodWithBaseline(p) },
	"analogy":                    func(p Params) Predictor { return NewAnalogy(p) },
	"gilles":                     func(p Params) Predictor { return NewGilles(p) },
	"knn_bellkor":                func(p Params) Predictor { return NewKNNBellkor(p) },
}

// NewPredictor creates a predictor by name.
func NewPredictor(name string, params Params) (Predictor, error) {
	newPredictor, exist := predictors[name]
	if !exist {
		return nil, errors.NotFoundf("predictor %q", name)
	}
	return newPredictor(params), nil
}

// Predictors lists the names of available predictors.
func Predictors() []string {
	names := lo.Keys(predictors)
	sort.Strings(names)
	return names
}
