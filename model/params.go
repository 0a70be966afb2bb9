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
	"encoding/json"
	"reflect"

	"github.com/gorse-io/analogy/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Orientation    ParamName = "orientation"      // "users" or "items"
	K              ParamName = "k"                // number of neighbors
	BaselineMethod ParamName = "baseline"         // "sgd" or "shrinkage"
	Lr             ParamName = "lr"               // learning rate
	Reg            ParamName = "reg"              // regularization strength
	NEpochs        ParamName = "n_epochs"         // number of epochs
	RegUser        ParamName = "reg_user"         // shrinkage of user biases
	RegItem        ParamName = "reg_item"         // shrinkage of item biases
	WeightReg      ParamName = "weight_reg"       // regularization of interpolation weights
	WarmStart      ParamName = "warm_start"       // start interpolation from fitted biases
	NTrials        ParamName = "n_trials"         // number of sampled triplets
	TruthValue     ParamName = "truth_value"      // "a" or "a_star"
	Margin         ParamName = "margin"           // parallelogram acceptance margin
	Weighting      ParamName = "gilles_weighting" // "uniform", "norm" or "support"
	RandomState    ParamName = "seed"             // random state (seed)
)

// Params stores hyper-parameters for a predictor. It is a map between names
// and values. For example, hyper-parameters for the analogy predictor
// is given by:
//
//	model.Params{
//		model.Orientation: "items",
//		model.NTrials:     1000,
//		model.TruthValue:  "a_star",
//	}
type Params map[ParamName]any

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets a integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "int"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetInt64 gets a int64 parameter by name. Returns _default if not exists or type doesn't match. The
// type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "int64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "bool"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetFloat64 gets a float parameter by name. Returns _default if not exists or type doesn't match. The
// type will be converted if given int.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "float64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "string"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// Overwrite returns a copy of parameters updated by params.
func (parameters Params) Overwrite(params Params) Params {
	merged := parameters.Copy()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to marshal params", zap.Error(err))
		return "{}"
	}
	return string(b)
}
