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
	"io"

	"github.com/gorse-io/analogy/base"
	"github.com/gorse-io/analogy/dataset"
	"github.com/juju/errors"
)

// Impossible is the estimate returned when a predictor has no evidence for a query.
// It is never a legitimate rating.
const Impossible = 0.0

// BlobStore persists fitted artifacts such as similarity matrices.
type BlobStore interface {
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, chan struct{}, error)
}

type FitConfig struct {
	Jobs  int
	Cache BlobStore
}

func NewFitConfig() *FitConfig {
	return &FitConfig{Jobs: 1}
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetCache(cache BlobStore) *FitConfig {
	config.Cache = cache
	return config
}

// Predictor estimates the rating given by a user to an item. Predictors are fitted once
// and then queried many times. Queries of sampling predictors advance their random
// generator, so a predictor must not be queried concurrently.
type Predictor interface {
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns hyper-parameters.
	GetParams() Params
	// Name returns the name of the predictor.
	Name() string
	// Fit the predictor on a rating store.
	Fit(ctx context.Context, ratings *dataset.Ratings, config *FitConfig) error
	// Predict the rating given by a user to an item. It returns Impossible when there
	// is no evidence and a NotValid error for unknown ids.
	Predict(userId, itemId int) (float64, error)
}

// Info describes a fitted predictor.
type Info struct {
	Name    string
	BasedOn string
	Params  Params
}

func GetInfo(predictor Predictor) Info {
	params := predictor.GetParams()
	return Info{
		Name:    predictor.Name(),
		BasedOn: params.GetString(Orientation, dataset.UserBased.String()),
		Params:  params,
	}
}

// BaseModel must be included by every predictor. Hyper-parameters, orientation and
// the random generator are managed by the BaseModel.
type BaseModel struct {
	Params    Params               // Hyper-parameters
	rng       base.RandomGenerator // Random generator
	randState int64                // Random seed
	view      dataset.View
}

// SetParams sets hyper-parameters for the BaseModel model.
func (model *BaseModel) SetParams(params Params) {
	if params == nil {
		params = Params{}
	}
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

// Init orients the model on a rating store. It must be called at the beginning of Fit.
func (model *BaseModel) Init(ratings *dataset.Ratings) error {
	if ratings == nil {
		return errors.NotValidf("nil ratings")
	}
	orientation, err := dataset.ParseOrientation(model.Params.GetString(Orientation, dataset.UserBased.String()))
	if err != nil {
		return errors.Trace(err)
	}
	model.view = ratings.View(orientation)
	model.rng = base.NewRandomGenerator(model.randState)
	return nil
}

// XY checks a query and maps it to the orientation of the model.
func (model *BaseModel) XY(userId, itemId int) (x, y int, err error) {
	if model.view.Ratings == nil {
		return 0, 0, errors.NotValidf("predict before fit")
	}
	if err = model.view.Check(userId, itemId); err != nil {
		return 0, 0, errors.Trace(err)
	}
	x, y = model.view.XY(userId, itemId)
	return x, y, nil
}

// View returns the oriented rating store.
func (model *BaseModel) View() dataset.View {
	return model.view
}
