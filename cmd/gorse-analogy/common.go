// Copyright 2025 gorse Project Authors
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

package main

import (
	"context"
	"time"

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/config"
	"github.com/gorse-io/analogy/dataset"
	"github.com/gorse-io/analogy/model"
	"github.com/gorse-io/analogy/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// loadDataset returns the train and test ratings selected by the configuration, and a
// name identifying them.
func loadDataset(cfg config.DatasetConfig) (train, test []dataset.Triple, name string, err error) {
	start := time.Now()
	switch {
	case cfg.Path != "" && cfg.TestPath != "":
		if train, err = dataset.LoadCSV(cfg.Path, cfg.Separator, cfg.Header); err != nil {
			return nil, nil, "", errors.Trace(err)
		}
		if test, err = dataset.LoadCSV(cfg.TestPath, cfg.Separator, cfg.Header); err != nil {
			return nil, nil, "", errors.Trace(err)
		}
		name = cfg.Path
	case cfg.Path != "":
		all, err := dataset.LoadCSV(cfg.Path, cfg.Separator, cfg.Header)
		if err != nil {
			return nil, nil, "", errors.Trace(err)
		}
		train, test = dataset.Split(all, cfg.TestRatio, cfg.Seed)
		name = cfg.Path
	default:
		if train, test, err = dataset.LoadBuiltIn(cfg.Name); err != nil {
			return nil, nil, "", errors.Trace(err)
		}
		name = cfg.Name
	}
	log.Logger().Info("load dataset",
		zap.String("name", name),
		zap.Int("n_train", len(train)),
		zap.Int("n_test", len(test)),
		zap.String("duration", time.Since(start).String()))
	return train, test, name, nil
}

// predictorParams converts the predictor section into hyper-parameters.
func predictorParams(cfg config.PredictorConfig) model.Params {
	return model.Params{
		model.Orientation:    cfg.Orientation,
		model.K:              cfg.K,
		model.BaselineMethod: cfg.Baseline,
		model.Lr:             cfg.Lr,
		model.Reg:            cfg.Reg,
		model.NEpochs:        cfg.NEpochs,
		model.RegUser:        cfg.RegUser,
		model.RegItem:        cfg.RegItem,
		model.WeightReg:      cfg.WeightReg,
		model.WarmStart:      cfg.WarmStart,
		model.NTrials:        cfg.NTrials,
		model.TruthValue:     cfg.TruthValue,
		model.Margin:         cfg.Margin,
		model.Weighting:      cfg.GillesWeighting,
		model.RandomState:    cfg.Seed,
	}
}

// fitPredictor fits the configured predictor on the train ratings. Ids of the test ratings
// are declared so that they can be queried.
func fitPredictor(ctx context.Context, conf *config.Config, train, test []dataset.Triple) (model.Predictor, error) {
	lastUser, lastItem := dataset.Bounds(train, test)
	ratings, err := dataset.NewRatings(train, lastUser, lastItem)
	if err != nil {
		return nil, errors.Trace(err)
	}
	predictor, err := model.NewPredictor(conf.Predictor.Name, predictorParams(conf.Predictor))
	if err != nil {
		return nil, errors.Trace(err)
	}
	fitConfig := model.NewFitConfig().SetJobs(conf.Predictor.Jobs)
	if conf.Cache.Store != "" {
		store, err := blob.Open(conf.Cache)
		if err != nil {
			return nil, errors.Annotatef(err, "open cache %s", log.RedactURL(conf.Cache.Store))
		}
		fitConfig.SetCache(store)
	}
	start := time.Now()
	if err = predictor.Fit(ctx, ratings, fitConfig); err != nil {
		return nil, errors.Annotatef(err, "fit %s", predictor.Name())
	}
	log.Logger().Info("fit predictor",
		zap.String("predictor", predictor.Name()),
		zap.String("duration", time.Since(start).String()))
	return predictor, nil
}
