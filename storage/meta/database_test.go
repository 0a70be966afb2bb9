// Copyright 2024 gorse Project Authors
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

package meta

import (
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func newRun(id string, timestamp time.Time) *Run {
	return &Run{
		ID:         id,
		Predictor:  "analogy",
		BasedOn:    "users",
		Params:     map[string]any{"n_trials": 1000.0, "truth_value": "a"},
		Dataset:    "ml-100k",
		Count:      3,
		Impossible: 1,
		RMSE:       1.25,
		MAE:        1,
		Accuracy:   0.5,
		Estimates:  []float64{4, 0, 3},
		Timestamp:  timestamp,
	}
}

func (suite *baseTestSuite) TestRuns() {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.NoError(suite.Database.PutRun(newRun("run-1", now.Add(-time.Hour))))
	suite.NoError(suite.Database.PutRun(newRun("run-2", now)))
	// duplicate id
	suite.Error(suite.Database.PutRun(newRun("run-2", now)))

	run, err := suite.Database.GetRun("run-1")
	suite.NoError(err)
	expected := newRun("run-1", now.Add(-time.Hour))
	suite.True(expected.Timestamp.Equal(run.Timestamp))
	run.Timestamp = expected.Timestamp
	suite.Equal(expected, run)
	_, err = suite.Database.GetRun("run-3")
	suite.True(errors.Is(err, errors.NotFound))

	runs, err := suite.Database.ListRuns(10)
	suite.NoError(err)
	if suite.Len(runs, 2) {
		suite.Equal("run-2", runs[0].ID)
		suite.Equal("run-1", runs[1].ID)
		suite.Nil(runs[0].Estimates)
		suite.Equal("a", runs[0].Params["truth_value"])
	}
	runs, err = suite.Database.ListRuns(1)
	suite.NoError(err)
	suite.Len(runs, 1)

	suite.NoError(suite.Database.DeleteRun("run-1"))
	suite.True(errors.Is(suite.Database.DeleteRun("run-1"), errors.NotFound))
	runs, err = suite.Database.ListRuns(10)
	suite.NoError(err)
	suite.Len(runs, 1)
}
