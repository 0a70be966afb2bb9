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
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/juju/errors"
	"github.com/samber/lo"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
)

const SQLitePrefix = "sqlite://"

// Run records a fitted and evaluated predictor.
type Run struct {
	ID         string
	Predictor  string
	BasedOn    string
	Params     map[string]any
	Dataset    string
	Count      int
	Impossible int
	RMSE       float64
	MAE        float64
	Accuracy   float64
	Estimates  []float64
	Timestamp  time.Time
}

func (r *Run) paramsJSON() string {
	return string(lo.Must1(json.Marshal(r.Params)))
}

func (r *Run) estimatesJSON() string {
	return string(lo.Must1(json.Marshal(r.Estimates)))
}

type Database interface {
	Close() error
	Init() error
	PutRun(run *Run) error
	GetRun(id string) (*Run, error)
	// ListRuns returns runs without estimates, latest first.
	ListRuns(limit int) ([]*Run, error)
	DeleteRun(id string) error
}

// Open a connection to a database.
func Open(path string) (Database, error) {
	var err error
	if strings.HasPrefix(path, SQLitePrefix) {
		dataSourceName := path[len(SQLitePrefix):]
		// append parameters
		if dataSourceName, err = appendURLParams(dataSourceName, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLite)
		if database.db, err = otelsql.Open("sqlite", dataSourceName,
			otelsql.WithAttributes(semconv.DBSystemSqlite),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.NotSupportedf("database %s", path)
}

func appendURLParams(rawURL string, params []lo.Tuple2[string, string]) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	q := parsed.Query()
	for _, tuple := range params {
		q.Add(tuple.A, tuple.B)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
