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
	"database/sql"
	"encoding/json"

	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init() error {
	// Create tables
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	predictor TEXT,
	based_on TEXT,
	params TEXT,
	dataset TEXT,
	count INTEGER,
	impossible INTEGER,
	rmse REAL,
	mae REAL,
	accuracy REAL,
	estimates TEXT,
	timestamp DATETIME
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`
CREATE INDEX IF NOT EXISTS runs_timestamp ON runs (timestamp);`); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *SQLite) PutRun(run *Run) error {
	_, err := s.db.Exec(`
INSERT INTO runs (id, predictor, based_on, params, dataset, count, impossible, rmse, mae, accuracy, estimates, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Predictor, run.BasedOn, run.paramsJSON(), run.Dataset, run.Count, run.Impossible,
		run.RMSE, run.MAE, run.Accuracy, run.estimatesJSON(), run.Timestamp.UTC())
	if err != nil {
		return errors.Annotatef(err, "put run %s", run.ID)
	}
	return nil
}

func (s *SQLite) GetRun(id string) (*Run, error) {
	var (
		run       Run
		params    string
		estimates string
	)
	err := s.db.QueryRow(`
SELECT id, predictor, based_on, params, dataset, count, impossible, rmse, mae, accuracy, estimates, timestamp
FROM runs WHERE id = ?
`, id).Scan(&run.ID, &run.Predictor, &run.BasedOn, &params, &run.Dataset, &run.Count, &run.Impossible,
		&run.RMSE, &run.MAE, &run.Accuracy, &estimates, &run.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("run %s", id)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	if err = json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, errors.Trace(err)
	}
	if err = json.Unmarshal([]byte(estimates), &run.Estimates); err != nil {
		return nil, errors.Trace(err)
	}
	return &run, nil
}

func (s *SQLite) ListRuns(limit int) ([]*Run, error) {
	rs, err := s.db.Query(`
SELECT id, predictor, based_on, params, dataset, count, impossible, rmse, mae, accuracy, timestamp
FROM runs ORDER BY timestamp DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()
	var runs []*Run
	for rs.Next() {
		var (
			run    Run
			params string
		)
		if err = rs.Scan(&run.ID, &run.Predictor, &run.BasedOn, &params, &run.Dataset, &run.Count, &run.Impossible,
			&run.RMSE, &run.MAE, &run.Accuracy, &run.Timestamp); err != nil {
			return nil, errors.Trace(err)
		}
		if err = json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, errors.Trace(err)
		}
		runs = append(runs, &run)
	}
	return runs, errors.Trace(rs.Err())
}

func (s *SQLite) DeleteRun(id string) error {
	result, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Trace(err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return errors.Trace(err)
	} else if n == 0 {
		return errors.NotFoundf("run %s", id)
	}
	return nil
}
