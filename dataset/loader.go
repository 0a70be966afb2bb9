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

package dataset

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/analogy/base"
	"github.com/juju/errors"
)

// LoadCSV loads "user item rating [timestamp]" lines from a file.
func LoadCSV(path, sep string, header bool) ([]Triple, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	return ReadCSV(file, sep, header)
}

// ReadCSV parses "user item rating [timestamp]" lines. Ratings must be integers in
// [MinRating, MaxRating]; "4.0" is accepted, "3.5" is not.
func ReadCSV(r io.Reader, sep string, header bool) ([]Triple, error) {
	var (
		triples []Triple
		err     error
	)
	sc := bufio.NewScanner(r)
	if readErr := base.ReadLines(sc, sep, func(line int, fields []string) bool {
		if header && line == 0 {
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		if len(fields) < 3 {
			err = errors.NotValidf("line %d has %d fields", line+1, len(fields))
			return false
		}
		var t Triple
		if t.User, err = strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
			err = errors.Annotatef(err, "line %d", line+1)
			return false
		}
		if t.Item, err = strconv.Atoi(strings.TrimSpace(fields[1])); err != nil {
			err = errors.Annotatef(err, "line %d", line+1)
			return false
		}
		if t.Rating, err = parseRating(strings.TrimSpace(fields[2])); err != nil {
			err = errors.Annotatef(err, "line %d", line+1)
			return false
		}
		if t.User < 1 || t.Item < 1 {
			err = errors.NotValidf("ids (%d, %d) at line %d", t.User, t.Item, line+1)
			return false
		}
		triples = append(triples, t)
		return true
	}); readErr != nil {
		return nil, errors.Trace(readErr)
	}
	if err != nil {
		return nil, err
	}
	return triples, nil
}

func parseRating(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if v != math.Trunc(v) || v < MinRating || v > MaxRating {
		return 0, errors.NotValidf("rating %s", s)
	}
	return int(v), nil
}

// Split holds out a testRatio fraction of triples. The relative order of triples is kept
// in both parts.
func Split(triples []Triple, testRatio float64, seed int64) (train, test []Triple) {
	rng := base.NewRandomGenerator(seed)
	numTest := int(float64(len(triples)) * testRatio)
	testIndices := mapset.NewSet(rng.Sample(0, len(triples), numTest)...)
	train = make([]Triple, 0, len(triples)-numTest)
	test = make([]Triple, 0, numTest)
	for i, t := range triples {
		if testIndices.Contains(i) {
			test = append(test, t)
		} else {
			train = append(train, t)
		}
	}
	return
}
