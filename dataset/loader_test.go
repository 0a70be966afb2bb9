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
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	triples, err := ReadCSV(strings.NewReader("196\t242\t3\t881250949\n186\t302\t3\t891717742\n\n22\t377\t1\t878887116\n"), "\t", false)
	require.NoError(t, err)
	assert.Equal(t, []Triple{{196, 242, 3}, {186, 302, 3}, {22, 377, 1}}, triples)

	triples, err = ReadCSV(strings.NewReader("userId,movieId,rating,timestamp\n1,31,2.0,1260759144\n"), ",", true)
	require.NoError(t, err)
	assert.Equal(t, []Triple{{1, 31, 2}}, triples)

	triples, err = ReadCSV(strings.NewReader("1::1193::5::978300760\n"), "::", false)
	require.NoError(t, err)
	assert.Equal(t, []Triple{{1, 1193, 5}}, triples)
}

func TestReadCSVInvalid(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,31,2.5\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadCSV(strings.NewReader("1,31,6\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadCSV(strings.NewReader("1,31\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadCSV(strings.NewReader("0,31,3\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadCSV(strings.NewReader("a,31,3\n"), ",", false)
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte("1 1 5\n1 2 3\n2 1 4\n"), 0644))
	triples, err := LoadCSV(path, " ", false)
	require.NoError(t, err)
	assert.Len(t, triples, 3)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), " ", false)
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	triples := make([]Triple, 100)
	for i := range triples {
		triples[i] = Triple{User: i + 1, Item: 1, Rating: i%5 + 1}
	}
	train, test := Split(triples, 0.2, 0)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)
	// disjoint and complete
	users := mapset.NewSet(lo.Map(train, func(t Triple, _ int) int { return t.User })...)
	for _, t2 := range test {
		assert.False(t, users.Contains(t2.User))
		users.Add(t2.User)
	}
	assert.Equal(t, 100, users.Cardinality())
	// order kept
	assert.IsIncreasing(t, lo.Map(test, func(t Triple, _ int) int { return t.User }))
	// deterministic
	train2, test2 := Split(triples, 0.2, 0)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
	// no test
	train, test = Split(triples, 0, 0)
	assert.Len(t, train, 100)
	assert.Empty(t, test)
}
