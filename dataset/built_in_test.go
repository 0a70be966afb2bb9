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
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZipArchive(t *testing.T, files map[string]string) []byte {
	buf := bytes.NewBuffer(nil)
	w := zip.NewWriter(buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDownloadAndUnzip(t *testing.T) {
	archive := newZipArchive(t, map[string]string{
		"toy/u1.base": "1\t1\t5\t0\n1\t2\t3\t0\n",
		"toy/u1.test": "2\t1\t4\t0\n",
	})
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "toy", "u1.base")
	err := downloadAndUnzip(server.URL+"/toy.zip", target, dir)
	require.NoError(t, err)
	assert.FileExists(t, target)
	assert.FileExists(t, filepath.Join(dir, "toy", "u1.test"))
	assert.NoFileExists(t, filepath.Join(dir, ".download", "toy.zip"))
	triples, err := LoadCSV(target, "\t", false)
	require.NoError(t, err)
	assert.Equal(t, []Triple{{1, 1, 5}, {1, 2, 3}}, triples)

	// cached
	err = downloadAndUnzip(server.URL+"/toy.zip", target, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	dir := t.TempDir()
	err := downloadAndUnzip(server.URL+"/missing.zip", filepath.Join(dir, "missing"), dir)
	assert.Error(t, err)
}

func TestUnzipSlip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(path, newZipArchive(t, map[string]string{"../evil.txt": "x"}), 0644))
	_, err := unzip(path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestLoadBuiltIn(t *testing.T) {
	_, _, err := LoadBuiltIn("unknown")
	assert.True(t, errors.Is(err, errors.NotFound))

	// pre-extracted files are used without network access
	dir := t.TempDir()
	t.Setenv("ANALOGY_DATASET_DIR", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ml-100k"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ml-100k", "u1.base"), []byte("1\t1\t5\t0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ml-100k", "u1.test"), []byte("1\t2\t4\t0\n"), 0644))
	train, test, err := LoadBuiltIn("ml-100k")
	require.NoError(t, err)
	assert.Equal(t, []Triple{{1, 1, 5}}, train)
	assert.Equal(t, []Triple{{1, 2, 4}}, test)
}
