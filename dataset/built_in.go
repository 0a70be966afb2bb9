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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorse-io/analogy/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type builtInDataSet struct {
	url   string
	train string
	test  string
	sep   string
}

var builtInDataSets = map[string]builtInDataSet{
	// MovieLens: https://grouplens.org/datasets/movielens/
	"ml-100k": {
		url:   "https://files.grouplens.org/datasets/movielens/ml-100k.zip",
		train: "ml-100k/u1.base",
		test:  "ml-100k/u1.test",
		sep:   "\t",
	},
	"ml-1m": {
		url:   "https://files.grouplens.org/datasets/movielens/ml-1m.zip",
		train: "ml-1m/ratings.dat",
		sep:   "::",
	},
}

// DataSetDir is where built-in datasets are extracted. ANALOGY_DATASET_DIR overrides it.
func DataSetDir() string {
	if dir := os.Getenv("ANALOGY_DATASET_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "analogy", "dataset")
	}
	return filepath.Join(home, ".analogy", "dataset")
}

// LoadBuiltIn loads a built-in dataset, downloading it on first use. test is empty for
// datasets shipped without a held-out file.
func LoadBuiltIn(name string) (train, test []Triple, err error) {
	dataSet, exist := builtInDataSets[name]
	if !exist {
		return nil, nil, errors.NotFoundf("built-in dataset %s", name)
	}
	dir := DataSetDir()
	if err = downloadAndUnzip(dataSet.url, filepath.Join(dir, dataSet.train), dir); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if train, err = LoadCSV(filepath.Join(dir, dataSet.train), dataSet.sep, false); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if dataSet.test != "" {
		if test, err = LoadCSV(filepath.Join(dir, dataSet.test), dataSet.sep, false); err != nil {
			return nil, nil, errors.Trace(err)
		}
	}
	return train, test, nil
}

// downloadAndUnzip fetches the archive at url into dir unless target already exists.
func downloadAndUnzip(url, target, dir string) error {
	if _, err := os.Stat(target); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Trace(err)
	}
	zipFileName, err := downloadFromUrl(url, filepath.Join(dir, ".download"))
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(zipFileName)
	if _, err = unzip(zipFileName, dir); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// downloadFromUrl downloads file from URL.
func downloadFromUrl(src, dst string) (string, error) {
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", dst))
	// Extract file name
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	// Create file
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return fileName, errors.Trace(err)
	}
	output, err := os.Create(fileName)
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", fileName))
		return fileName, errors.Trace(err)
	}
	defer output.Close()
	// Download file
	response, err := http.Get(src)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fileName, errors.Errorf("download %s: %s", src, response.Status)
	}
	// Save file
	if _, err = io.Copy(output, response.Body); err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	return fileName, nil
}

// unzip zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	r, err := zip.OpenReader(src)
	if err != nil {
		return fileNames, errors.Trace(err)
	}
	defer r.Close()
	for _, f := range r.File {
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, errors.NotValidf("file path %s", filePath)
		}
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
			continue
		}
		if err = extract(f, filePath); err != nil {
			return fileNames, err
		}
	}
	return fileNames, nil
}

func extract(f *zip.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Trace(err)
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		return errors.Trace(err)
	}
	return errors.Trace(outFile.Close())
}
