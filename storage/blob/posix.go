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

package blob

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorse-io/analogy/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(p.dir, name))
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("blob %s", name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a file for writing. Content goes to a temporary file which replaces the target
// once the writer is closed, so readers never see a partial blob.
func (p *POSIX) Create(name string) (io.WriteCloser, chan struct{}, error) {
	fullPath := filepath.Join(p.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	done := make(chan struct{})
	pr, pw := io.Pipe()
	go func() {
		defer close(done)
		_, err := io.Copy(file, pr)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err == nil {
			err = os.Rename(file.Name(), fullPath)
		}
		if err != nil {
			_ = os.Remove(file.Name())
			log.Logger().Error("failed to write to file", zap.String("file", fullPath), zap.Error(err))
		}
	}()
	return pw, done, nil
}

// List names of files under the directory, temporary files excluded.
func (p *POSIX) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		name, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(name))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(names)
	return names, nil
}

func (p *POSIX) Remove(name string) error {
	err := os.Remove(filepath.Join(p.dir, name))
	if os.IsNotExist(err) {
		return errors.NotFoundf("blob %s", name)
	}
	return errors.Trace(err)
}
