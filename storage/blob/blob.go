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
	"net/url"
	"strings"

	"github.com/gorse-io/analogy/config"
	"github.com/juju/errors"
)

const (
	filePrefix  = "file://"
	s3Prefix    = "s3://"
	gcsPrefix   = "gcs://"
	azurePrefix = "azblob://"
)

// Store keeps named blobs such as cached similarity matrices.
type Store interface {
	// Open a blob for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a blob for writing. The done channel is closed once the content is persisted.
	Create(name string) (io.WriteCloser, chan struct{}, error)
	// List names of all blobs.
	List() ([]string, error)
	// Remove a blob.
	Remove(name string) error
}

// Open connects to the store located by cfg.Store.
func Open(cfg config.CacheConfig) (Store, error) {
	switch {
	case strings.HasPrefix(cfg.Store, filePrefix):
		return NewPOSIX(strings.TrimPrefix(cfg.Store, filePrefix)), nil
	case strings.HasPrefix(cfg.Store, s3Prefix):
		bucket, prefix, err := parseLocation(cfg.Store)
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg.S3.Bucket, cfg.S3.Prefix = bucket, prefix
		return NewS3(cfg.S3)
	case strings.HasPrefix(cfg.Store, gcsPrefix):
		bucket, prefix, err := parseLocation(cfg.Store)
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg.GCS.Bucket, cfg.GCS.Prefix = bucket, prefix
		return NewGCS(cfg.GCS)
	case strings.HasPrefix(cfg.Store, azurePrefix):
		container, prefix, err := parseLocation(cfg.Store)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewAzureBlob(cfg.Azure, container, prefix)
	}
	return nil, errors.NotSupportedf("blob store %q", cfg.Store)
}

// parseLocation splits scheme://bucket/prefix.
func parseLocation(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", errors.Trace(err)
	}
	if u.Host == "" {
		return "", "", errors.NotValidf("blob store %q without bucket", location)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
