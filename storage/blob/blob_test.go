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
	"path"
	"testing"

	"github.com/gorse-io/analogy/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := path.Join(t.TempDir(), "cache")
	store, err := Open(config.CacheConfig{Store: "file://" + dir})
	require.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)
	assert.Equal(t, dir, store.(*POSIX).dir)

	store, err = Open(config.CacheConfig{Store: "s3://bucket/a/b/", S3: config.S3Config{Endpoint: "localhost:9000"}})
	require.NoError(t, err)
	assert.Equal(t, "bucket", store.(*S3).bucket)
	assert.Equal(t, "a/b", store.(*S3).prefix)

	_, err = Open(config.CacheConfig{Store: "azblob://container/prefix"})
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = Open(config.CacheConfig{Store: "s3:///prefix"})
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = Open(config.CacheConfig{Store: "ftp://host/dir"})
	assert.True(t, errors.Is(err, errors.NotSupported))
	_, err = Open(config.CacheConfig{})
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestParseLocation(t *testing.T) {
	bucket, prefix, err := parseLocation("gcs://analogy/cache")
	assert.NoError(t, err)
	assert.Equal(t, "analogy", bucket)
	assert.Equal(t, "cache", prefix)
	bucket, prefix, err = parseLocation("gcs://analogy")
	assert.NoError(t, err)
	assert.Equal(t, "analogy", bucket)
	assert.Empty(t, prefix)
}
