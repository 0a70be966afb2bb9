// Copyright 2022 gorse Project Authors
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

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analogy.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path}))

	SetLogger(flagSet, false)
	Logger().Info("hello")
	_ = Logger().Sync()
	_, err := os.Stat(path)
	assert.NoError(t, err)

	SetLogger(flagSet, true)
	assert.NotNil(t, Logger())
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "s3://xxx:xxxxxx@bucket/prefix", RedactURL("s3://bob:secret@bucket/prefix"))
	assert.Equal(t, "file:///tmp/cache", RedactURL("file:///tmp/cache"))
	assert.Equal(t, "sqlite://runs.db", RedactURL("sqlite://runs.db"))
}
