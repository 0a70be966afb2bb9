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

package main

import (
	"fmt"

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/storage/blob"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var cacheCommand = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached similarity matrices",
}

var cacheListCommand = &cobra.Command{
	Use:   "ls",
	Short: "List cached similarity matrices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		names, err := store.List()
		if err != nil {
			return errors.Trace(err)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var cacheRemoveCommand = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a cached similarity matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(store.Remove(args[0]))
	},
}

func openCache(cmd *cobra.Command) (blob.Store, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if conf.Cache.Store == "" {
		return nil, errors.NotValidf("empty cache store")
	}
	store, err := blob.Open(conf.Cache)
	if err != nil {
		return nil, errors.Annotatef(err, "open cache %s", log.RedactURL(conf.Cache.Store))
	}
	return store, nil
}

func init() {
	cacheCommand.AddCommand(cacheListCommand, cacheRemoveCommand)
	rootCommand.AddCommand(cacheCommand)
}
