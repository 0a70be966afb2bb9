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
	"strconv"

	"github.com/gorse-io/analogy/base/encoding"
	"github.com/gorse-io/analogy/model"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var predictCommand = &cobra.Command{
	Use:   "predict <user> <item>",
	Short: "Fit the configured predictor and estimate a single rating",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.NotValidf("user id %q", args[0])
		}
		item, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.NotValidf("item id %q", args[1])
		}
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		train, test, _, err := loadDataset(conf.Dataset)
		if err != nil {
			return errors.Trace(err)
		}
		predictor, err := fitPredictor(cmd.Context(), conf, train, test)
		if err != nil {
			return errors.Trace(err)
		}
		estimate, err := predictor.Predict(user, item)
		if err != nil {
			return errors.Trace(err)
		}
		if estimate == model.Impossible {
			fmt.Fprintln(cmd.OutOrStdout(), "impossible")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoding.FormatFloat64(estimate))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(predictCommand)
}
