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
	"time"

	"github.com/gorse-io/analogy/base/encoding"
	"github.com/gorse-io/analogy/storage/meta"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded evaluation runs",
}

var runsListCommand = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs, latest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		database, err := openMeta(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		runs, err := database.ListRuns(limit)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("id", "predictor", "dataset", "RMSE", "MAE", "accuracy", "timestamp")
		for _, run := range runs {
			if err = table.Append(runRow(run)); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

var runsShowCommand = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openMeta(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		run, err := database.GetRun(args[0])
		if err != nil {
			return errors.Trace(err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:          %s\n", run.ID)
		fmt.Fprintf(out, "predictor:   %s\n", run.Predictor)
		if run.BasedOn != "" {
			fmt.Fprintf(out, "based on:    %s\n", run.BasedOn)
		}
		fmt.Fprintf(out, "params:      %v\n", run.Params)
		fmt.Fprintf(out, "dataset:     %s\n", run.Dataset)
		fmt.Fprintf(out, "predictions: %d\n", run.Count)
		fmt.Fprintf(out, "impossible:  %d\n", run.Impossible)
		fmt.Fprintf(out, "RMSE:        %s\n", encoding.FormatFloat64(run.RMSE))
		fmt.Fprintf(out, "MAE:         %s\n", encoding.FormatFloat64(run.MAE))
		fmt.Fprintf(out, "accuracy:    %s\n", encoding.FormatFloat64(run.Accuracy))
		fmt.Fprintf(out, "timestamp:   %s\n", run.Timestamp.Format(time.RFC3339))
		return nil
	},
}

var runsRemoveCommand = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openMeta(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		return errors.Trace(database.DeleteRun(args[0]))
	},
}

func openMeta(cmd *cobra.Command) (meta.Database, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if conf.Meta.Path == "" {
		return nil, errors.NotValidf("empty meta path")
	}
	database, err := meta.Open(conf.Meta.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = database.Init(); err != nil {
		_ = database.Close()
		return nil, errors.Trace(err)
	}
	return database, nil
}

func runRow(run *meta.Run) []string {
	return []string{
		run.ID,
		run.Predictor,
		run.Dataset,
		encoding.FormatFloat64(run.RMSE),
		encoding.FormatFloat64(run.MAE),
		encoding.FormatFloat64(run.Accuracy),
		run.Timestamp.Format(time.RFC3339),
	}
}

func init() {
	runsListCommand.Flags().Int("limit", 20, "maximum number of runs")
	runsCommand.AddCommand(runsListCommand, runsShowCommand, runsRemoveCommand)
	rootCommand.AddCommand(runsCommand)
}
