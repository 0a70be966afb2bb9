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

	"github.com/google/uuid"
	"github.com/gorse-io/analogy/base/encoding"
	"github.com/gorse-io/analogy/eval"
	"github.com/gorse-io/analogy/model"
	"github.com/gorse-io/analogy/storage/meta"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var evalCommand = &cobra.Command{
	Use:   "eval",
	Short: "Fit the configured predictor and evaluate it on the test ratings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		train, test, name, err := loadDataset(conf.Dataset)
		if err != nil {
			return errors.Trace(err)
		}
		predictor, err := fitPredictor(cmd.Context(), conf, train, test)
		if err != nil {
			return errors.Trace(err)
		}
		evaluator, err := eval.Evaluate(cmd.Context(), predictor, test, eval.NewConfig().
			SetImpossibleDefault(conf.Eval.ImpossibleDefault).
			SetExcludeImpossible(conf.Eval.ExcludeImpossible).
			SetSqrtMAE(conf.Eval.MAESqrt).
			SetVerbose(conf.Eval.Verbose))
		if err != nil {
			return errors.Trace(err)
		}
		stats := evaluator.Stats()

		// record the run
		if conf.Meta.Path != "" {
			database, err := meta.Open(conf.Meta.Path)
			if err != nil {
				return errors.Trace(err)
			}
			defer database.Close()
			if err = database.Init(); err != nil {
				return errors.Trace(err)
			}
			run := newRun(predictor, name, stats, evaluator.Estimates())
			if err = database.PutRun(run); err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s\n", run.ID)
		}

		// export metrics
		if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
			if err = prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
				return errors.Trace(err)
			}
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("predictor", "based on", "predictions", "impossible", "RMSE", "MAE", "accuracy")
		info := model.GetInfo(predictor)
		if err = table.Append([]string{
			info.Name,
			info.BasedOn,
			fmt.Sprint(len(test)),
			fmt.Sprint(stats.Impossible),
			encoding.FormatFloat64(stats.RMSE),
			encoding.FormatFloat64(stats.MAE),
			encoding.FormatFloat64(stats.Accuracy),
		}); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}

func newRun(predictor model.Predictor, dataset string, stats eval.Stats, estimates []float64) *meta.Run {
	info := model.GetInfo(predictor)
	params := make(map[string]any, len(info.Params))
	for name, value := range info.Params {
		params[string(name)] = value
	}
	return &meta.Run{
		ID:         uuid.NewString(),
		Predictor:  info.Name,
		BasedOn:    info.BasedOn,
		Params:     params,
		Dataset:    dataset,
		Count:      stats.Count,
		Impossible: stats.Impossible,
		RMSE:       stats.RMSE,
		MAE:        stats.MAE,
		Accuracy:   stats.Accuracy,
		Estimates:  estimates,
		Timestamp:  time.Now(),
	}
}

func init() {
	evalCommand.Flags().String("metrics-file", "", "write evaluation metrics in text format to this file")
	rootCommand.AddCommand(evalCommand)
}
