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
	"os"

	"github.com/gorse-io/analogy/base/log"
	"github.com/gorse-io/analogy/cmd/version"
	"github.com/gorse-io/analogy/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:           "gorse-analogy",
	Short:         "Rating prediction by analogical proportions and neighborhood models.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Print(version.BuildInfo())
			return nil
		}
		return cmd.Help()
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.Flags().BoolP("version", "v", false, "gorse-analogy version")
	rootCommand.AddCommand(versionCommand)
}

// loadConfig loads the configuration named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %q", configPath)
	}
	return conf, nil
}

func main() {
	defer log.CloseLogger()
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Error("gorse-analogy failed", zap.Error(err))
		os.Exit(1)
	}
}
