// Copyright © 2017 Mesosphere Inc. <http://mesosphere.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/dcos/dcos-streamtail/config"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version       bool
	cfgFile       string
	defaultConfig = config.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dcos-streamtail",
	Short: "Chunked stream server and bounded stream reader",
	Long: `dcos-streamtail reads chunked HTTP streams and never waits on a stalled one.

dcos-streamtail serve starts an http server streaming the clock.
dcos-streamtail tail reads one or more streams, failing when a chunk is late.
`,
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("Version: %s\n", config.Version)
			os.Exit(0)
		}
		cmd.Help()
	},
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolVar(&version, "version", false, "Print dcos-streamtail version")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /opt/mesosphere/etc/dcos-streamtail-config.json)")
	RootCmd.PersistentFlags().BoolVar(&defaultConfig.FlagVerbose, "verbose", defaultConfig.FlagVerbose,
		"Use verbose debug output.")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetConfigName("dcos-streamtail-config") // name of config file (without extension)
	viper.AddConfigPath("/opt/mesosphere/etc/")
	viper.AutomaticEnv()

	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if err := decodeConfig(viper.AllSettings(), defaultConfig); err != nil {
			logrus.WithError(err).Fatalf("Error loading config file")
		}
	}

	if defaultConfig.FlagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// decodeConfig copies settings onto cfg. Durations may be given as strings like "250ms".
func decodeConfig(settings map[string]interface{}, cfg *config.Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("could not create config decoder: %s", err)
	}
	return decoder.Decode(settings)
}
