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
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/dcos/dcos-streamtail/config"
	"github.com/dcos/dcos-streamtail/source"
	"github.com/dcos/dcos-streamtail/stream"
	"github.com/dcos/dcos-streamtail/util"
	"github.com/dcos/dcos-streamtail/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker URL",
	Short: "Stream URL in the background, controlled by messages read from stdin.",
	Long: `Read control messages from stdin, one per line. "start" begins streaming URL
and any other message stops the worker. Decoded chunks are written to stdout.
At the end of stdin a running stream is read until it ends.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(defaultConfig, args[0], os.Stdin, os.Stdout)
	},
}

func init() {
	addStreamFlags(workerCmd)
	RootCmd.AddCommand(workerCmd)
}

func runWorker(cfg *config.Config, rawURL string, in io.Reader, out io.Writer) error {
	url, err := util.UseTLSScheme(rawURL, cfg.FlagForceTLS)
	if err != nil {
		return err
	}
	client, err := newStreamClient(cfg)
	if err != nil {
		return err
	}

	if _, err := stream.LookupEncoding(cfg.FlagEncoding); err != nil {
		return err
	}

	w := worker.New(func(ctx context.Context) (stream.Source, []stream.Option, error) {
		src, err := source.Get(ctx, client, url)
		if err != nil {
			return nil, nil, err
		}
		return src, []stream.Option{stream.WithEncoding(streamEncoding(cfg, src))}, nil
	}, stream.WithTimeout(cfg.FlagTimeout))

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			w.Post(strings.TrimSpace(scanner.Text()))
		}
		// a running stream is read to its end
		w.Close()
	}()

	for msg := range w.Messages() {
		if _, err := io.WriteString(out, msg); err != nil {
			logrus.WithError(err).Error("Could not write message")
		}
	}

	if err := w.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
