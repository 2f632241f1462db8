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
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dcos/dcos-go/dcos/http/transport"
	"github.com/dcos/dcos-streamtail/config"
	"github.com/dcos/dcos-streamtail/sink"
	"github.com/dcos/dcos-streamtail/source"
	"github.com/dcos/dcos-streamtail/stream"
	"github.com/dcos/dcos-streamtail/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail URL...",
	Short: "Read chunked streams, failing when a chunk does not arrive in time.",
	Long: `Read every URL concurrently and print each chunk as it arrives.

Every read must complete within --timeout. When no timeout is given each stream
picks its own between 900ms and 1100ms. A stream that is late or broken is
canceled and the command fails; there is no retry.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newStreamClient(defaultConfig)
		if err != nil {
			return err
		}
		return tail(context.Background(), defaultConfig, client, args, os.Stdout)
	},
}

func init() {
	addStreamFlags(tailCmd)
	tailCmd.Flags().BoolVar(&defaultConfig.FlagRaw, "raw", defaultConfig.FlagRaw,
		"Print chunks to stdout as they are instead of logging them.")
	RootCmd.AddCommand(tailCmd)
}

func addStreamFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&defaultConfig.FlagTimeout, "timeout", defaultConfig.FlagTimeout,
		"Per-read timeout. 0 picks a random timeout between 900ms and 1100ms.")
	cmd.Flags().StringVar(&defaultConfig.FlagEncoding, "encoding", defaultConfig.FlagEncoding,
		"Stream text encoding. Defaults to the response charset, then utf-8.")
	cmd.Flags().StringVar(&defaultConfig.FlagCACertFile, "ca-cert", defaultConfig.FlagCACertFile,
		"Use certificate authority.")
	cmd.Flags().StringVar(&defaultConfig.FlagIAMConfig, "iam-config", defaultConfig.FlagIAMConfig,
		"A path to identity and access management config")
	cmd.Flags().BoolVar(&defaultConfig.FlagForceTLS, "force-tls", defaultConfig.FlagForceTLS,
		"Use HTTPS for every stream URL.")
}

// newStreamClient returns a client without an overall timeout; reads are bounded per chunk instead.
func newStreamClient(cfg *config.Config) (*http.Client, error) {
	var transportOptions []transport.OptionTransportFunc
	if cfg.FlagCACertFile != "" {
		transportOptions = append(transportOptions, transport.OptionCaCertificatePath(cfg.FlagCACertFile))
	}
	if cfg.FlagIAMConfig != "" {
		transportOptions = append(transportOptions, transport.OptionIAMConfigPath(cfg.FlagIAMConfig))
	}

	tr, err := transport.NewTransport(transportOptions...)
	if err != nil {
		logrus.Errorf("Unable to initialize HTTP transport: %s", err)
		return nil, err
	}
	return util.NewHTTPClient(0, tr), nil
}

// tail reads every url with its own bounded reader. The first failure cancels the others.
func tail(ctx context.Context, cfg *config.Config, client *http.Client, urls []string, out io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			return tailOne(ctx, cfg, client, url, out)
		})
	}
	return g.Wait()
}

func tailOne(ctx context.Context, cfg *config.Config, client *http.Client, rawURL string, out io.Writer) error {
	url, err := util.UseTLSScheme(rawURL, cfg.FlagForceTLS)
	if err != nil {
		return err
	}
	log := logrus.WithField("url", url)

	src, err := source.Get(ctx, client, url)
	if err != nil {
		log.WithError(err).Error("Could not open stream")
		return err
	}

	s := sink.Log(log)
	if cfg.FlagRaw {
		s = sink.Writer(out)
	}

	r, err := stream.New(
		stream.WithTimeout(cfg.FlagTimeout),
		stream.WithEncoding(streamEncoding(cfg, src)),
		stream.WithLogger(log),
	)
	if err != nil {
		src.Cancel()
		return err
	}
	log.Debugf("Reading stream with a %s timeout per chunk", r.Timeout())

	err = r.Run(ctx, src, s)
	switch {
	case err == nil:
		defer src.Close()
		log.Info("Stream ended")
	case stream.IsTimeout(err):
		log.WithError(err).Error("Stream timed out")
	default:
		log.WithError(err).Error("Stream failed")
	}
	return err
}

// streamEncoding prefers the configured encoding over the response charset.
func streamEncoding(cfg *config.Config, src *source.HTTP) string {
	if cfg.FlagEncoding != "" {
		return cfg.FlagEncoding
	}
	if charset := src.Charset(); charset != "" {
		if _, err := stream.LookupEncoding(charset); err == nil {
			return charset
		}
		logrus.Warnf("Unknown charset %q in response from %s, using %s", charset, src.URL(), stream.DefaultEncoding)
	}
	return stream.DefaultEncoding
}
