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
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/dcos/dcos-streamtail/api"
	"github.com/dcos/dcos-streamtail/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an http server streaming the current time.",
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	serveCmd.Flags().IntVar(&defaultConfig.FlagPort, "port", defaultConfig.FlagPort,
		"Web server TCP port.")
	serveCmd.Flags().BoolVar(&defaultConfig.FlagDisableUnixSocket, "no-unix-socket", defaultConfig.FlagDisableUnixSocket,
		"Disable use unix socket provided by systemd activation.")
	serveCmd.Flags().BoolVar(&defaultConfig.FlagDebug, "debug", defaultConfig.FlagDebug,
		"Enable pprof debugging endpoints.")
	serveCmd.Flags().DurationVar(&defaultConfig.FlagInterval, "interval", defaultConfig.FlagInterval,
		"Time between two lines of the clock stream.")
	RootCmd.AddCommand(serveCmd)
}

func startServer() {
	if defaultConfig.FlagInterval <= 0 {
		logrus.Fatalf("interval must be greater than 0")
	}

	router := api.NewRouter(&api.Dependencies{
		Cfg:     defaultConfig,
		Metrics: stream.NewMetrics(prometheus.DefaultRegisterer),
	})

	logrus.Info("Start dcos-streamtail")

	if defaultConfig.FlagDisableUnixSocket {
		addr := fmt.Sprintf(":%d", defaultConfig.FlagPort)
		logrus.Infof("Exposing dcos-streamtail API on 0.0.0.0:%d", defaultConfig.FlagPort)
		logrus.Fatal(newServer(router).Serve(mustListen(addr)))
	}

	// try using systemd socket
	listeners, err := activation.Listeners()
	if err != nil {
		logrus.Fatalf("Unable to initialize listener: %s", err)
	}

	if len(listeners) == 0 || listeners[0] == nil {
		logrus.Fatal("Unix socket not found")
	}
	logrus.Infof("Using socket: %s", listeners[0].Addr().String())
	logrus.Fatal(newServer(router).Serve(listeners[0]))
}

// newServer returns a server without read or write timeouts: streams are endless.
func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func mustListen(addr string) net.Listener {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.Fatalf("Unable to listen on %s: %s", addr, err)
	}
	return l
}
