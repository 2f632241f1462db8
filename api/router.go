package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/dcos/dcos-streamtail/config"
	"github.com/dcos/dcos-streamtail/stream"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type routeHandler struct {
	url     string
	handler func(http.ResponseWriter, *http.Request)
	headers []header
	methods []string
	gzip    bool
}

type header struct {
	name  string
	value string
}

// Dependencies holds everything the routes need.
type Dependencies struct {
	Cfg     *config.Config
	Metrics *stream.Metrics
	// Now is used by the clock stream. Defaults to time.Now.
	Now func() time.Time
}

func headerMiddleware(next http.Handler, headers []header) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setContentType := true
		for _, header := range headers {
			if header.name == "Content-type" {
				setContentType = false
			}
			w.Header().Add(header.name, header.value)
		}
		if setContentType {
			w.Header().Add("Content-type", "text/plain; charset=utf-8")
		}
		next.ServeHTTP(w, r)
	})
}

func getRoutes(deps *Dependencies) []routeHandler {
	h := newHandler(deps)

	routes := []routeHandler{
		{
			// chunked clock stream
			url:     "/",
			handler: h.clockHandler,
		},
		{
			// websocket speaking the worker protocol, streaming the clock
			url:     "/worker",
			handler: h.workerHandler,
		},
		{
			url:     "/metrics",
			handler: promhttp.Handler().ServeHTTP,
			headers: []header{
				{
					name:  "Content-type",
					value: "text/plain; version=0.0.4",
				},
			},
		},
	}

	if deps.Cfg.FlagDebug {
		logrus.Debug("Enabling pprof endpoints.")
		html := []header{{name: "Content-type", value: "text/html"}}
		routes = append(routes, []routeHandler{
			{url: "/debug/pprof/", handler: pprof.Index, gzip: true, headers: html},
			{url: "/debug/pprof/cmdline", handler: pprof.Cmdline, gzip: true, headers: html},
			{url: "/debug/pprof/profile", handler: pprof.Profile, gzip: true, headers: html},
			{url: "/debug/pprof/symbol", handler: pprof.Symbol, gzip: true, headers: html},
			{url: "/debug/pprof/trace", handler: pprof.Trace, gzip: true, headers: html},
			{
				url: "/debug/pprof/{profile}",
				handler: func(w http.ResponseWriter, req *http.Request) {
					profile := mux.Vars(req)["profile"]
					pprof.Handler(profile).ServeHTTP(w, req)
				},
				gzip:    true,
				headers: html,
			},
		}...)
	}

	return routes
}

func wrapHandler(handler http.Handler, route routeHandler) http.Handler {
	h := headerMiddleware(handler, route.headers)
	if route.gzip {
		h = handlers.CompressHandler(h)
	}
	h = metricMiddleware(h)

	return handlers.LoggingHandler(logrus.StandardLogger().Out, h)
}

func loadRoutes(router *mux.Router, deps *Dependencies) *mux.Router {
	for _, route := range getRoutes(deps) {
		if len(route.methods) == 0 {
			route.methods = []string{"GET"}
		}
		handler := http.HandlerFunc(route.handler)
		router.Handle(route.url, wrapHandler(handler, route)).Methods(route.methods...)
	}
	return router
}

// NewRouter returns a new *mux.Router with loaded routes.
func NewRouter(deps *Dependencies) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	return loadRoutes(router, deps)
}
