package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/JiscSD/cessda-fair-checker/checks"

	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const checksPrefix = "/checks/"

type checkRequest struct {
	URL string `schema:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// newServerHandler serves GET /checks/{name}?url={record-url} plus the
// health, metrics and profiling endpoints.
func newServerHandler(logger logrus.FieldLogger, checker *checks.Checker, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	// Prometheus metrics.
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Profiling data.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc(checksPrefix, func(w http.ResponseWriter, r *http.Request) {
		handleCheck(logger, checker, w, r)
	})

	return mux
}

func handleCheck(logger logrus.FieldLogger, checker *checks.Checker, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, checksPrefix)
	if _, err := checks.Lookup(name); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var req checkRequest
	if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url parameter is required"})
		return
	}

	res, invocation := checker.RunWithID(r.Context(), name, req.URL)
	writeJSON(w, http.StatusOK, report{
		Check:      name,
		URL:        req.URL,
		Result:     res,
		Invocation: invocation,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
