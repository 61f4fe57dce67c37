// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/admin"
	"github.com/vechain/farm/co"
	"github.com/vechain/farm/health"
	"github.com/vechain/farm/metrics"
)

func serve(listener net.Listener, handler http.Handler, readTimeout time.Duration) func() {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: readTimeout}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return func() {
		srv.Close()
		goes.Wait()
	}
}

// StartAPIServer serves the ledger API. The read timeout is left open for
// websocket subscribers.
func StartAPIServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	return "http://" + listener.Addr().String() + "/", serve(listener, handler, 0), nil
}

func StartMetricsServer(addr string) (string, func(), error) {
	metricsHandler := metrics.HTTPHandler()
	if metricsHandler == nil {
		return "", nil, errors.New("metrics are not enabled")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metricsHandler)
	handler := handlers.CompressHandler(router)

	return "http://" + listener.Addr().String() + "/metrics", serve(listener, handler, 5*time.Second), nil
}

func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}
	return "http://" + listener.Addr().String() + "/admin", serve(listener, admin.New(logLevel, apiLogs, h), 5*time.Second), nil
}
