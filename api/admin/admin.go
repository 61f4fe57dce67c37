// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the node operator endpoints: runtime log verbosity, the
// api request log switch and block production health. It is meant to listen on
// a private address.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/health"
	"github.com/vechain/farm/log"
)

var logger = log.WithContext("pkg", "admin")

// LogLevel is the body and response of /admin/loglevel.
type LogLevel struct {
	Level string `json:"level"`
}

// LogStatus is the body and response of /admin/apilogs.
type LogStatus struct {
	Enabled bool `json:"enabled"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	lvl, ok := levels[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("invalid verbosity level %q", name)
	}
	return lvl, nil
}

type Admin struct {
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
	health   *health.Health
}

func (a *Admin) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &LogLevel{Level: strings.ToLower(log.LevelString(a.logLevel.Level()))})
}

func (a *Admin) handleSetLogLevel(w http.ResponseWriter, req *http.Request) error {
	var body LogLevel
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	lvl, err := ParseLevel(body.Level)
	if err != nil {
		return utils.BadRequest(err)
	}
	a.logLevel.Set(lvl)
	logger.Info("log level updated", "level", body.Level)
	return a.handleGetLogLevel(w, req)
}

func (a *Admin) handleGetAPILogs(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &LogStatus{Enabled: a.apiLogs.Load()})
}

func (a *Admin) handleSetAPILogs(w http.ResponseWriter, req *http.Request) error {
	var body LogStatus
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	a.apiLogs.Store(body.Enabled)
	logger.Info("api logs updated", "enabled", body.Enabled)
	return a.handleGetAPILogs(w, req)
}

func (a *Admin) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	status := a.health.Status()
	if !status.Healthy {
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
		return json.NewEncoder(w).Encode(status)
	}
	return utils.WriteJSON(w, status)
}

// New returns the admin http handler.
func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) http.HandlerFunc {
	a := &Admin{logLevel: logLevel, apiLogs: apiLogs, health: h}

	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()
	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("get-log-level").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetLogLevel))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("post-log-level").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetLogLevel))
	sub.Path("/apilogs").
		Methods(http.MethodGet).
		Name("get-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAPILogs))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		Name("post-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetAPILogs))
	sub.Path("/health").
		Methods(http.MethodGet).
		Name("get-health").
		HandlerFunc(utils.WrapHandlerFunc(a.handleHealth))

	return handlers.CompressHandler(router).ServeHTTP
}
