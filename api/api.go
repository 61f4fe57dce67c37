// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/farm/api/blocks"
	"github.com/vechain/farm/api/events"
	"github.com/vechain/farm/api/ledger"
	"github.com/vechain/farm/api/middleware"
	"github.com/vechain/farm/api/participants"
	"github.com/vechain/farm/api/subscriptions"
	"github.com/vechain/farm/api/tokens"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/node"
)

var logger = log.WithContext("pkg", "api")

// DefaultEventsLimit caps a page of GET /events when no limit is configured.
const DefaultEventsLimit = 1000

type Options struct {
	AllowedOrigins       string
	Timeout              time.Duration
	OnDemand             bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EventsLimit          uint64
}

// New return api router
func New(n *node.Node, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	limit := opts.EventsLimit
	if limit == 0 {
		limit = DefaultEventsLimit
	}

	router := mux.NewRouter()

	ledger.New(n).
		Mount(router, "/ledger")
	ledger.NewAdmin(n).
		Mount(router, "/admin")
	participants.New(n).
		Mount(router, "/participants")
	tokens.New(n).
		Mount(router, "/tokens")
	blocks.New(n, opts.OnDemand).
		Mount(router, "/blocks")
	events.New(n, limit).
		Mount(router, "/events")
	subs := subscriptions.New(n, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)
	handler = middleware.Timeout(opts.Timeout, "/subscriptions")(handler)

	reqLogs := opts.EnableReqLogger
	if reqLogs == nil {
		reqLogs = &atomic.Bool{}
	}
	handler = middleware.RequestLogger(logger, reqLogs, opts.SlowQueriesThreshold)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
