// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/node"
)

type Events struct {
	node  *node.Node
	limit uint64
}

func New(n *node.Node, limit uint64) *Events {
	return &Events{n, limit}
}

// applyLimit caps the page size, filling in the limit when the caller gave none.
func (e *Events) applyLimit(filter *eventdb.Filter) error {
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
		return nil
	}
	if filter.Options.Limit == 0 {
		filter.Options.Limit = e.limit
	}
	if filter.Options.Limit > e.limit {
		return utils.Forbidden(errors.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	return nil
}

func (e *Events) filter(w http.ResponseWriter, req *http.Request, filter *eventdb.Filter) error {
	switch filter.Order {
	case "", eventdb.ASC, eventdb.DESC:
	default:
		return utils.BadRequest(errors.Errorf("order: unknown value %q", filter.Order))
	}
	if err := e.applyLimit(filter); err != nil {
		return err
	}
	found, err := e.node.Events(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, 0, len(found))
	for _, ev := range found {
		out = append(out, ConvertEvent(ev))
	}
	return utils.WriteJSON(w, out)
}

// ParseQuery reads a filter from query parameters:
// participant, kind (comma separated), from, to, order, offset and limit.
func ParseQuery(req *http.Request) (*eventdb.Filter, error) {
	query := req.URL.Query()
	filter := &eventdb.Filter{Order: eventdb.Order(query.Get("order"))}

	if s := query.Get("participant"); s != "" {
		addr, err := utils.ParseAddress("participant", s)
		if err != nil {
			return nil, err
		}
		filter.Participant = &addr
	}
	if s := query.Get("kind"); s != "" {
		filter.Kinds = strings.Split(s, ",")
	}
	if query.Has("from") || query.Has("to") {
		from, err := utils.ParseUint32("from", query.Get("from"), 0)
		if err != nil {
			return nil, err
		}
		to, err := utils.ParseUint32("to", query.Get("to"), 0)
		if err != nil {
			return nil, err
		}
		if query.Has("to") && to < from {
			return nil, utils.BadRequest(errors.New("range: to is below from"))
		}
		// a missing upper bound is expressed by To below From
		if query.Has("to") || from > 0 {
			filter.Range = &eventdb.Range{From: from, To: to}
		}
	}
	if query.Has("offset") || query.Has("limit") {
		offset, err := utils.ParseUint64("offset", query.Get("offset"), 0)
		if err != nil {
			return nil, err
		}
		limit, err := utils.ParseUint64("limit", query.Get("limit"), 0)
		if err != nil {
			return nil, err
		}
		filter.Options = &eventdb.Options{Offset: offset, Limit: limit}
	}
	return filter, nil
}

func (e *Events) handleQuery(w http.ResponseWriter, req *http.Request) error {
	filter, err := ParseQuery(req)
	if err != nil {
		return err
	}
	return e.filter(w, req, filter)
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return e.filter(w, req, &filter)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleQuery))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
