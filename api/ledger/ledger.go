// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/node"
)

type API struct {
	node *node.Node
}

func New(n *node.Node) *API {
	return &API{n}
}

func convertSchedule(s *farm.Schedule) Schedule {
	return Schedule{
		RewardRate:       utils.ToAmount(s.RewardRate),
		StartBlock:       s.StartBlock,
		EndBlock:         s.EndBlock,
		LastSettledBlock: s.LastSettledBlock,
		Accumulator:      utils.ToAmount(s.Accumulator),
	}
}

func (l *API) handleGetLedger(w http.ResponseWriter, _ *http.Request) error {
	status, err := l.node.Status()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Ledger{
		Address:      status.Ledger,
		Genesis:      status.Genesis,
		GenesisID:    status.GenesisID.String(),
		BestBlock:    status.BestBlock,
		Admin:        status.Admin,
		Paused:       status.Paused,
		TotalStaked:  utils.ToAmount(status.TotalStaked),
		Schedule:     convertSchedule(status.Schedule),
		StateEntries: status.StateEntries,
	})
}

func (l *API) handleGetSchedule(w http.ResponseWriter, _ *http.Request) error {
	sched, err := l.node.Schedule()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSchedule(sched))
}

func (l *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /ledger").
		HandlerFunc(utils.WrapHandlerFunc(l.handleGetLedger))
	sub.Path("/schedule").
		Methods(http.MethodGet).
		Name("GET /ledger/schedule").
		HandlerFunc(utils.WrapHandlerFunc(l.handleGetSchedule))
}
