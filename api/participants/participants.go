// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package participants

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/node"
	"github.com/vechain/farm/types"
)

type Participants struct {
	node *node.Node
}

func New(n *node.Node) *Participants {
	return &Participants{n}
}

func address(req *http.Request) (types.Address, error) {
	return utils.ParseAddress("address", mux.Vars(req)["address"])
}

func (p *Participants) handleGetParticipant(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	rec, err := p.node.Participant(addr)
	if err != nil {
		return err
	}
	pending, err := p.node.PendingRewards(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Participant{
		Address:    addr,
		Staked:     utils.ToAmount(rec.Staked),
		RewardDebt: utils.ToAmount(rec.RewardDebt),
		Pending:    utils.ToAmount(pending),
	})
}

func (p *Participants) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	pending, err := p.node.PendingRewards(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Pending{
		BlockNumber: p.node.Chain().CurrentBlock(),
		Pending:     utils.ToAmount(pending),
	})
}

func (p *Participants) parseAmount(req *http.Request) (*big.Int, error) {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return utils.Amount("amount", body.Amount)
}

func (p *Participants) receipt(w http.ResponseWriter, addr types.Address, err error) error {
	if err != nil {
		return utils.Reverted(err)
	}
	rec, err := p.node.Participant(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Receipt{
		BlockNumber: p.node.Chain().CurrentBlock(),
		Staked:      utils.ToAmount(rec.Staked),
	})
}

func (p *Participants) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	amount, err := p.parseAmount(req)
	if err != nil {
		return err
	}
	return p.receipt(w, addr, p.node.Deposit(addr, amount))
}

func (p *Participants) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	amount, err := p.parseAmount(req)
	if err != nil {
		return err
	}
	return p.receipt(w, addr, p.node.Withdraw(addr, amount))
}

func (p *Participants) handleHarvest(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	return p.receipt(w, addr, p.node.Harvest(addr))
}

func (p *Participants) handleEmergencyWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := address(req)
	if err != nil {
		return err
	}
	return p.receipt(w, addr, p.node.EmergencyWithdraw(addr))
}

func (p *Participants) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /participants/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParticipant))
	sub.Path("/{address}/pending").
		Methods(http.MethodGet).
		Name("GET /participants/{address}/pending").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPending))
	sub.Path("/{address}/deposit").
		Methods(http.MethodPost).
		Name("POST /participants/{address}/deposit").
		HandlerFunc(utils.WrapHandlerFunc(p.handleDeposit))
	sub.Path("/{address}/withdraw").
		Methods(http.MethodPost).
		Name("POST /participants/{address}/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(p.handleWithdraw))
	sub.Path("/{address}/harvest").
		Methods(http.MethodPost).
		Name("POST /participants/{address}/harvest").
		HandlerFunc(utils.WrapHandlerFunc(p.handleHarvest))
	sub.Path("/{address}/emergency-withdraw").
		Methods(http.MethodPost).
		Name("POST /participants/{address}/emergency-withdraw").
		HandlerFunc(utils.WrapHandlerFunc(p.handleEmergencyWithdraw))
}
