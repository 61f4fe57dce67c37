// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/node"
)

// Admin serves the admin gated ledger calls. The caller is taken from the
// request body and checked by the ledger itself.
type Admin struct {
	node *node.Node
}

func NewAdmin(n *node.Node) *Admin {
	return &Admin{n}
}

func (a *Admin) receipt(w http.ResponseWriter, err error) error {
	if err != nil {
		return utils.Reverted(err)
	}
	return utils.WriteJSON(w, &Receipt{BlockNumber: a.node.Chain().CurrentBlock()})
}

func (a *Admin) handleUpdateSchedule(w http.ResponseWriter, req *http.Request) error {
	var body ScheduleRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	rate, err := utils.Amount("rewardRate", body.RewardRate)
	if err != nil {
		return err
	}
	end, err := utils.BlockNumber("endBlock", body.EndBlock)
	if err != nil {
		return err
	}
	return a.receipt(w, a.node.UpdateSchedule(body.Caller, rate, end))
}

func (a *Admin) handleWithdrawReward(w http.ResponseWriter, req *http.Request) error {
	var body RewardWithdrawRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := utils.Amount("amount", body.Amount)
	if err != nil {
		return err
	}
	return a.receipt(w, a.node.WithdrawReward(body.Caller, amount))
}

func (a *Admin) handlePause(w http.ResponseWriter, req *http.Request) error {
	var body CallerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return a.receipt(w, a.node.Pause(body.Caller))
}

func (a *Admin) handleUnpause(w http.ResponseWriter, req *http.Request) error {
	var body CallerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return a.receipt(w, a.node.Unpause(body.Caller))
}

func (a *Admin) handleTransferOwnership(w http.ResponseWriter, req *http.Request) error {
	var body OwnerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.NewOwner.IsZero() {
		return utils.BadRequest(errors.New("newOwner: required"))
	}
	return a.receipt(w, a.node.TransferOwnership(body.Caller, body.NewOwner))
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/schedule").
		Methods(http.MethodPost).
		Name("POST /admin/schedule").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUpdateSchedule))
	sub.Path("/reward-withdraw").
		Methods(http.MethodPost).
		Name("POST /admin/reward-withdraw").
		HandlerFunc(utils.WrapHandlerFunc(a.handleWithdrawReward))
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /admin/pause").
		HandlerFunc(utils.WrapHandlerFunc(a.handlePause))
	sub.Path("/unpause").
		Methods(http.MethodPost).
		Name("POST /admin/unpause").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnpause))
	sub.Path("/owner").
		Methods(http.MethodPost).
		Name("POST /admin/owner").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransferOwnership))
}
