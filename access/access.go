// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package access keeps the administrator of the farm and its pause switch.
package access

import (
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/reverts"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var (
	logger = log.WithContext("pkg", "access")

	slotOwner  = state.SlotOf("owner")
	slotPaused = state.SlotOf("paused")
)

// Gate implements the admin gate and the pause gate of the ledger.
type Gate struct {
	owner  *state.Address
	paused *state.Bool
}

// New creates the gate stored under addr.
func New(addr types.Address, st *state.State) *Gate {
	ctx := state.NewContext(addr, st)
	return &Gate{
		owner:  state.NewAddress(ctx, slotOwner),
		paused: state.NewBool(ctx, slotPaused),
	}
}

// Owner returns the administrator.
func (g *Gate) Owner() (types.Address, error) {
	return g.owner.Get()
}

// Initialize sets the first administrator. Used at genesis only.
func (g *Gate) Initialize(owner types.Address) {
	g.owner.Set(owner)
}

// IsAdmin returns whether caller is the administrator.
func (g *Gate) IsAdmin(caller types.Address) (bool, error) {
	owner, err := g.owner.Get()
	if err != nil {
		return false, err
	}
	return !owner.IsZero() && owner == caller, nil
}

func (g *Gate) requireAdmin(caller types.Address) error {
	ok, err := g.IsAdmin(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrUnauthorized
	}
	return nil
}

// TransferOwnership hands the administrator role over.
func (g *Gate) TransferOwnership(caller, newOwner types.Address) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.New("new owner is the zero address")
	}
	g.owner.Set(newOwner)
	logger.Info("ownership transferred", "from", caller, "to", newOwner)
	return nil
}

// IsPaused returns whether the ledger is in the paused state.
func (g *Gate) IsPaused() (bool, error) {
	return g.paused.Get()
}

// Pause moves the ledger from Active to Paused.
func (g *Gate) Pause(caller types.Address) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	paused, err := g.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrAlreadyPaused
	}
	g.paused.Set(true)
	logger.Info("paused", "by", caller)
	return nil
}

// Unpause moves the ledger from Paused back to Active.
func (g *Gate) Unpause(caller types.Address) error {
	if err := g.requireAdmin(caller); err != nil {
		return err
	}
	paused, err := g.paused.Get()
	if err != nil {
		return err
	}
	if !paused {
		return reverts.ErrNotPaused
	}
	g.paused.Set(false)
	logger.Info("unpaused", "by", caller)
	return nil
}
