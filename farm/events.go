// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"

	"github.com/vechain/farm/types"
)

// EventKind names an observable ledger event.
type EventKind string

const (
	EventDeposit             EventKind = "Deposit"
	EventWithdraw            EventKind = "Withdraw"
	EventHarvest             EventKind = "Harvest"
	EventEmergencyWithdraw   EventKind = "EmergencyWithdraw"
	EventAdminRewardWithdraw EventKind = "AdminRewardWithdraw"
	EventScheduleUpdated     EventKind = "ScheduleUpdated"
)

// Event is emitted for external indexers once a call has fully succeeded.
// Fields not carried by a kind are left nil/zero.
type Event struct {
	Kind        EventKind
	Participant types.Address
	Amount      *big.Int
	Harvested   *big.Int
	RewardRate  *big.Int
	EndBlock    uint32
}

// Emitter receives ledger events.
type Emitter interface {
	Emit(ev *Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ev *Event)

func (f EmitterFunc) Emit(ev *Event) { f(ev) }

var discardEmitter = EmitterFunc(func(*Event) {})
