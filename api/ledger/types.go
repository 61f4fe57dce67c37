// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/farm/types"
)

// Schedule is the emission schedule and settlement state.
type Schedule struct {
	RewardRate       *math.HexOrDecimal256 `json:"rewardRate"`
	StartBlock       uint32                `json:"startBlock"`
	EndBlock         uint32                `json:"endBlock"`
	LastSettledBlock uint32                `json:"lastSettledBlock"`
	Accumulator      *math.HexOrDecimal256 `json:"accumulator"`
}

// Ledger is the response of GET /ledger.
type Ledger struct {
	Address      types.Address         `json:"address"`
	Genesis      string                `json:"genesis"`
	GenesisID    string                `json:"genesisID"`
	BestBlock    uint32                `json:"bestBlock"`
	Admin        types.Address         `json:"admin"`
	Paused       bool                  `json:"paused"`
	TotalStaked  *math.HexOrDecimal256 `json:"totalStaked"`
	Schedule     Schedule              `json:"schedule"`
	StateEntries int                   `json:"stateEntries"`
}

// ScheduleRequest updates the reward rate and end block.
type ScheduleRequest struct {
	Caller     types.Address         `json:"caller"`
	RewardRate *math.HexOrDecimal256 `json:"rewardRate"`
	EndBlock   uint64                `json:"endBlock"`
}

// RewardWithdrawRequest moves unallocated reward tokens to the admin.
type RewardWithdrawRequest struct {
	Caller types.Address         `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// CallerRequest carries only the calling address.
type CallerRequest struct {
	Caller types.Address `json:"caller"`
}

// OwnerRequest hands the admin role to a new owner.
type OwnerRequest struct {
	Caller   types.Address `json:"caller"`
	NewOwner types.Address `json:"newOwner"`
}

// Receipt acknowledges a state changing call.
type Receipt struct {
	BlockNumber uint32 `json:"blockNumber"`
}
