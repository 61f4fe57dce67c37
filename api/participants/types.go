// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package participants

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/farm/types"
)

// Participant is the stake record of one address.
type Participant struct {
	Address    types.Address         `json:"address"`
	Staked     *math.HexOrDecimal256 `json:"staked"`
	RewardDebt *math.HexOrDecimal256 `json:"rewardDebt"`
	Pending    *math.HexOrDecimal256 `json:"pending"`
}

// Pending is the reward claimable at the current block.
type Pending struct {
	BlockNumber uint32                `json:"blockNumber"`
	Pending     *math.HexOrDecimal256 `json:"pending"`
}

// AmountRequest is the body of deposit and withdraw.
type AmountRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Receipt acknowledges a state changing call.
type Receipt struct {
	BlockNumber uint32                `json:"blockNumber"`
	Staked      *math.HexOrDecimal256 `json:"staked"`
}
