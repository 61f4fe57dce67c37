// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/types"
)

// Event is an indexed ledger event. Fields not carried by a kind are omitted.
type Event struct {
	BlockNumber uint32                `json:"blockNumber"`
	Index       uint32                `json:"index"`
	Kind        string                `json:"kind"`
	Participant types.Address         `json:"participant"`
	Amount      *math.HexOrDecimal256 `json:"amount,omitempty"`
	Harvested   *math.HexOrDecimal256 `json:"harvested,omitempty"`
	RewardRate  *math.HexOrDecimal256 `json:"rewardRate,omitempty"`
	EndBlock    uint32                `json:"endBlock,omitempty"`
}

func optional(v *math.HexOrDecimal256, present bool) *math.HexOrDecimal256 {
	if !present {
		return nil
	}
	return v
}

// ConvertEvent converts an event db row for the wire.
func ConvertEvent(ev *eventdb.Event) *Event {
	return &Event{
		BlockNumber: ev.BlockNumber,
		Index:       ev.Index,
		Kind:        ev.Kind,
		Participant: ev.Participant,
		Amount:      optional(utils.ToAmount(ev.Amount), ev.Amount != nil),
		Harvested:   optional(utils.ToAmount(ev.Harvested), ev.Harvested != nil),
		RewardRate:  optional(utils.ToAmount(ev.RewardRate), ev.RewardRate != nil),
		EndBlock:    ev.EndBlock,
	}
}
