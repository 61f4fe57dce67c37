// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/vechain/farm/types"
)

// Event is a ledger event as stored in the db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	Kind        string
	Participant types.Address
	Amount      *big.Int
	Harvested   *big.Int
	RewardRate  *big.Int
	EndBlock    uint32
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive block range. To below From means no upper bound.
type Range struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events. Nil fields match everything.
type Filter struct {
	Participant *types.Address `json:"participant"`
	Kinds       []string       `json:"kinds"`
	Range       *Range         `json:"range"`
	Order       Order          `json:"order"`
	Options     *Options       `json:"options"`
}

func bigValue(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	if v.Sign() == 0 {
		return []byte{0}
	}
	return v.Bytes()
}

func bigFrom(b []byte) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).SetBytes(b)
}
