// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math"
	"math/big"
	"strconv"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/farm/types"
)

// ParseAddress parses a path or query address and rejects malformed input
// with a bad request error naming the parameter.
func ParseAddress(name, s string) (types.Address, error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// ParseUint32 parses an optional decimal query value. An empty string yields def.
func ParseUint32(name, s string, def uint32) (uint32, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return uint32(n), nil
}

// ParseUint64 parses an optional decimal query value. An empty string yields def.
func ParseUint64(name, s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return n, nil
}

// BlockNumber validates a JSON block number against the uint32 range.
func BlockNumber(name string, n uint64) (uint32, error) {
	if n > math.MaxUint32 {
		return 0, BadRequest(errors.Errorf("%s: out of range", name))
	}
	return uint32(n), nil
}

// Amount converts a required JSON amount to a big integer.
func Amount(name string, v *ethmath.HexOrDecimal256) (*big.Int, error) {
	if v == nil {
		return nil, BadRequest(errors.Errorf("%s: required", name))
	}
	return (*big.Int)(v), nil
}

// ToAmount converts a big integer for a JSON response. Nil becomes zero.
func ToAmount(v *big.Int) *ethmath.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*ethmath.HexOrDecimal256)(v)
}
