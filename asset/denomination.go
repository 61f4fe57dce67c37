// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal amount such as "12.5" into base units.
func ParseAmount(decimals uint8, amount string) (*big.Int, error) {
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.WithMessage(err, "parse amount")
	}
	if v.IsNegative() {
		return nil, errors.New("parse amount: negative")
	}

	// Multiply to get the number of base units.
	baseUnits := v.Mul(decimal.New(1, int32(decimals)))
	if !baseUnits.Equal(baseUnits.Truncate(0)) {
		return nil, errors.Errorf("parse amount: more than %d decimals", decimals)
	}
	return baseUnits.BigInt(), nil
}

// FormatAmount formats base units with the given number of decimals.
func FormatAmount(decimals uint8, amount *big.Int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// WholeUnits truncates base units to whole tokens.
func WholeUnits(decimals uint8, amount *big.Int) *big.Int {
	return decimal.NewFromBigInt(amount, -int32(decimals)).Truncate(0).BigInt()
}

// Format formats base units as a token denomination, e.g. "12.5 VET".
func (t *Token) Format(amount *big.Int) string {
	return fmt.Sprintf("%s %s", FormatAmount(t.info.Decimals, amount), t.info.Symbol)
}
