// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/farm/log"
	"github.com/vechain/farm/reverts"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var (
	logger = log.WithContext("pkg", "asset")

	slotTotalSupply = state.SlotOf("total-supply")
	slotBalances    = state.SlotOf("balances")

	// ErrInsufficientFunds is returned when the debited account holds less than the amount.
	ErrInsufficientFunds = reverts.New("insufficient funds")
	errNegativeAmount    = reverts.New("negative amount")
)

// Info describes a token.
type Info struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// Token is a fungible token kept in the farm state.
type Token struct {
	info        Info
	ctx         *state.Context
	totalSupply *state.Uint256
	balances    *state.Mapping[types.Address, *big.Int]
}

// New creates a token stored under addr.
func New(addr types.Address, info Info, st *state.State) *Token {
	ctx := state.NewContext(addr, st)
	return &Token{
		info:        info,
		ctx:         ctx,
		totalSupply: state.NewUint256(ctx, slotTotalSupply),
		balances:    state.NewMapping[types.Address, *big.Int](ctx, slotBalances),
	}
}

// Address returns the token account.
func (t *Token) Address() types.Address {
	return t.ctx.Address()
}

// Info returns the token description.
func (t *Token) Info() Info {
	return t.info
}

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr types.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s balance of %v", t.info.Symbol, addr)
	}
	return bal, nil
}

func (t *Token) setBalance(addr types.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Set(addr, bal)
}

// Mint credits amount to the given account, growing the total supply.
func (t *Token) Mint(to types.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return errors.WithMessage(err, "mint")
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	return t.setBalance(to, bal.Add(bal, amount))
}

// Transfer moves amount from one account to another. It either moves exactly
// amount or fails without touching any balance.
func (t *Token) Transfer(from, to types.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		logger.Debug("transfer rejected", "token", t.info.Symbol, "from", from, "balance", fromBal, "amount", amount)
		return ErrInsufficientFunds
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.setBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.setBalance(to, toBal.Add(toBal, amount))
}

// Bind returns the view of the token held by holder.
func (t *Token) Bind(holder types.Address) *Holding {
	return &Holding{token: t, holder: holder}
}

// Holding is the token balance of one holder, seen from the holder's side.
type Holding struct {
	token  *Token
	holder types.Address
}

// Token returns the underlying token.
func (h *Holding) Token() *Token {
	return h.token
}

// PullFrom debits owner and credits the holder.
func (h *Holding) PullFrom(owner types.Address, amount *big.Int) error {
	return h.token.Transfer(owner, h.holder, amount)
}

// PushTo credits recipient from the holder's balance.
func (h *Holding) PushTo(recipient types.Address, amount *big.Int) error {
	return h.token.Transfer(h.holder, recipient, amount)
}

// Balance returns what the holder owns.
func (h *Holding) Balance() (*big.Int, error) {
	return h.token.BalanceOf(h.holder)
}
