// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a rejection of a call caused by its caller: bad input, missing
// permission or the wrong operational state. A reverted call leaves no effect.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInvalidAmount       = New("invalid amount")
	ErrInsufficientBalance = New("insufficient staked balance")
	ErrNoPendingReward     = New("no pending reward")
	ErrZeroBalance         = New("nothing staked")
	ErrInvalidWindow       = New("invalid emission window")
	ErrUnauthorized        = New("caller is not the admin")
	ErrNotPaused           = New("ledger is not paused")
	ErrAlreadyPaused       = New("ledger is paused")
	ErrTransferFailed      = New("asset transfer failed")
	ErrReentrantCall       = New("reentrant call")
	ErrLedgerCaller        = New("ledger account cannot participate")
)
