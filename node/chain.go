// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"sync/atomic"

	"github.com/vechain/farm/co"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var (
	metaAddress   = types.BytesToAddress([]byte("farm-meta"))
	slotBestBlock = state.SlotOf("best-block")
	slotGenesisID = state.SlotOf("genesis-id")
)

// Chain is the block clock of the farm. Blocks carry no payload: a block is only a
// step of the clock the ledger accrues against.
type Chain struct {
	best     *state.Uint32
	current  atomic.Uint32
	newBlock co.Signal
}

func newChain(st *state.State) (*Chain, error) {
	c := &Chain{best: state.NewUint32(state.NewContext(metaAddress, st), slotBestBlock)}
	n, err := c.best.Get()
	if err != nil {
		return nil, err
	}
	c.current.Store(n)
	return c, nil
}

// CurrentBlock returns the best block number.
func (c *Chain) CurrentBlock() uint32 {
	return c.current.Load()
}

// NewBlockWaiter returns a waiter fired whenever a block is minted.
func (c *Chain) NewBlockWaiter() co.Waiter {
	return c.newBlock.NewWaiter()
}

// mint writes the next block number. The caller commits the state and then
// calls advance.
func (c *Chain) mint() uint32 {
	n := c.current.Load() + 1
	c.best.Set(n)
	return n
}

func (c *Chain) advance(n uint32) {
	c.current.Store(n)
	c.newBlock.Broadcast()
}
