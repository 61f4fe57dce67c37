// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/vechain/farm/co"
)

type BlockProduction struct {
	BestBlock          uint32     `json:"bestBlock"`
	BestBlockTimestamp *time.Time `json:"bestBlockTimestamp"`
}

type Status struct {
	Healthy         bool             `json:"healthy"`
	OnDemand        bool             `json:"onDemand"`
	BlockProduction *BlockProduction `json:"blockProduction"`
}

// Health tracks block production. With a zero tolerance blocks are minted on
// demand and the node is always reported healthy.
type Health struct {
	lock         sync.RWMutex
	tolerance    time.Duration
	bestBlock    uint32
	newBestBlock time.Time
}

func New(tolerance time.Duration) *Health {
	return &Health{tolerance: tolerance, newBestBlock: time.Now()}
}

func (h *Health) NewBestBlock(num uint32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newBestBlock = time.Now()
	h.bestBlock = num
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ts := h.newBestBlock
	onDemand := h.tolerance <= 0
	return &Status{
		Healthy:  onDemand || time.Since(ts) <= h.tolerance,
		OnDemand: onDemand,
		BlockProduction: &BlockProduction{
			BestBlock:          h.bestBlock,
			BestBlockTimestamp: &ts,
		},
	}
}

// Chain is the block source watched by Health.
type Chain interface {
	CurrentBlock() uint32
	NewBlockWaiter() co.Waiter
}

// Watch records every new best block of chain until ctx is done.
func (h *Health) Watch(ctx context.Context, chain Chain) error {
	waiter := chain.NewBlockWaiter()
	h.NewBestBlock(chain.CurrentBlock())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-waiter.C():
			h.NewBestBlock(chain.CurrentBlock())
		}
	}
}
