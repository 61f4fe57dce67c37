// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node hosts a farm: it owns the state, serialises every call into the ledger,
// produces blocks and indexes the emitted events.
package node

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/farm/access"
	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/reverts"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var logger = log.WithContext("pkg", "node")

// ErrGenesisMismatch is returned when the data dir was created from another genesis.
var ErrGenesisMismatch = errors.New("genesis mismatch")

// TokenKind names one of the two farm tokens.
type TokenKind string

const (
	StakedToken TokenKind = "staked"
	RewardToken TokenKind = "reward"
)

// Status is a snapshot of the farm.
type Status struct {
	Genesis      string
	GenesisID    types.Bytes32
	BestBlock    uint32
	Admin        types.Address
	Ledger       types.Address
	Paused       bool
	TotalStaked  *big.Int
	Schedule     *farm.Schedule
	StateEntries int
}

type Node struct {
	mu sync.Mutex

	st        *state.State
	chain     *Chain
	gen       *genesis.Genesis
	genesisID types.Bytes32
	staked    *asset.Token
	reward    *asset.Token
	gate      *access.Gate
	ledger    *farm.Ledger
	eventDB   *eventdb.EventDB

	emitted []*farm.Event
	feed    event.Feed
}

// New opens the farm kept in store. An empty store is initialized from gen.
func New(store kv.Store, eventDB *eventdb.EventDB, gen *genesis.Genesis) (*Node, error) {
	genesisID, err := gen.ID()
	if err != nil {
		return nil, errors.WithMessage(err, "genesis id")
	}
	st := state.New(store)
	if err := bootstrap(st, gen, genesisID); err != nil {
		return nil, err
	}

	chain, err := newChain(st)
	if err != nil {
		return nil, err
	}
	n := &Node{
		st:        st,
		chain:     chain,
		gen:       gen,
		genesisID: genesisID,
		staked:    asset.New(gen.Staked.Address, gen.Staked.Info, st),
		reward:    asset.New(gen.Reward.Address, gen.Reward.Info, st),
		gate:      access.New(gen.Ledger, st),
		eventDB:   eventDB,
	}
	n.ledger = farm.New(gen.Ledger, st, farm.Collaborators{
		Staked:  n.staked.Bind(gen.Ledger),
		Reward:  n.reward.Bind(gen.Ledger),
		Admin:   n.gate,
		Pause:   n.gate,
		Clock:   chain,
		Emitter: farm.EmitterFunc(func(ev *farm.Event) { n.emitted = append(n.emitted, ev) }),
	})
	metricBestBlock().Set(int64(chain.CurrentBlock()))

	logger.Info("farm opened", "genesis", gen.Name, "id", genesisID, "best", chain.CurrentBlock())
	return n, nil
}

func bootstrap(st *state.State, gen *genesis.Genesis, id types.Bytes32) error {
	meta := state.NewContext(metaAddress, st)
	stored, err := st.GetStorage(meta.Address(), slotGenesisID)
	if err != nil {
		return err
	}
	if len(stored) > 0 {
		if types.BytesToBytes32(stored) != id {
			return errors.WithMessagef(ErrGenesisMismatch, "want %v, found %v", id, types.BytesToBytes32(stored))
		}
		return nil
	}

	if err := gen.Build(st); err != nil {
		st.Discard()
		return errors.WithMessage(err, "build genesis")
	}
	st.SetStorage(meta.Address(), slotGenesisID, id.Bytes())
	if err := st.Commit(); err != nil {
		return err
	}
	logger.Info("genesis initialized", "name", gen.Name, "id", id)
	return nil
}

// Chain returns the block clock.
func (n *Node) Chain() *Chain {
	return n.chain
}

// Genesis returns the genesis document the farm was created from.
func (n *Node) Genesis() *genesis.Genesis {
	return n.gen
}

// execute runs fn against the state as one atomic call. Effects of a failed call are
// dropped. Events of a successful call are indexed and published.
func (n *Node) execute(op string, fn func() error) error {
	start := time.Now()
	n.mu.Lock()

	n.emitted = nil
	if err := fn(); err != nil {
		n.st.Discard()
		n.mu.Unlock()

		status := "error"
		if reverts.IsRevertErr(err) {
			status = "reverted"
		}
		metricLedgerCalls().AddWithLabel(1, map[string]string{"op": op, "status": status})
		return err
	}
	if err := n.st.Commit(); err != nil {
		n.st.Discard()
		n.mu.Unlock()
		logger.Error("failed to commit state", "op", op, "err", err)
		metricLedgerCalls().AddWithLabel(1, map[string]string{"op": op, "status": "error"})
		return errors.WithMessage(err, "commit")
	}

	events := n.index(n.emitted)
	n.emitted = nil
	n.updateGauges()
	n.mu.Unlock()

	metricLedgerCalls().AddWithLabel(1, map[string]string{"op": op, "status": "ok"})
	metricLedgerDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	if len(events) > 0 {
		n.feed.Send(events)
	}
	return nil
}

// index writes events to the event db. The state is committed at this point, so a
// failure here is logged and does not fail the call.
func (n *Node) index(emitted []*farm.Event) []*eventdb.Event {
	if len(emitted) == 0 {
		return nil
	}
	block := n.chain.CurrentBlock()
	events := make([]*eventdb.Event, 0, len(emitted))
	for _, ev := range emitted {
		events = append(events, &eventdb.Event{
			Kind:        string(ev.Kind),
			Participant: ev.Participant,
			Amount:      ev.Amount,
			Harvested:   ev.Harvested,
			RewardRate:  ev.RewardRate,
			EndBlock:    ev.EndBlock,
		})
		metricEvents().AddWithLabel(1, map[string]string{"kind": string(ev.Kind)})
	}

	w := n.eventDB.NewWriter()
	w.Write(block, events)
	if err := w.Commit(); err != nil {
		logger.Error("failed to index events", "block", block, "count", len(events), "err", err)
	}
	for _, ev := range events {
		ev.BlockNumber = block
	}
	return events
}

func (n *Node) updateGauges() {
	total, err := n.ledger.TotalStaked()
	if err != nil {
		logger.Warn("failed to read total staked", "err", err)
		return
	}
	v, ok := stakedGauge(total, n.staked.Info().Decimals)
	if !ok {
		logger.Warn("total staked out of gauge range", "total", n.staked.Format(total))
		return
	}
	metricTotalStaked().Set(v)
}

// Mint produces the next block.
func (n *Node) Mint() (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	num := n.chain.mint()
	if err := n.st.Commit(); err != nil {
		n.st.Discard()
		return 0, errors.WithMessage(err, "mint")
	}
	n.chain.advance(num)
	metricBestBlock().Set(int64(num))
	logger.Debug("block minted", "number", num)
	return num, nil
}

// Run produces a block every interval until ctx is done. With interval zero blocks
// are minted on demand only.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		logger.Info("on-demand block production")
		<-ctx.Done()
		return nil
	}
	logger.Info("block production started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("block production stopped", "best", n.chain.CurrentBlock())
			return nil
		case <-ticker.C:
			if _, err := n.Mint(); err != nil {
				return err
			}
		}
	}
}

// SubscribeEvents delivers the events of every successful call to ch.
func (n *Node) SubscribeEvents(ch chan<- []*eventdb.Event) event.Subscription {
	return n.feed.Subscribe(ch)
}

// Events queries the event index.
func (n *Node) Events(ctx context.Context, filter *eventdb.Filter) ([]*eventdb.Event, error) {
	return n.eventDB.Filter(ctx, filter)
}

//
// ledger calls
//

func (n *Node) Deposit(caller types.Address, amount *big.Int) error {
	return n.execute("deposit", func() error { return n.ledger.Deposit(caller, amount) })
}

func (n *Node) Withdraw(caller types.Address, amount *big.Int) error {
	return n.execute("withdraw", func() error { return n.ledger.Withdraw(caller, amount) })
}

func (n *Node) Harvest(caller types.Address) error {
	return n.execute("harvest", func() error { return n.ledger.Harvest(caller) })
}

func (n *Node) EmergencyWithdraw(caller types.Address) error {
	return n.execute("emergency_withdraw", func() error { return n.ledger.EmergencyWithdraw(caller) })
}

func (n *Node) UpdateSchedule(caller types.Address, rewardRate *big.Int, endBlock uint32) error {
	return n.execute("update_schedule", func() error { return n.ledger.UpdateSchedule(caller, rewardRate, endBlock) })
}

func (n *Node) WithdrawReward(caller types.Address, amount *big.Int) error {
	return n.execute("withdraw_reward", func() error { return n.ledger.WithdrawReward(caller, amount) })
}

func (n *Node) Pause(caller types.Address) error {
	return n.execute("pause", func() error { return n.ledger.Pause(caller) })
}

func (n *Node) Unpause(caller types.Address) error {
	return n.execute("unpause", func() error { return n.ledger.Unpause(caller) })
}

func (n *Node) TransferOwnership(caller, newOwner types.Address) error {
	return n.execute("transfer_ownership", func() error { return n.gate.TransferOwnership(caller, newOwner) })
}

//
// reads
//

func (n *Node) read(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

func (n *Node) Schedule() (sched *farm.Schedule, err error) {
	err = n.read(func() error {
		sched, err = n.ledger.Schedule()
		return err
	})
	return
}

func (n *Node) Participant(addr types.Address) (p *farm.Participant, err error) {
	err = n.read(func() error {
		p, err = n.ledger.Participant(addr)
		return err
	})
	return
}

func (n *Node) PendingRewards(addr types.Address) (pending *big.Int, err error) {
	err = n.read(func() error {
		pending, err = n.ledger.PendingRewards(addr)
		return err
	})
	return
}

func (n *Node) TotalStaked() (total *big.Int, err error) {
	err = n.read(func() error {
		total, err = n.ledger.TotalStaked()
		return err
	})
	return
}

func (n *Node) Paused() (paused bool, err error) {
	err = n.read(func() error {
		paused, err = n.ledger.Paused()
		return err
	})
	return
}

func (n *Node) Owner() (owner types.Address, err error) {
	err = n.read(func() error {
		owner, err = n.gate.Owner()
		return err
	})
	return
}

// Token returns the token of the given kind, nil if kind is unknown.
func (n *Node) Token(kind TokenKind) *asset.Token {
	switch kind {
	case StakedToken:
		return n.staked
	case RewardToken:
		return n.reward
	}
	return nil
}

// Balance returns the balance of addr in the token of the given kind.
func (n *Node) Balance(kind TokenKind, addr types.Address) (bal *big.Int, err error) {
	tok := n.Token(kind)
	if tok == nil {
		return nil, errors.Errorf("unknown token %q", kind)
	}
	err = n.read(func() error {
		bal, err = tok.BalanceOf(addr)
		return err
	})
	return
}

// Supply returns the total supply of the token of the given kind.
func (n *Node) Supply(kind TokenKind) (supply *big.Int, err error) {
	tok := n.Token(kind)
	if tok == nil {
		return nil, errors.Errorf("unknown token %q", kind)
	}
	err = n.read(func() error {
		supply, err = tok.TotalSupply()
		return err
	})
	return
}

// Status returns a snapshot of the farm.
func (n *Node) Status() (*Status, error) {
	s := &Status{
		Genesis:   n.gen.Name,
		GenesisID: n.genesisID,
		Ledger:    n.ledger.Address(),
	}
	err := n.read(func() error {
		var err error
		s.BestBlock = n.chain.CurrentBlock()
		if s.Admin, err = n.gate.Owner(); err != nil {
			return err
		}
		if s.Paused, err = n.ledger.Paused(); err != nil {
			return err
		}
		if s.TotalStaked, err = n.ledger.TotalStaked(); err != nil {
			return err
		}
		if s.Schedule, err = n.ledger.Schedule(); err != nil {
			return err
		}
		s.StateEntries, err = n.st.Size()
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
