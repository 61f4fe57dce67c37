// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package farm implements the reward ledger: depositors stake one asset and accrue
// another, block by block, pro rata to their share of the total stake.
//
// Rewards are settled lazily through a global accumulator of reward per staked unit.
// Every participant carries a reward debt, the part of the accumulator already priced
// in, so a settlement never has to visit other participants.
package farm

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/farm/log"
	"github.com/vechain/farm/reverts"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var (
	logger = log.WithContext("pkg", "farm")

	slotRewardRate   = state.SlotOf("reward-rate")
	slotStartBlock   = state.SlotOf("start-block")
	slotEndBlock     = state.SlotOf("end-block")
	slotLastSettled  = state.SlotOf("last-settled-block")
	slotAccumulator  = state.SlotOf("accumulator")
	slotParticipants = state.SlotOf("participants")

	ErrInvariantViolation = errors.New("invariant violation: negative pending reward")
)

// Asset is the ledger's view of a transferable asset held by the ledger.
type Asset interface {
	// PullFrom debits owner and credits the ledger.
	PullFrom(owner types.Address, amount *big.Int) error
	// PushTo credits recipient from the ledger's balance.
	PushTo(recipient types.Address, amount *big.Int) error
	// Balance returns the amount held by the ledger.
	Balance() (*big.Int, error)
}

// AdminGate tells whether a caller is the administrator.
type AdminGate interface {
	IsAdmin(caller types.Address) (bool, error)
}

// PauseGate holds the operational state of the ledger.
type PauseGate interface {
	IsPaused() (bool, error)
	Pause(caller types.Address) error
	Unpause(caller types.Address) error
}

// Clock returns the current block height. It never goes backwards.
type Clock interface {
	CurrentBlock() uint32
}

// Collaborators are the external capabilities the ledger relies on.
type Collaborators struct {
	Staked  Asset
	Reward  Asset
	Admin   AdminGate
	Pause   PauseGate
	Clock   Clock
	Emitter Emitter
}

// Ledger is the reward ledger.
type Ledger struct {
	ctx *state.Context

	rewardRate   *state.Uint256
	startBlock   *state.Uint32
	endBlock     *state.Uint32
	lastSettled  *state.Uint32
	accumulator  *state.Uint256
	participants *state.Mapping[types.Address, *Participant]

	staked  Asset
	reward  Asset
	admin   AdminGate
	pause   PauseGate
	clock   Clock
	emitter Emitter

	guard guard
}

// New creates the ledger stored under addr.
func New(addr types.Address, st *state.State, c Collaborators) *Ledger {
	ctx := state.NewContext(addr, st)
	emitter := c.Emitter
	if emitter == nil {
		emitter = discardEmitter
	}
	return &Ledger{
		ctx:          ctx,
		rewardRate:   state.NewUint256(ctx, slotRewardRate),
		startBlock:   state.NewUint32(ctx, slotStartBlock),
		endBlock:     state.NewUint32(ctx, slotEndBlock),
		lastSettled:  state.NewUint32(ctx, slotLastSettled),
		accumulator:  state.NewUint256(ctx, slotAccumulator),
		participants: state.NewMapping[types.Address, *Participant](ctx, slotParticipants),
		staked:       c.Staked,
		reward:       c.Reward,
		admin:        c.Admin,
		pause:        c.Pause,
		clock:        c.Clock,
		emitter:      emitter,
	}
}

// Address returns the ledger account, the holder of both assets.
func (l *Ledger) Address() types.Address {
	return l.ctx.Address()
}

// Initialize writes the initial emission schedule. Used at genesis only.
func (l *Ledger) Initialize(rewardRate *big.Int, startBlock, endBlock uint32) error {
	if rewardRate == nil || rewardRate.Sign() < 0 {
		return reverts.ErrInvalidAmount
	}
	if endBlock <= startBlock {
		return reverts.ErrInvalidWindow
	}
	if err := l.rewardRate.Set(rewardRate); err != nil {
		return err
	}
	l.startBlock.Set(startBlock)
	l.endBlock.Set(endBlock)
	l.lastSettled.Set(startBlock)
	return l.accumulator.Set(new(big.Int))
}

//
// Getters - no state change
//

// Schedule returns the global emission state.
func (l *Ledger) Schedule() (*Schedule, error) {
	rate, err := l.rewardRate.Get()
	if err != nil {
		return nil, err
	}
	start, err := l.startBlock.Get()
	if err != nil {
		return nil, err
	}
	end, err := l.endBlock.Get()
	if err != nil {
		return nil, err
	}
	last, err := l.lastSettled.Get()
	if err != nil {
		return nil, err
	}
	acc, err := l.accumulator.Get()
	if err != nil {
		return nil, err
	}
	return &Schedule{
		RewardRate:       rate,
		StartBlock:       start,
		EndBlock:         end,
		LastSettledBlock: last,
		Accumulator:      acc,
	}, nil
}

// TotalStaked returns the staked asset held by the ledger.
func (l *Ledger) TotalStaked() (*big.Int, error) {
	total, err := l.staked.Balance()
	if err != nil {
		return nil, errors.WithMessage(err, "total staked")
	}
	return total, nil
}

// Participant returns the record of addr, zero valued if it never deposited.
func (l *Ledger) Participant(addr types.Address) (*Participant, error) {
	p, err := l.participants.Get(addr)
	if err != nil {
		return nil, err
	}
	return p.normalize(), nil
}

// Paused returns whether the ledger is in the paused state.
func (l *Ledger) Paused() (bool, error) {
	return l.pause.IsPaused()
}

// PendingRewards returns the reward addr could harvest at the current block.
func (l *Ledger) PendingRewards(addr types.Address) (*big.Int, error) {
	p, err := l.Participant(addr)
	if err != nil {
		return nil, err
	}
	sched, err := l.Schedule()
	if err != nil {
		return nil, err
	}
	acc := sched.Accumulator
	if current := l.clock.CurrentBlock(); current > sched.LastSettledBlock {
		total, err := l.TotalStaked()
		if err != nil {
			return nil, err
		}
		acc, _ = sched.accrue(current, total)
	}
	pending, err := p.pending(acc)
	if err != nil {
		logger.Error("pending reward", "participant", addr, "error", err)
		return nil, err
	}
	return pending, nil
}

//
// Setters - state change
//

// Deposit stakes amount for caller, paying out what caller had accrued so far.
func (l *Ledger) Deposit(caller types.Address, amount *big.Int) error {
	return l.mutate("deposit", caller, func() ([]*Event, error) {
		if err := l.requireParticipant(caller); err != nil {
			return nil, err
		}
		if err := l.requireActive(); err != nil {
			return nil, err
		}
		if amount == nil || amount.Sign() <= 0 {
			return nil, reverts.ErrInvalidAmount
		}
		acc, err := l.settle()
		if err != nil {
			return nil, err
		}
		p, err := l.Participant(caller)
		if err != nil {
			return nil, err
		}

		harvested := new(big.Int)
		if p.Staked.Sign() > 0 {
			if harvested, err = p.pending(acc); err != nil {
				return nil, err
			}
			if err := l.payReward(caller, harvested); err != nil {
				return nil, err
			}
		}
		if err := l.staked.PullFrom(caller, amount); err != nil {
			return nil, transferFailed(err, "pull stake")
		}

		p.Staked = new(big.Int).Add(p.Staked, amount)
		p.checkpoint(acc)
		if err := l.participants.Set(caller, p); err != nil {
			return nil, err
		}
		return []*Event{{
			Kind:        EventDeposit,
			Participant: caller,
			Amount:      new(big.Int).Set(amount),
			Harvested:   harvested,
		}}, nil
	})
}

// Withdraw returns amount of caller's stake together with the accrued reward.
func (l *Ledger) Withdraw(caller types.Address, amount *big.Int) error {
	return l.mutate("withdraw", caller, func() ([]*Event, error) {
		if err := l.requireParticipant(caller); err != nil {
			return nil, err
		}
		if err := l.requireActive(); err != nil {
			return nil, err
		}
		if amount == nil || amount.Sign() <= 0 {
			return nil, reverts.ErrInvalidAmount
		}
		acc, err := l.settle()
		if err != nil {
			return nil, err
		}
		p, err := l.Participant(caller)
		if err != nil {
			return nil, err
		}
		if amount.Cmp(p.Staked) > 0 {
			return nil, reverts.ErrInsufficientBalance
		}

		harvested, err := p.pending(acc)
		if err != nil {
			return nil, err
		}
		p.Staked = new(big.Int).Sub(p.Staked, amount)
		p.checkpoint(acc)
		if err := l.participants.Set(caller, p); err != nil {
			return nil, err
		}

		if err := l.staked.PushTo(caller, amount); err != nil {
			return nil, transferFailed(err, "return stake")
		}
		if err := l.payReward(caller, harvested); err != nil {
			return nil, err
		}
		return []*Event{{
			Kind:        EventWithdraw,
			Participant: caller,
			Amount:      new(big.Int).Set(amount),
			Harvested:   harvested,
		}}, nil
	})
}

// Harvest pays out caller's accrued reward and leaves the stake untouched.
func (l *Ledger) Harvest(caller types.Address) error {
	return l.mutate("harvest", caller, func() ([]*Event, error) {
		if err := l.requireParticipant(caller); err != nil {
			return nil, err
		}
		if err := l.requireActive(); err != nil {
			return nil, err
		}
		acc, err := l.settle()
		if err != nil {
			return nil, err
		}
		p, err := l.Participant(caller)
		if err != nil {
			return nil, err
		}
		harvested, err := p.pending(acc)
		if err != nil {
			return nil, err
		}
		if harvested.Sign() <= 0 {
			return nil, reverts.ErrNoPendingReward
		}

		p.checkpoint(acc)
		if err := l.participants.Set(caller, p); err != nil {
			return nil, err
		}
		if err := l.payReward(caller, harvested); err != nil {
			return nil, err
		}
		return []*Event{{
			Kind:        EventHarvest,
			Participant: caller,
			Harvested:   harvested,
		}}, nil
	})
}

// EmergencyWithdraw returns caller's whole stake while the ledger is paused.
// Unharvested reward is forfeited and the accumulator is not settled.
func (l *Ledger) EmergencyWithdraw(caller types.Address) error {
	return l.mutate("emergency withdraw", caller, func() ([]*Event, error) {
		if err := l.requireParticipant(caller); err != nil {
			return nil, err
		}
		paused, err := l.pause.IsPaused()
		if err != nil {
			return nil, err
		}
		if !paused {
			return nil, reverts.ErrNotPaused
		}
		p, err := l.Participant(caller)
		if err != nil {
			return nil, err
		}
		if p.Staked.Sign() == 0 {
			return nil, reverts.ErrZeroBalance
		}

		amount := p.Staked
		if err := l.participants.Set(caller, &Participant{Staked: new(big.Int), RewardDebt: new(big.Int)}); err != nil {
			return nil, err
		}
		if err := l.staked.PushTo(caller, amount); err != nil {
			return nil, transferFailed(err, "return stake")
		}
		return []*Event{{
			Kind:        EventEmergencyWithdraw,
			Participant: caller,
			Amount:      amount,
		}}, nil
	})
}

// UpdateSchedule changes the reward rate and the end of the emission window.
// Blocks elapsed so far are settled at the old rate first.
func (l *Ledger) UpdateSchedule(caller types.Address, rewardRate *big.Int, endBlock uint32) error {
	return l.mutate("update schedule", caller, func() ([]*Event, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if err := l.requireActive(); err != nil {
			return nil, err
		}
		if rewardRate == nil || rewardRate.Sign() < 0 {
			return nil, reverts.ErrInvalidAmount
		}
		start, err := l.startBlock.Get()
		if err != nil {
			return nil, err
		}
		current := l.clock.CurrentBlock()
		if current >= start {
			if _, err := l.settle(); err != nil {
				return nil, err
			}
		}
		if endBlock <= current || endBlock <= start {
			return nil, reverts.ErrInvalidWindow
		}

		if err := l.rewardRate.Set(rewardRate); err != nil {
			return nil, err
		}
		l.endBlock.Set(endBlock)
		return []*Event{{
			Kind:       EventScheduleUpdated,
			RewardRate: new(big.Int).Set(rewardRate),
			EndBlock:   endBlock,
		}}, nil
	})
}

// WithdrawReward sends amount of the reward asset to the administrator. Participant
// records are not consulted: the administrator is trusted with the reward reserve.
func (l *Ledger) WithdrawReward(caller types.Address, amount *big.Int) error {
	return l.mutate("withdraw reward", caller, func() ([]*Event, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if err := l.requireActive(); err != nil {
			return nil, err
		}
		if amount == nil || amount.Sign() <= 0 {
			return nil, reverts.ErrInvalidAmount
		}
		if err := l.reward.PushTo(caller, amount); err != nil {
			return nil, transferFailed(err, "withdraw reward")
		}
		return []*Event{{
			Kind:   EventAdminRewardWithdraw,
			Amount: new(big.Int).Set(amount),
		}}, nil
	})
}

// Pause moves the ledger to the paused state.
func (l *Ledger) Pause(caller types.Address) error {
	return l.mutate("pause", caller, func() ([]*Event, error) {
		return nil, l.pause.Pause(caller)
	})
}

// Unpause moves the ledger back to the active state.
func (l *Ledger) Unpause(caller types.Address) error {
	return l.mutate("unpause", caller, func() ([]*Event, error) {
		return nil, l.pause.Unpause(caller)
	})
}

//
// internals
//

// mutate runs fn with the reentrancy guard engaged. Any error reverts every write
// made by fn, transfers included, and nothing is emitted.
func (l *Ledger) mutate(op string, caller types.Address, fn func() ([]*Event, error)) error {
	release, err := l.guard.enter()
	if err != nil {
		logger.Warn(op+" rejected", "caller", caller, "error", err)
		return err
	}
	defer release()

	logger.Debug(op, "caller", caller, "block", l.clock.CurrentBlock())

	st := l.ctx.State()
	checkpoint := st.NewCheckpoint()
	events, err := fn()
	if err != nil {
		st.RevertTo(checkpoint)
		logger.Info(op+" failed", "caller", caller, "error", err)
		return err
	}
	for _, ev := range events {
		l.emitter.Emit(ev)
	}
	return nil
}

// settle brings the accumulator up to the current block and returns it.
func (l *Ledger) settle() (*big.Int, error) {
	sched, err := l.Schedule()
	if err != nil {
		return nil, err
	}
	current := l.clock.CurrentBlock()
	if current <= sched.LastSettledBlock {
		return sched.Accumulator, nil
	}
	total, err := l.TotalStaked()
	if err != nil {
		return nil, err
	}

	acc, settled := sched.accrue(current, total)
	if acc.Cmp(sched.Accumulator) != 0 {
		if err := l.accumulator.Set(acc); err != nil {
			return nil, errors.WithMessage(err, "settle")
		}
	}
	if settled != sched.LastSettledBlock {
		l.lastSettled.Set(settled)
	}
	logger.Trace("settled", "block", current, "settled", settled, "acc", acc, "total", total)
	return acc, nil
}

func (l *Ledger) payReward(to types.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	if err := l.reward.PushTo(to, amount); err != nil {
		return transferFailed(err, "pay reward")
	}
	return nil
}

func (l *Ledger) requireActive() error {
	paused, err := l.pause.IsPaused()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrAlreadyPaused
	}
	return nil
}

// requireParticipant rejects the ledger account itself. Its transfers to itself are
// no-ops, so a stake credited to it would not be backed by the held balance.
func (l *Ledger) requireParticipant(caller types.Address) error {
	if caller == l.Address() {
		return reverts.ErrLedgerCaller
	}
	return nil
}

func (l *Ledger) requireAdmin(caller types.Address) error {
	ok, err := l.admin.IsAdmin(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrUnauthorized
	}
	return nil
}

// transferFailed reports a failed asset transfer. Storage failures of the asset are
// passed through as they are.
func transferFailed(cause error, what string) error {
	if !reverts.IsRevertErr(cause) {
		return errors.WithMessage(cause, what)
	}
	return errors.WithMessagef(reverts.ErrTransferFailed, "%s: %v", what, cause)
}
