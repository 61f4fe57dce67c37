// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/access"
	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/reverts"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

var (
	admin  = types.BytesToAddress([]byte("admin"))
	alice  = types.BytesToAddress([]byte("alice"))
	bob    = types.BytesToAddress([]byte("bob"))
	carol  = types.BytesToAddress([]byte("carol"))
	ledger = types.BytesToAddress([]byte("ledger"))
)

type testClock struct {
	block uint32
}

func (c *testClock) CurrentBlock() uint32 { return c.block }

type testEnv struct {
	t      *testing.T
	st     *state.State
	clock  *testClock
	staked *asset.Token
	reward *asset.Token
	gate   *access.Gate
	ledger *Ledger
	events []*Event
}

func newTestEnv(t *testing.T, rate int64, start, end uint32) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		t:     t,
		st:    state.New(db),
		clock: &testClock{},
	}
	env.staked = asset.New(types.BytesToAddress([]byte("lp")), asset.Info{Name: "LP", Symbol: "LP", Decimals: 18}, env.st)
	env.reward = asset.New(types.BytesToAddress([]byte("rwd")), asset.Info{Name: "Reward", Symbol: "RWD", Decimals: 18}, env.st)
	env.gate = access.New(ledger, env.st)
	env.gate.Initialize(admin)
	env.ledger = New(ledger, env.st, Collaborators{
		Staked:  env.staked.Bind(ledger),
		Reward:  env.reward.Bind(ledger),
		Admin:   env.gate,
		Pause:   env.gate,
		Clock:   env.clock,
		Emitter: EmitterFunc(func(ev *Event) { env.events = append(env.events, ev) }),
	})
	require.NoError(t, env.ledger.Initialize(big.NewInt(rate), start, end))

	for _, addr := range []types.Address{alice, bob, carol} {
		require.NoError(t, env.staked.Mint(addr, big.NewInt(1_000_000)))
	}
	require.NoError(t, env.reward.Mint(ledger, big.NewInt(1_000_000_000)))
	require.NoError(t, env.st.Commit())
	return env
}

func (env *testEnv) at(block uint32) *testEnv {
	env.clock.block = block
	return env
}

func (env *testEnv) pending(addr types.Address) int64 {
	v, err := env.ledger.PendingRewards(addr)
	require.NoError(env.t, err)
	return v.Int64()
}

func (env *testEnv) rewardOf(addr types.Address) int64 {
	v, err := env.reward.BalanceOf(addr)
	require.NoError(env.t, err)
	return v.Int64()
}

func (env *testEnv) stakedOf(addr types.Address) int64 {
	v, err := env.staked.BalanceOf(addr)
	require.NoError(env.t, err)
	return v.Int64()
}

func (env *testEnv) participant(addr types.Address) *Participant {
	p, err := env.ledger.Participant(addr)
	require.NoError(env.t, err)
	return p
}

func (env *testEnv) schedule() *Schedule {
	s, err := env.ledger.Schedule()
	require.NoError(env.t, err)
	return s
}

func TestEffectiveBlocks(t *testing.T) {
	tests := []struct {
		from, to, end uint32
		want          uint32
	}{
		{50, 80, 100, 30},
		{50, 150, 100, 50},
		{150, 200, 100, 0},
		{100, 150, 100, 0},
		{50, 100, 100, 50},
		{80, 80, 100, 0},
		{90, 80, 100, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveBlocks(tt.from, tt.to, tt.end), "from=%d to=%d end=%d", tt.from, tt.to, tt.end)
	}
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	sched := env.schedule()
	assert.Equal(t, big.NewInt(5), sched.RewardRate)
	assert.Equal(t, uint32(10), sched.StartBlock)
	assert.Equal(t, uint32(110), sched.EndBlock)
	assert.Equal(t, uint32(10), sched.LastSettledBlock)
	assert.Equal(t, 0, sched.Accumulator.Sign())

	assert.ErrorIs(t, env.ledger.Initialize(big.NewInt(1), 10, 10), reverts.ErrInvalidWindow)
	assert.ErrorIs(t, env.ledger.Initialize(big.NewInt(-1), 10, 20), reverts.ErrInvalidAmount)
}

func TestSingleParticipant(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	assert.Equal(t, int64(250), env.at(60).pending(alice))

	// the whole window goes to the only participant
	assert.Equal(t, int64(500), env.at(110).pending(alice))
	assert.Equal(t, int64(500), env.at(200).pending(alice))

	require.NoError(t, env.ledger.Withdraw(alice, big.NewInt(1000)))
	assert.Equal(t, int64(500), env.rewardOf(alice))
	assert.Equal(t, int64(1_000_000), env.stakedOf(alice))
	assert.Equal(t, int64(0), env.pending(alice))
}

func TestTwoParticipants(t *testing.T) {
	env := newTestEnv(t, 10, 10, 210)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.at(60).ledger.Deposit(bob, big.NewInt(1000)))

	env.at(110)
	assert.Equal(t, int64(750), env.pending(alice))
	assert.Equal(t, int64(250), env.pending(bob))

	require.NoError(t, env.ledger.Harvest(alice))
	require.NoError(t, env.ledger.Harvest(bob))
	assert.Equal(t, int64(750), env.rewardOf(alice))
	assert.Equal(t, int64(250), env.rewardOf(bob))
	assert.Equal(t, int64(100*10), env.rewardOf(alice)+env.rewardOf(bob))
}

func TestDepositPaysPending(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.at(30).ledger.Deposit(alice, big.NewInt(500)))
	assert.Equal(t, int64(100), env.rewardOf(alice))
	assert.Equal(t, int64(0), env.pending(alice))

	p := env.participant(alice)
	assert.Equal(t, big.NewInt(1500), p.Staked)
	assert.Equal(t, big.NewInt(150), p.RewardDebt)

	require.Len(t, env.events, 2)
	assert.Equal(t, &Event{Kind: EventDeposit, Participant: alice, Amount: big.NewInt(500), Harvested: big.NewInt(100)}, env.events[1])
}

func TestDepositInvalid(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)
	env.at(10)

	assert.ErrorIs(t, env.ledger.Deposit(alice, big.NewInt(0)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, env.ledger.Deposit(alice, big.NewInt(-1)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, env.ledger.Deposit(alice, nil), reverts.ErrInvalidAmount)

	err := env.ledger.Deposit(alice, big.NewInt(2_000_000))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.True(t, reverts.IsRevertErr(err))
	assert.Empty(t, env.events)
}

func TestLedgerCannotParticipate(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	assert.ErrorIs(t, env.ledger.Deposit(ledger, big.NewInt(1000)), reverts.ErrLedgerCaller)
	assert.ErrorIs(t, env.ledger.Withdraw(ledger, big.NewInt(1)), reverts.ErrLedgerCaller)

	total, err := env.ledger.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)
	assert.Zero(t, env.participant(ledger).Staked.Sign())

	// alice keeps the whole emission
	env.at(60)
	assert.Equal(t, int64(250), env.pending(alice))
	assert.Equal(t, int64(0), env.pending(ledger))
	assert.ErrorIs(t, env.ledger.Harvest(ledger), reverts.ErrLedgerCaller)

	require.NoError(t, env.ledger.Pause(admin))
	assert.ErrorIs(t, env.ledger.EmergencyWithdraw(ledger), reverts.ErrLedgerCaller)
	assert.Len(t, env.events, 1)
}

func TestDepositChecksStateBeforeAmount(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)
	require.NoError(t, env.at(10).ledger.Pause(admin))

	assert.ErrorIs(t, env.ledger.Deposit(alice, big.NewInt(0)), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.Withdraw(alice, nil), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.Deposit(ledger, big.NewInt(0)), reverts.ErrLedgerCaller)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))

	env.at(50)
	assert.ErrorIs(t, env.ledger.Withdraw(alice, big.NewInt(0)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, env.ledger.Withdraw(alice, big.NewInt(1001)), reverts.ErrInsufficientBalance)
	assert.ErrorIs(t, env.ledger.Withdraw(bob, big.NewInt(1)), reverts.ErrInsufficientBalance)

	require.NoError(t, env.ledger.Withdraw(alice, big.NewInt(400)))
	assert.Equal(t, int64(200), env.rewardOf(alice))
	assert.Equal(t, int64(1_000_000-600), env.stakedOf(alice))

	p := env.participant(alice)
	assert.Equal(t, big.NewInt(600), p.Staked)
	assert.Equal(t, big.NewInt(120), p.RewardDebt)

	total, err := env.ledger.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), total)

	ev := env.events[len(env.events)-1]
	assert.Equal(t, &Event{Kind: EventWithdraw, Participant: alice, Amount: big.NewInt(400), Harvested: big.NewInt(200)}, ev)
}

func TestHarvest(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	assert.ErrorIs(t, env.at(10).ledger.Harvest(alice), reverts.ErrNoPendingReward)

	require.NoError(t, env.ledger.Deposit(alice, big.NewInt(1000)))
	assert.ErrorIs(t, env.ledger.Harvest(alice), reverts.ErrNoPendingReward)

	require.NoError(t, env.at(20).ledger.Harvest(alice))
	assert.Equal(t, int64(50), env.rewardOf(alice))
	assert.Equal(t, int64(0), env.pending(alice))
	assert.Equal(t, big.NewInt(1000), env.participant(alice).Staked)

	ev := env.events[len(env.events)-1]
	assert.Equal(t, &Event{Kind: EventHarvest, Participant: alice, Harvested: big.NewInt(50)}, ev)
}

func TestNothingStakedIsForfeited(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(50).ledger.Deposit(alice, big.NewInt(1000)))
	sched := env.schedule()
	assert.Equal(t, uint32(50), sched.LastSettledBlock)
	assert.Equal(t, 0, sched.Accumulator.Sign())

	assert.Equal(t, int64(50), env.at(60).pending(alice))
}

func TestEmergencyWithdraw(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	env.at(50)
	assert.ErrorIs(t, env.ledger.EmergencyWithdraw(alice), reverts.ErrNotPaused)

	require.NoError(t, env.ledger.Pause(admin))
	assert.ErrorIs(t, env.ledger.EmergencyWithdraw(bob), reverts.ErrZeroBalance)

	accBefore := env.schedule().Accumulator
	require.NoError(t, env.ledger.EmergencyWithdraw(alice))
	assert.Equal(t, int64(1_000_000), env.stakedOf(alice))
	assert.Equal(t, int64(0), env.rewardOf(alice))
	assert.Equal(t, int64(0), env.pending(alice))

	p := env.participant(alice)
	assert.Equal(t, 0, p.Staked.Sign())
	assert.Equal(t, 0, p.RewardDebt.Sign())
	// not settled
	sched := env.schedule()
	assert.Equal(t, accBefore, sched.Accumulator)
	assert.Equal(t, uint32(10), sched.LastSettledBlock)

	ev := env.events[len(env.events)-1]
	assert.Equal(t, &Event{Kind: EventEmergencyWithdraw, Participant: alice, Amount: big.NewInt(1000)}, ev)

	// a fresh deposit starts from the current accumulator
	require.NoError(t, env.ledger.Unpause(admin))
	require.NoError(t, env.at(60).ledger.Deposit(alice, big.NewInt(100)))
	assert.Equal(t, int64(0), env.rewardOf(alice))
	assert.Equal(t, int64(0), env.pending(alice))
	assert.Equal(t, int64(50), env.at(70).pending(alice))
}

func TestPauseGatesOperations(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	assert.ErrorIs(t, env.ledger.Pause(alice), reverts.ErrUnauthorized)
	assert.ErrorIs(t, env.ledger.Unpause(admin), reverts.ErrNotPaused)
	require.NoError(t, env.ledger.Pause(admin))
	assert.ErrorIs(t, env.ledger.Pause(admin), reverts.ErrAlreadyPaused)

	paused, err := env.ledger.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	env.at(20)
	assert.ErrorIs(t, env.ledger.Deposit(alice, big.NewInt(1)), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.Withdraw(alice, big.NewInt(1)), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.Harvest(alice), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.UpdateSchedule(admin, big.NewInt(1), 200), reverts.ErrAlreadyPaused)
	assert.ErrorIs(t, env.ledger.WithdrawReward(admin, big.NewInt(1)), reverts.ErrAlreadyPaused)

	// pausing does not touch the accumulator
	assert.Equal(t, uint32(10), env.schedule().LastSettledBlock)
	require.NoError(t, env.ledger.Unpause(admin))
	assert.Equal(t, int64(50), env.pending(alice))
}

func TestUpdateSchedule(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))

	env.at(50)
	assert.ErrorIs(t, env.ledger.UpdateSchedule(alice, big.NewInt(10), 200), reverts.ErrUnauthorized)
	assert.ErrorIs(t, env.ledger.UpdateSchedule(admin, big.NewInt(10), 50), reverts.ErrInvalidWindow)
	assert.ErrorIs(t, env.ledger.UpdateSchedule(admin, big.NewInt(-1), 200), reverts.ErrInvalidAmount)
	// failed updates leave the settlement untouched
	assert.Equal(t, uint32(10), env.schedule().LastSettledBlock)

	require.NoError(t, env.ledger.UpdateSchedule(admin, big.NewInt(10), 200))
	sched := env.schedule()
	assert.Equal(t, big.NewInt(10), sched.RewardRate)
	assert.Equal(t, uint32(200), sched.EndBlock)
	assert.Equal(t, uint32(50), sched.LastSettledBlock)

	// old rate before the update, new rate after
	assert.Equal(t, int64(40*5+50*10), env.at(100).pending(alice))

	ev := env.events[len(env.events)-1]
	assert.Equal(t, &Event{Kind: EventScheduleUpdated, RewardRate: big.NewInt(10), EndBlock: 200}, ev)
}

func TestUpdateScheduleBeforeStart(t *testing.T) {
	env := newTestEnv(t, 5, 100, 200)

	env.at(20)
	assert.ErrorIs(t, env.ledger.UpdateSchedule(admin, big.NewInt(10), 100), reverts.ErrInvalidWindow)
	require.NoError(t, env.ledger.UpdateSchedule(admin, big.NewInt(10), 150))

	sched := env.schedule()
	assert.Equal(t, uint32(100), sched.LastSettledBlock)
	assert.Equal(t, uint32(150), sched.EndBlock)
}

func TestExtendClosedWindow(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))

	// settled past the end: the settled block moves one last time, then freezes
	require.NoError(t, env.at(120).ledger.Harvest(alice))
	assert.Equal(t, int64(500), env.rewardOf(alice))
	sched := env.schedule()
	assert.Equal(t, uint32(120), sched.LastSettledBlock)
	frozenAcc := sched.Accumulator

	assert.ErrorIs(t, env.at(150).ledger.Harvest(alice), reverts.ErrNoPendingReward)
	require.NoError(t, env.ledger.Deposit(bob, big.NewInt(1000)))
	sched = env.schedule()
	assert.Equal(t, uint32(120), sched.LastSettledBlock)
	assert.Equal(t, frozenAcc, sched.Accumulator)

	require.NoError(t, env.ledger.UpdateSchedule(admin, big.NewInt(10), 300))
	assert.Equal(t, uint32(120), env.schedule().LastSettledBlock)

	// accrual resumes from the frozen block at the new rate, shared by both stakes
	env.at(200)
	assert.Equal(t, int64(80*10/2), env.pending(alice))
	assert.Equal(t, int64(80*10/2), env.pending(bob))

	require.NoError(t, env.ledger.Harvest(alice))
	assert.Equal(t, uint32(200), env.schedule().LastSettledBlock)
	assert.Equal(t, int64(400+50*10/2), env.at(250).pending(bob))
}

func TestExtendWindowSettledAtEnd(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.at(110).ledger.Harvest(alice))
	assert.Equal(t, uint32(110), env.schedule().LastSettledBlock)

	// the settled block sits on the end, so the update settles up to the call
	require.NoError(t, env.at(150).ledger.UpdateSchedule(admin, big.NewInt(10), 300))
	assert.Equal(t, uint32(150), env.schedule().LastSettledBlock)
	assert.Equal(t, int64(500), env.at(200).pending(alice))
}

func TestWithdrawReward(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)
	env.at(10)

	assert.ErrorIs(t, env.ledger.WithdrawReward(alice, big.NewInt(1)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, env.ledger.WithdrawReward(admin, big.NewInt(0)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, env.ledger.WithdrawReward(admin, big.NewInt(2_000_000_000)), reverts.ErrTransferFailed)

	require.NoError(t, env.ledger.WithdrawReward(admin, big.NewInt(1000)))
	assert.Equal(t, int64(1000), env.rewardOf(admin))

	require.Len(t, env.events, 1)
	assert.Equal(t, &Event{Kind: EventAdminRewardWithdraw, Amount: big.NewInt(1000)}, env.events[0])
}

func TestFailedPayoutIsAtomic(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.ledger.WithdrawReward(admin, big.NewInt(1_000_000_000-10)))
	events := len(env.events)

	// 250 owed, 10 held
	env.at(60)
	before := env.schedule()
	err := env.ledger.Deposit(alice, big.NewInt(100))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.ErrorIs(t, env.ledger.Withdraw(alice, big.NewInt(100)), reverts.ErrTransferFailed)
	assert.ErrorIs(t, env.ledger.Harvest(alice), reverts.ErrTransferFailed)

	assert.Equal(t, before, env.schedule())
	assert.Equal(t, big.NewInt(1000), env.participant(alice).Staked)
	assert.Equal(t, int64(1_000_000-1000), env.stakedOf(alice))
	assert.Equal(t, int64(0), env.rewardOf(alice))
	assert.Equal(t, int64(250), env.pending(alice))
	assert.Len(t, env.events, events)
}

// reentrantAsset calls back into the ledger from inside a transfer.
type reentrantAsset struct {
	Asset
	callback func() error
	err      error
}

func (a *reentrantAsset) PullFrom(owner types.Address, amount *big.Int) error {
	a.err = a.callback()
	return a.Asset.PullFrom(owner, amount)
}

func (a *reentrantAsset) PushTo(recipient types.Address, amount *big.Int) error {
	a.err = a.callback()
	return a.Asset.PushTo(recipient, amount)
}

func TestReentrantCall(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	evil := &reentrantAsset{Asset: env.staked.Bind(ledger)}
	l := New(ledger, env.st, Collaborators{
		Staked: evil,
		Reward: env.reward.Bind(ledger),
		Admin:  env.gate,
		Pause:  env.gate,
		Clock:  env.clock,
	})
	evil.callback = func() error { return l.Withdraw(alice, big.NewInt(1)) }

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, l.Deposit(alice, big.NewInt(10)))
	assert.ErrorIs(t, evil.err, reverts.ErrReentrantCall)
	assert.Equal(t, big.NewInt(1010), env.participant(alice).Staked)

	// the guard is released on every exit path
	evil.callback = func() error { return l.Harvest(alice) }
	assert.ErrorIs(t, l.Deposit(alice, big.NewInt(0)), reverts.ErrInvalidAmount)
	require.NoError(t, env.at(20).ledger.Harvest(alice))
	require.NoError(t, l.Withdraw(alice, big.NewInt(10)))
	assert.ErrorIs(t, evil.err, reverts.ErrReentrantCall)
}

func TestPendingIsReadOnly(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.st.Commit())

	assert.Equal(t, int64(250), env.at(60).pending(alice))
	assert.False(t, env.st.Dirty())
	assert.Equal(t, uint32(10), env.schedule().LastSettledBlock)
}

func TestAccumulatorScale(t *testing.T) {
	env := newTestEnv(t, 5, 10, 110)

	require.NoError(t, env.at(10).ledger.Deposit(alice, big.NewInt(1000)))
	require.NoError(t, env.at(11).ledger.Harvest(alice))
	assert.Equal(t, big.NewInt(5*Precision/1000), env.schedule().Accumulator)
}

func TestNegativePendingIsReported(t *testing.T) {
	p := &Participant{Staked: big.NewInt(10), RewardDebt: big.NewInt(11)}
	_, err := p.pending(precision)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.False(t, reverts.IsRevertErr(err))
}
