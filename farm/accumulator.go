// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"math/big"
)

// Precision is the scale of the accumulator, i.e. the reward earned per staked unit.
const Precision = 1e18

var precision = big.NewInt(Precision)

// Schedule is the global emission state of the ledger.
type Schedule struct {
	RewardRate       *big.Int // reward units emitted per block
	StartBlock       uint32
	EndBlock         uint32
	LastSettledBlock uint32
	Accumulator      *big.Int // reward per staked unit since inception, scaled by Precision
}

// EffectiveBlocks returns how many blocks of [from, to) fall inside the emission
// window that closes at end.
func EffectiveBlocks(from, to, end uint32) uint32 {
	if to <= from {
		return 0
	}
	if to <= end {
		return to - from
	}
	if from >= end {
		return 0
	}
	return end - from
}

// accrue returns the accumulator and the last settled block as of block current,
// given the staked balance held by the ledger. The schedule itself is not modified.
func (s *Schedule) accrue(current uint32, totalStaked *big.Int) (*big.Int, uint32) {
	acc := new(big.Int).Set(s.Accumulator)
	if current <= s.LastSettledBlock {
		return acc, s.LastSettledBlock
	}
	// nothing staked, the span is forfeited
	if totalStaked.Sign() == 0 {
		return acc, current
	}

	blocks := EffectiveBlocks(s.LastSettledBlock, current, s.EndBlock)
	reward := new(big.Int).Mul(new(big.Int).SetUint64(uint64(blocks)), s.RewardRate)
	if reward.Sign() > 0 {
		reward.Mul(reward, precision)
		acc.Add(acc, reward.Quo(reward, totalStaked))
	}

	// once the window is over the settled block stays where it is
	if s.LastSettledBlock <= s.EndBlock {
		return acc, current
	}
	return acc, s.LastSettledBlock
}

// Participant is the record of one depositor.
type Participant struct {
	Staked     *big.Int // staked units credited to the participant
	RewardDebt *big.Int // Staked * Accumulator / Precision at the last settlement
}

func (p *Participant) normalize() *Participant {
	if p.Staked == nil {
		p.Staked = new(big.Int)
	}
	if p.RewardDebt == nil {
		p.RewardDebt = new(big.Int)
	}
	return p
}

// accrued returns Staked * acc / Precision.
func (p *Participant) accrued(acc *big.Int) *big.Int {
	v := new(big.Int).Mul(p.Staked, acc)
	return v.Quo(v, precision)
}

// pending returns the reward owed against the given accumulator.
func (p *Participant) pending(acc *big.Int) (*big.Int, error) {
	v := p.accrued(acc)
	v.Sub(v, p.RewardDebt)
	if v.Sign() < 0 {
		return nil, ErrInvariantViolation
	}
	return v, nil
}

// checkpoint prices the current accumulator into the reward debt.
func (p *Participant) checkpoint(acc *big.Int) {
	p.RewardDebt = p.accrued(acc)
}
