// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial state of a farm: its tokens, allocations,
// administrator and emission schedule.
package genesis

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/farm/access"
	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

// Allocation credits an account at genesis. Amount is in token units, e.g. "1000.5".
type Allocation struct {
	Address types.Address `yaml:"address"`
	Amount  string        `yaml:"amount"`
}

// Token describes one of the two farm tokens.
type Token struct {
	asset.Info  `yaml:",inline"`
	Address     types.Address `yaml:"address"`
	Allocations []Allocation  `yaml:"allocations"`
}

// Schedule is the initial emission schedule. RewardRate is in reward token units per block.
type Schedule struct {
	RewardRate string `yaml:"rewardRate"`
	StartBlock uint32 `yaml:"startBlock"`
	EndBlock   uint32 `yaml:"endBlock"`
}

// Genesis is the genesis document.
type Genesis struct {
	Name     string        `yaml:"name"`
	Admin    types.Address `yaml:"admin"`
	Ledger   types.Address `yaml:"ledger"`
	Staked   Token         `yaml:"staked"`
	Reward   Token         `yaml:"reward"`
	Schedule Schedule      `yaml:"schedule"`
}

// Load reads the genesis document at path.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes and validates a YAML genesis document. Unknown fields are rejected.
func Parse(data []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Encode returns the YAML form of the document.
func (g *Genesis) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ID identifies the document. A data dir is bound to the genesis it was created with.
func (g *Genesis) ID() (types.Bytes32, error) {
	data, err := g.Encode()
	if err != nil {
		return types.Bytes32{}, err
	}
	return types.Keccak256(data), nil
}

// Validate checks the document without touching any state.
func (g *Genesis) Validate() error {
	if g.Admin.IsZero() {
		return errors.New("admin must be set")
	}
	if g.Ledger.IsZero() {
		return errors.New("ledger address must be set")
	}
	if g.Staked.Address.IsZero() || g.Reward.Address.IsZero() {
		return errors.New("token addresses must be set")
	}
	seen := map[types.Address]string{g.Ledger: "ledger"}
	for name, addr := range map[string]types.Address{"staked token": g.Staked.Address, "reward token": g.Reward.Address} {
		if other, ok := seen[addr]; ok {
			return errors.Errorf("%s address collides with %s", name, other)
		}
		seen[addr] = name
	}
	for _, tok := range []*Token{&g.Staked, &g.Reward} {
		if tok.Symbol == "" {
			return errors.Errorf("token %v: symbol must be set", tok.Address)
		}
		if _, err := tok.amounts(); err != nil {
			return err
		}
	}
	rate, err := asset.ParseAmount(g.Reward.Decimals, g.Schedule.RewardRate)
	if err != nil {
		return errors.WithMessage(err, "schedule reward rate")
	}
	if rate.Sign() < 0 {
		return errors.New("schedule reward rate must not be negative")
	}
	if g.Schedule.EndBlock <= g.Schedule.StartBlock {
		return errors.Errorf("schedule: end block %d must be after start block %d", g.Schedule.EndBlock, g.Schedule.StartBlock)
	}
	return nil
}

func (t *Token) amounts() ([]*big.Int, error) {
	amounts := make([]*big.Int, 0, len(t.Allocations))
	for _, a := range t.Allocations {
		if a.Address.IsZero() {
			return nil, errors.Errorf("%s allocation: address must be set", t.Symbol)
		}
		amount, err := asset.ParseAmount(t.Decimals, a.Amount)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s allocation to %v", t.Symbol, a.Address)
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

// Build writes the genesis state: token allocations, the administrator and the
// emission schedule. The caller commits st.
func (g *Genesis) Build(st *state.State) error {
	if err := g.Validate(); err != nil {
		return err
	}
	for _, tok := range []*Token{&g.Staked, &g.Reward} {
		token := asset.New(tok.Address, tok.Info, st)
		amounts, err := tok.amounts()
		if err != nil {
			return err
		}
		for i, a := range tok.Allocations {
			if err := token.Mint(a.Address, amounts[i]); err != nil {
				return errors.WithMessagef(err, "mint %s", tok.Symbol)
			}
		}
	}

	access.New(g.Ledger, st).Initialize(g.Admin)

	rate, err := asset.ParseAmount(g.Reward.Decimals, g.Schedule.RewardRate)
	if err != nil {
		return err
	}
	ledger := farm.New(g.Ledger, st, farm.Collaborators{})
	if err := ledger.Initialize(rate, g.Schedule.StartBlock, g.Schedule.EndBlock); err != nil {
		return errors.WithMessage(err, "initialize ledger")
	}
	return nil
}
