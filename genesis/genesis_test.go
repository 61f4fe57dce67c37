// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/access"
	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/state"
	"github.com/vechain/farm/types"
)

const customGenesis = `
name: custom
admin: "0x000000000000000000000000000000000000a11c"
ledger: "0x00000000000000000000000000000000000f4a7e"
staked:
  name: LP token
  symbol: LP
  decimals: 6
  address: "0x0000000000000000000000000000000000000001"
  allocations:
    - address: "0x0000000000000000000000000000000000000b0b"
      amount: "100.5"
reward:
  name: Reward
  symbol: RWD
  decimals: 18
  address: "0x0000000000000000000000000000000000000002"
  allocations:
    - address: "0x00000000000000000000000000000000000f4a7e"
      amount: "5000"
schedule:
  rewardRate: "0.5"
  startBlock: 10
  endBlock: 110
`

func newState(t *testing.T) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db)
}

func TestParseAndBuild(t *testing.T) {
	gen, err := genesis.Parse([]byte(customGenesis))
	require.NoError(t, err)
	assert.Equal(t, "custom", gen.Name)
	assert.Equal(t, uint8(6), gen.Staked.Decimals)
	assert.Equal(t, "LP", gen.Staked.Symbol)

	st := newState(t)
	require.NoError(t, gen.Build(st))
	require.NoError(t, st.Commit())

	lp := asset.New(gen.Staked.Address, gen.Staked.Info, st)
	bal, err := lp.BalanceOf(types.MustParseAddress("0x0000000000000000000000000000000000000b0b"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_500_000), bal)

	rwd := asset.New(gen.Reward.Address, gen.Reward.Info, st)
	reserve, err := rwd.BalanceOf(gen.Ledger)
	require.NoError(t, err)
	assert.Equal(t, "5000", asset.FormatAmount(18, reserve))

	owner, err := access.New(gen.Ledger, st).Owner()
	require.NoError(t, err)
	assert.Equal(t, gen.Admin, owner)

	sched, err := farm.New(gen.Ledger, st, farm.Collaborators{}).Schedule()
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", sched.RewardRate.String())
	assert.Equal(t, uint32(10), sched.StartBlock)
	assert.Equal(t, uint32(110), sched.EndBlock)
	assert.Equal(t, uint32(10), sched.LastSettledBlock)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customGenesis), 0o600))

	gen, err := genesis.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", gen.Name)

	_, err = genesis.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(g *genesis.Genesis)
	}{
		{"no admin", func(g *genesis.Genesis) { g.Admin = types.Address{} }},
		{"no ledger", func(g *genesis.Genesis) { g.Ledger = types.Address{} }},
		{"same token", func(g *genesis.Genesis) { g.Reward.Address = g.Staked.Address }},
		{"token at ledger", func(g *genesis.Genesis) { g.Staked.Address = g.Ledger }},
		{"no symbol", func(g *genesis.Genesis) { g.Reward.Symbol = "" }},
		{"bad amount", func(g *genesis.Genesis) { g.Staked.Allocations[0].Amount = "lots" }},
		{"too precise", func(g *genesis.Genesis) { g.Staked.Allocations[0].Amount = "0.0000001" }},
		{"negative", func(g *genesis.Genesis) { g.Staked.Allocations[0].Amount = "-1" }},
		{"zero address", func(g *genesis.Genesis) { g.Staked.Allocations[0].Address = types.Address{} }},
		{"bad rate", func(g *genesis.Genesis) { g.Schedule.RewardRate = "" }},
		{"empty window", func(g *genesis.Genesis) { g.Schedule.EndBlock = g.Schedule.StartBlock }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := genesis.Parse([]byte(customGenesis))
			require.NoError(t, err)
			tt.modify(gen)
			assert.Error(t, gen.Validate())
			assert.Error(t, gen.Build(newState(t)))
		})
	}
}

func TestUnknownField(t *testing.T) {
	_, err := genesis.Parse([]byte(customGenesis + "extra: 1\n"))
	assert.Error(t, err)
}

func TestDevnet(t *testing.T) {
	gen := genesis.NewDevnet()
	require.NoError(t, gen.Validate())
	assert.Len(t, genesis.DevAccounts(), 5)
	assert.Equal(t, genesis.DevAccounts()[0].Address, gen.Admin)

	data, err := gen.Encode()
	require.NoError(t, err)
	decoded, err := genesis.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, gen, decoded)

	id1, err := gen.ID()
	require.NoError(t, err)
	id2, err := decoded.ID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	st := newState(t)
	require.NoError(t, gen.Build(st))
	tok := asset.New(gen.Staked.Address, gen.Staked.Info, st)
	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "5000000", asset.FormatAmount(18, supply))
}
