// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/types"
)

// DevAccount is a pre-funded account of the devnet.
type DevAccount struct {
	Address    types.Address
	PrivateKey *ecdsa.PrivateKey
}

var DevAccounts = sync.OnceValue(func() []DevAccount {
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	accs := make([]DevAccount, 0, len(privKeys))
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{types.Address(crypto.PubkeyToAddress(pk.PublicKey)), pk})
	}
	return accs
})

var (
	DevLedger      = types.BytesToAddress([]byte("farm-ledger"))
	DevStakedToken = types.BytesToAddress([]byte("farm-staked"))
	DevRewardToken = types.BytesToAddress([]byte("farm-reward"))
)

// NewDevnet returns the genesis used when no genesis file is given. The first dev
// account is the administrator, every dev account holds staked tokens and the
// ledger holds the reward reserve.
func NewDevnet() *Genesis {
	staked := Token{
		Info:    asset.Info{Name: "Staked VET", Symbol: "sVET", Decimals: 18},
		Address: DevStakedToken,
	}
	for _, acc := range DevAccounts() {
		staked.Allocations = append(staked.Allocations, Allocation{Address: acc.Address, Amount: "1000000"})
	}
	return &Genesis{
		Name:   "devnet",
		Admin:  DevAccounts()[0].Address,
		Ledger: DevLedger,
		Staked: staked,
		Reward: Token{
			Info:        asset.Info{Name: "Farm Reward", Symbol: "FRM", Decimals: 18},
			Address:     DevRewardToken,
			Allocations: []Allocation{{Address: DevLedger, Amount: "10000000"}},
		},
		Schedule: Schedule{
			RewardRate: "10",
			StartBlock: 1,
			EndBlock:   1_000_000,
		},
	}
}
