// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/metrics"
)

var (
	metricLedgerCalls    = metrics.LazyLoadCounterVec("ledger_calls_count", []string{"op", "status"})
	metricLedgerDuration = metrics.LazyLoadHistogramVec("ledger_call_duration_ms", []string{"op"}, metrics.Bucket10s)
	metricBestBlock      = metrics.LazyLoadGauge("chain_best_block")
	metricTotalStaked    = metrics.LazyLoadGauge("ledger_total_staked_tokens")
	metricEvents         = metrics.LazyLoadCounterVec("ledger_events_count", []string{"kind"})
)

// stakedGauge returns total in whole tokens, or false if that does not fit a gauge.
func stakedGauge(total *big.Int, decimals uint8) (int64, bool) {
	whole := asset.WholeUnits(decimals, total)
	if !whole.IsInt64() {
		return 0, false
	}
	return whole.Int64(), true
}
