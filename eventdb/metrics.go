// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/vechain/farm/metrics"
)

var (
	metricEventsWritten  = metrics.LazyLoadCounterVec("eventdb_events_written_count", []string{"kind"})
	metricQueryOrder     = metrics.LazyLoadCounterVec("eventdb_query_order_count", []string{"order"})
	metricQueryLimitSize = metrics.LazyLoadHistogramVec("eventdb_query_limit_bucket", []string{"order"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
)

func metricsHandleFilter(filter *Filter) {
	if metrics.NoOp() {
		return
	}
	order := string(ASC)
	if filter.Order == DESC {
		order = string(DESC)
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"order": order})
	if filter.Options != nil {
		limit := filter.Options.Limit
		if limit > 1000 {
			limit = 1001
		}
		metricQueryLimitSize().ObserveWithLabels(int64(limit), map[string]string{"order": order})
	}
}
