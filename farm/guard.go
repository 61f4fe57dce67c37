// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import "github.com/vechain/farm/reverts"

// guard rejects a mutating call made while another one is still executing on the
// same ledger, e.g. from an asset calling back into the ledger during a transfer.
type guard struct {
	entered bool
}

// enter engages the guard. The returned release must be called on every exit path.
func (g *guard) enter() (release func(), err error) {
	if g.entered {
		return nil, reverts.ErrReentrantCall
	}
	g.entered = true
	return func() { g.entered = false }, nil
}
