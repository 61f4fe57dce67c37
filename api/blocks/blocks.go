// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/node"
)

// Block is a block height.
type Block struct {
	Number uint32 `json:"number"`
}

type Blocks struct {
	node     *node.Node
	onDemand bool
}

// New creates the blocks API. Minting over http is only allowed in
// on-demand mode, where no producer loop owns the clock.
func New(n *node.Node, onDemand bool) *Blocks {
	return &Blocks{n, onDemand}
}

func (b *Blocks) handleGetBest(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &Block{Number: b.node.Chain().CurrentBlock()})
}

func (b *Blocks) handleMint(w http.ResponseWriter, _ *http.Request) error {
	if !b.onDemand {
		return utils.Forbidden(errors.New("blocks are produced on an interval"))
	}
	num, err := b.node.Mint()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Block{Number: num})
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/best").
		Methods(http.MethodGet).
		Name("GET /blocks/best").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBest))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /blocks").
		HandlerFunc(utils.WrapHandlerFunc(b.handleMint))
}
