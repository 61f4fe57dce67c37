// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/node"
	"github.com/vechain/farm/types"
)

// Token describes the staked or reward token.
type Token struct {
	Kind        string                `json:"kind"`
	Address     types.Address         `json:"address"`
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	Decimals    uint8                 `json:"decimals"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// Balance is the holding of one address, raw and in token units.
type Balance struct {
	Address   types.Address         `json:"address"`
	Balance   *math.HexOrDecimal256 `json:"balance"`
	Formatted string                `json:"formatted"`
}

type Tokens struct {
	node *node.Node
}

func New(n *node.Node) *Tokens {
	return &Tokens{n}
}

func (t *Tokens) kind(req *http.Request) (node.TokenKind, error) {
	kind := node.TokenKind(mux.Vars(req)["kind"])
	if t.node.Token(kind) == nil {
		return "", utils.NotFound(errors.Errorf("unknown token %q", kind))
	}
	return kind, nil
}

func (t *Tokens) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	kind, err := t.kind(req)
	if err != nil {
		return err
	}
	tok := t.node.Token(kind)
	supply, err := t.node.Supply(kind)
	if err != nil {
		return err
	}
	info := tok.Info()
	return utils.WriteJSON(w, &Token{
		Kind:        string(kind),
		Address:     tok.Address(),
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: utils.ToAmount(supply),
	})
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	kind, err := t.kind(req)
	if err != nil {
		return err
	}
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	bal, err := t.node.Balance(kind, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{
		Address:   addr,
		Balance:   utils.ToAmount(bal),
		Formatted: t.node.Token(kind).Format(bal),
	})
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{kind}").
		Methods(http.MethodGet).
		Name("GET /tokens/{kind}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetToken))
	sub.Path("/{kind}/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/{kind}/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
}
