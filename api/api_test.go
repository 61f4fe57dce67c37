// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/api"
	"github.com/vechain/farm/api/blocks"
	"github.com/vechain/farm/api/events"
	"github.com/vechain/farm/api/ledger"
	"github.com/vechain/farm/api/participants"
	"github.com/vechain/farm/api/subscriptions"
	"github.com/vechain/farm/api/tokens"
	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/genesis"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/node"
)

var (
	admin = genesis.DevAccounts()[0].Address
	alice = genesis.DevAccounts()[1].Address
	bob   = genesis.DevAccounts()[2].Address
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func amount(v *math.HexOrDecimal256) *big.Int {
	return (*big.Int)(v)
}

type testServer struct {
	*httptest.Server
	node *node.Node
}

func newTestServer(t *testing.T, onDemand bool) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	evdb, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { evdb.Close() })

	n, err := node.New(db, evdb, genesis.NewDevnet())
	require.NoError(t, err)

	handler, closeSubs := api.New(n, api.Options{
		AllowedOrigins: "*",
		Timeout:        5 * time.Second,
		OnDemand:       onDemand,
		EnableMetrics:  true,
		EventsLimit:    10,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		srv.Close()
	})
	return &testServer{srv, n}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func (ts *testServer) get(t *testing.T, path string, out any) {
	code, data := ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	require.NoError(t, json.Unmarshal(data, out))
}

func (ts *testServer) post(t *testing.T, path string, body any, out any) {
	code, data := ts.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, code, string(data))
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}

func (ts *testServer) mint(t *testing.T, count int) {
	for i := 0; i < count; i++ {
		ts.post(t, "/blocks", nil, nil)
	}
}

func amountBody(v *big.Int) map[string]string {
	return map[string]string{"amount": v.String()}
}

func TestLedgerAndParticipants(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mint(t, 1)

	var receipt participants.Receipt
	ts.post(t, "/participants/"+alice.String()+"/deposit", amountBody(units(100)), &receipt)
	assert.Equal(t, uint32(1), receipt.BlockNumber)
	assert.Equal(t, units(100), amount(receipt.Staked))

	ts.mint(t, 5)

	var pending participants.Pending
	ts.get(t, "/participants/"+alice.String()+"/pending", &pending)
	assert.Equal(t, uint32(6), pending.BlockNumber)
	assert.Equal(t, units(50), amount(pending.Pending))

	var p participants.Participant
	ts.get(t, "/participants/"+alice.String(), &p)
	assert.Equal(t, alice, p.Address)
	assert.Equal(t, units(100), amount(p.Staked))
	assert.Equal(t, units(50), amount(p.Pending))

	ts.post(t, "/participants/"+alice.String()+"/harvest", nil, nil)
	ts.post(t, "/participants/"+alice.String()+"/withdraw", amountBody(units(40)), &receipt)
	assert.Equal(t, units(60), amount(receipt.Staked))

	var l ledger.Ledger
	ts.get(t, "/ledger", &l)
	assert.Equal(t, genesis.DevLedger, l.Address)
	assert.Equal(t, admin, l.Admin)
	assert.Equal(t, "devnet", l.Genesis)
	assert.Equal(t, uint32(6), l.BestBlock)
	assert.Equal(t, units(60), amount(l.TotalStaked))
	assert.Equal(t, units(10), amount(l.Schedule.RewardRate))
	assert.Equal(t, uint32(6), l.Schedule.LastSettledBlock)

	var sched ledger.Schedule
	ts.get(t, "/ledger/schedule", &sched)
	assert.Equal(t, l.Schedule.EndBlock, sched.EndBlock)

	var bal tokens.Balance
	ts.get(t, "/tokens/reward/"+alice.String(), &bal)
	assert.Equal(t, units(50), amount(bal.Balance))
	assert.Equal(t, "50 FRM", bal.Formatted)
}

func TestParticipantErrors(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mint(t, 1)

	code, _ := ts.do(t, http.MethodGet, "/participants/0x01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/deposit", amountBody(big.NewInt(0)))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid amount", strings.TrimSpace(string(body)))

	code, _ = ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/deposit", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/deposit", map[string]string{"amount": "1", "to": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/harvest", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no pending reward", strings.TrimSpace(string(body)))

	code, _ = ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/withdraw", amountBody(units(1)))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodPost, "/participants/"+alice.String()+"/emergency-withdraw", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ledger is not paused", strings.TrimSpace(string(body)))

	self := genesis.NewDevnet().Ledger
	code, body = ts.do(t, http.MethodPost, "/participants/"+self.String()+"/deposit", amountBody(units(1)))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ledger account cannot participate", strings.TrimSpace(string(body)))
}

func TestAdmin(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mint(t, 1)
	ts.post(t, "/participants/"+bob.String()+"/deposit", amountBody(units(10)), nil)

	code, _ := ts.do(t, http.MethodPost, "/admin/pause", ledger.CallerRequest{Caller: alice})
	assert.Equal(t, http.StatusForbidden, code)

	ts.post(t, "/admin/pause", ledger.CallerRequest{Caller: admin}, nil)
	var l ledger.Ledger
	ts.get(t, "/ledger", &l)
	assert.True(t, l.Paused)

	code, _ = ts.do(t, http.MethodPost, "/participants/"+bob.String()+"/harvest", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	ts.post(t, "/participants/"+bob.String()+"/emergency-withdraw", nil, nil)
	var bal tokens.Balance
	ts.get(t, "/tokens/staked/"+bob.String(), &bal)
	assert.Equal(t, units(1_000_000), amount(bal.Balance))

	ts.post(t, "/admin/unpause", ledger.CallerRequest{Caller: admin}, nil)

	ts.post(t, "/admin/schedule", map[string]any{
		"caller":     admin,
		"rewardRate": "5",
		"endBlock":   500,
	}, nil)
	var sched ledger.Schedule
	ts.get(t, "/ledger/schedule", &sched)
	assert.Equal(t, big.NewInt(5), amount(sched.RewardRate))
	assert.Equal(t, uint32(500), sched.EndBlock)

	code, _ = ts.do(t, http.MethodPost, "/admin/schedule", map[string]any{
		"caller":     admin,
		"rewardRate": "5",
		"endBlock":   1,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	ts.post(t, "/admin/reward-withdraw", map[string]any{"caller": admin, "amount": units(1).String()}, nil)
	ts.get(t, "/tokens/reward/"+admin.String(), &bal)
	assert.Equal(t, units(1), amount(bal.Balance))

	ts.post(t, "/admin/owner", ledger.OwnerRequest{Caller: admin, NewOwner: alice}, nil)
	ts.get(t, "/ledger", &l)
	assert.Equal(t, alice, l.Admin)
}

func TestTokens(t *testing.T) {
	ts := newTestServer(t, true)

	var tok tokens.Token
	ts.get(t, "/tokens/staked", &tok)
	assert.Equal(t, "sVET", tok.Symbol)
	assert.Equal(t, uint8(18), tok.Decimals)
	assert.Equal(t, units(5_000_000), amount(tok.TotalSupply))

	code, _ := ts.do(t, http.MethodGet, "/tokens/lp", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBlocks(t *testing.T) {
	ts := newTestServer(t, true)
	var b blocks.Block
	ts.post(t, "/blocks", nil, &b)
	assert.Equal(t, uint32(1), b.Number)
	ts.get(t, "/blocks/best", &b)
	assert.Equal(t, uint32(1), b.Number)

	interval := newTestServer(t, false)
	code, _ := interval.do(t, http.MethodPost, "/blocks", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mint(t, 1)
	ts.post(t, "/participants/"+alice.String()+"/deposit", amountBody(units(10)), nil)
	ts.post(t, "/participants/"+bob.String()+"/deposit", amountBody(units(10)), nil)
	ts.mint(t, 2)
	ts.post(t, "/participants/"+alice.String()+"/harvest", nil, nil)

	var found []*events.Event
	ts.get(t, "/events", &found)
	require.Len(t, found, 3)
	assert.Equal(t, "Deposit", found[0].Kind)
	assert.Equal(t, uint32(0), found[0].Index)
	assert.Equal(t, uint32(1), found[1].Index)
	assert.Nil(t, found[0].RewardRate)

	ts.get(t, "/events?participant="+alice.String()+"&order=desc", &found)
	require.Len(t, found, 2)
	assert.Equal(t, "Harvest", found[0].Kind)
	assert.Equal(t, uint32(3), found[0].BlockNumber)
	assert.Equal(t, units(10), amount(found[0].Harvested))

	ts.get(t, "/events?kind=Harvest,Withdraw&from=2", &found)
	require.Len(t, found, 1)

	ts.get(t, "/events?from=1&to=1&limit=1", &found)
	require.Len(t, found, 1)

	ts.post(t, "/events", eventdb.Filter{Kinds: []string{"Deposit"}, Order: eventdb.DESC}, &found)
	require.Len(t, found, 2)
	assert.Equal(t, bob, found[0].Participant)

	code, _ := ts.do(t, http.MethodGet, "/events?limit=11", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(t, http.MethodGet, "/events?from=5&to=1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodGet, "/events?order=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func dial(t *testing.T, ts *testServer, path string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, res, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	res.Body.Close()
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestSubscribeEvents(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mint(t, 1)

	conn := dial(t, ts, "/subscriptions/events?participant="+alice.String())
	blocksConn := dial(t, ts, "/subscriptions/blocks")
	var b subscriptions.Block
	require.NoError(t, blocksConn.ReadJSON(&b))
	assert.Equal(t, uint32(1), b.Number)

	ts.post(t, "/participants/"+bob.String()+"/deposit", amountBody(units(1)), nil)
	ts.post(t, "/participants/"+alice.String()+"/deposit", amountBody(units(1)), nil)

	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "Deposit", ev.Kind)
	assert.Equal(t, alice, ev.Participant)
	assert.Equal(t, units(1), amount(ev.Amount))

	ts.mint(t, 1)
	require.NoError(t, blocksConn.ReadJSON(&b))
	assert.Equal(t, uint32(2), b.Number)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, true)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/ledger", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
