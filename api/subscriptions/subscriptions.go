// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/farm/api/events"
	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/co"
	"github.com/vechain/farm/eventdb"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/node"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10

	// Pending batches buffered per subscriber before the node blocks on it.
	eventBuffer = 64
)

// Block is pushed to block subscribers whenever the best block advances.
type Block struct {
	Number uint32 `json:"number"`
}

type Subscriptions struct {
	node     *node.Node
	upgrader *websocket.Upgrader
	done     chan struct{}
	goes     co.Goes
}

// New creates the websocket API. Browser origins are checked against
// allowedOrigins, "*" allows all of them.
func New(n *node.Node, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		node: n,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == u.Hostname() || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// setupConn upgrades the request and starts a reader which keeps the read
// deadline fresh on pongs. The returned channel is closed once the peer is gone.
func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	s.goes.Go(func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read", "err", err)
				return
			}
		}
	})
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	var msg []byte
	if err != nil {
		msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		msg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.Debug("failed to send close message", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("failed to close websocket", "err", err)
	}
}

func (s *Subscriptions) write(conn *websocket.Conn, msg any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (s *Subscriptions) ping(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// match applies the participant and kind parts of a filter to a live event.
func match(filter *eventdb.Filter, ev *eventdb.Event) bool {
	if filter.Participant != nil && *filter.Participant != ev.Participant {
		return false
	}
	if len(filter.Kinds) == 0 {
		return true
	}
	for _, k := range filter.Kinds {
		if k == ev.Kind {
			return true
		}
	}
	return false
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := events.ParseQuery(req)
	if err != nil {
		return err
	}

	// subscribe before the upgrade so nothing emitted after the handshake is missed
	ch := make(chan []*eventdb.Event, eventBuffer)
	sub := s.node.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	conn, closed, err := s.setupConn(w, req)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}

	err = s.pipeEvents(conn, filter, ch, sub.Err(), closed)
	s.closeConn(conn, err)
	return nil
}

func (s *Subscriptions) pipeEvents(
	conn *websocket.Conn,
	filter *eventdb.Filter,
	ch <-chan []*eventdb.Event,
	subErr <-chan error,
	closed <-chan struct{},
) error {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case err := <-subErr:
			return err
		case batch := <-ch:
			for _, ev := range batch {
				if !match(filter, ev) {
					continue
				}
				if err := s.write(conn, events.ConvertEvent(ev)); err != nil {
					return err
				}
			}
		case <-pingTicker.C:
			if err := s.ping(conn); err != nil {
				return err
			}
		}
	}
}

func (s *Subscriptions) handleSubscribeBlocks(w http.ResponseWriter, req *http.Request) error {
	conn, closed, err := s.setupConn(w, req)
	if err != nil {
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	err = s.pipeBlocks(conn, closed)
	s.closeConn(conn, err)
	return nil
}

func (s *Subscriptions) pipeBlocks(conn *websocket.Conn, closed <-chan struct{}) error {
	chain := s.node.Chain()
	waiter := chain.NewBlockWaiter()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	if err := s.write(conn, &Block{Number: chain.CurrentBlock()}); err != nil {
		return err
	}
	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-waiter.C():
			if err := s.write(conn, &Block{Number: chain.CurrentBlock()}); err != nil {
				return err
			}
		case <-pingTicker.C:
			if err := s.ping(conn); err != nil {
				return err
			}
		}
	}
}

// Close disconnects every subscriber and waits for their readers to exit.
func (s *Subscriptions) Close() {
	close(s.done)
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
	sub.Path("/blocks").
		Methods(http.MethodGet).
		Name("WS /subscriptions/blocks").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeBlocks))
}
