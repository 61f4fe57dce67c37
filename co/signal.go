// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides the channel to wait on.
type Waiter interface {
	C() <-chan struct{}
}

// Signal announces the occurrence of an event to every goroutine waiting for it.
// Unlike sync.Cond it is channel based, so waiting can be combined with select.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *Signal) current() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes all goroutines waiting on s.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	close(s.current())
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// NewWaiter returns a waiter fired by the next broadcast. Once fired, the waiter
// rearms itself for the broadcast after that.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	ref := s.current()
	s.mu.Unlock()

	return waiterFunc(func() <-chan struct{} {
		ch := ref
		select {
		case <-ch:
			s.mu.Lock()
			ref = s.current()
			s.mu.Unlock()
		default:
		}
		return ch
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} {
	return w()
}
