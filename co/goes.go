// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small concurrency helpers.
package co

import (
	"context"
	"sync"
)

// Goes runs go routines and waits for them.
type Goes struct {
	wg sync.WaitGroup
}

// Go runs f in a go routine.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// GoContext runs f in a go routine bound to ctx.
func (g *Goes) GoContext(ctx context.Context, f func(ctx context.Context)) {
	g.Go(func() { f(ctx) })
}

// Wait blocks until every go routine started by Go has returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed once every go routine has returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}
