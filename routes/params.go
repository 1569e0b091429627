// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"context"
	"fmt"
	"sync"
)

// SlugParam is the name of the route parameter holding the slug.
const SlugParam = "slug"

// Params are the route parameters of a request, keyed by name.  Hosts with
// catch-all routes pass the slug segments joined with "/".  Every route is a
// single segment, so a slug with more than one segment gets a 404.
type Params map[string]string

// ParamsSource supplies the route parameters of a request.  Some hosts have
// them on hand when the handler is called while others deliver them later;
// either way the handler reads them with Await.
type ParamsSource interface {
	// Await blocks until the params are available or ctx is done.
	Await(ctx context.Context) (Params, error)
}

// RouteContext is the per-request context passed to Handler.Handle.
type RouteContext struct {
	// Params supplies the route parameters.  When nil, or when it has no
	// slug, the slug is taken from the request path.
	Params ParamsSource
}

// Resolved is a ParamsSource for params that are already available.
type Resolved Params

// Await implements ParamsSource.Await.
func (r Resolved) Await(_ context.Context) (Params, error) {
	return Params(r), nil
}

// Pending returns a ParamsSource for params delivered on ch.  The first
// value received is kept and returned by every Await; a closed channel
// means the params will never arrive.  Concurrent Awaits don't block each
// other, each one gives up when its own ctx is done.
func Pending(ch <-chan Params) ParamsSource {
	return &pending{ch: ch, done: make(chan struct{})}
}

type pending struct {
	ch <-chan Params

	once   sync.Once
	done   chan struct{}
	params Params
	err    error
}

// Await implements ParamsSource.Await.
func (p *pending) Await(ctx context.Context) (Params, error) {
	const op = "routes.(pending).Await"
	select {
	case <-p.done:
	case params, ok := <-p.ch:
		p.settle(params, ok)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w: %w", op, ErrParamsUnavailable, ctx.Err())
	}
	<-p.done
	return p.params, p.err
}

// settle records the outcome of the first receive from ch.  A receive that
// loses the race to settle is dropped.
func (p *pending) settle(params Params, ok bool) {
	p.once.Do(func() {
		if ok {
			p.params = params
		} else {
			p.err = fmt.Errorf("routes.(pending).Await: channel closed: %w", ErrParamsUnavailable)
		}
		close(p.done)
	})
}
