// Package io holds stream helpers that are missing from the standard library io package.
package io

import (
	"context"
	"io"
	"time"
)

// ReadCloserWithContext binds r to ctx. Every Read fails with ctx.Err() once
// ctx is done, and Close always reaches r.
//
// A read that is already blocked in r is not interrupted by ctx; callers that
// need that must close r. If ctx carries a deadline and r can take a read
// deadline (net.Conn does), the deadline is pushed down to r as well.
// See: https://github.com/golang/go/issues/20280
func ReadCloserWithContext(ctx context.Context, r io.ReadCloser) io.ReadCloser {
	if deadline, ok := ctx.Deadline(); ok {
		if d, ok := r.(readDeadliner); ok {
			_ = d.SetReadDeadline(deadline)
		}
	}
	return &contextReadCloser{ctx: ctx, rc: r}
}

type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

type contextReadCloser struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (c *contextReadCloser) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.rc.Read(p)
	if err != nil {
		return n, err
	}
	return n, c.ctx.Err()
}

func (c *contextReadCloser) Close() error {
	return c.rc.Close()
}
