// Package refreshlock guarantees single-flight execution of token refreshes:
// for any number of concurrent callers sharing a session key, exactly one
// upstream call runs and every caller observes its result.
package refreshlock

import (
	"context"

	"golang.org/x/sync/singleflight"

	"eventfair/backend/internal/session/domain"
)

// Operation performs the actual refresh. It is only invoked by the one caller
// that wins the lock; everyone else attaches to its outcome.
type Operation func(ctx context.Context) (*domain.Token, error)

// Coordinator is an injected single-flight registry keyed by session identity.
// Entries exist only while an operation is in flight and are dropped as soon
// as it settles, success or failure, so a later attempt always starts fresh.
// Safe for concurrent use.
type Coordinator struct {
	group singleflight.Group
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Do runs op under the single-flight lock for key. If an operation for key is
// already in flight, Do does not start a second one; it waits and returns that
// operation's token or error. Retry policy belongs to the caller: Do never
// retries and propagates op's error untouched to every waiter.
//
// The winning caller's ctx drives the operation; waiters attached to the same
// flight receive whatever it produces, including a context error, which is
// treated like any other refresh failure.
func (c *Coordinator) Do(ctx context.Context, key string, op Operation) (*domain.Token, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		return op(ctx)
	})
	if err != nil {
		return nil, err
	}
	tok, _ := v.(*domain.Token)
	return tok, nil
}
