package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sandroute/internal/logger"
)

func TestPollerRefreshesImmediately(t *testing.T) {
	client := &fakeClient{ids: []string{"feature-a"}}
	reg := newTestRegistry(client)
	poller := NewPoller(reg, time.Hour, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx)
	}()

	// The first refresh happens before the first tick.
	assert.Eventually(t, func() bool {
		return reg.ActiveIDsFor("orders").Contains("feature-a")
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPollerKeepsRunningOnFailure(t *testing.T) {
	client := &fakeClient{ids: []string{"feature-a"}}
	reg := newTestRegistry(client)
	poller := NewPoller(reg, 20*time.Millisecond, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- poller.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return reg.ActiveIDsFor("orders").Contains("feature-a")
	}, time.Second, 10*time.Millisecond)

	// Flip the client into failure; the poller keeps ticking and the
	// last good snapshot stays visible.
	client.set(nil, assert.AnError)
	time.Sleep(60 * time.Millisecond)
	assert.True(t, reg.ActiveIDsFor("orders").Contains("feature-a"))

	// Recover; a later tick picks up the new set.
	client.set([]string{"feature-b"}, nil)
	assert.Eventually(t, func() bool {
		return reg.ActiveIDsFor("orders").Contains("feature-b")
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
