package cluster

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// SyncBarrier blocks until a started worker reports the outcome of its model
// replication.
type SyncBarrier interface {
	Wait(ctx context.Context, node *Node) error
}

// FileSyncBarrier waits on the worker's readiness artifact: a plain text file
// the worker writes exactly once, containing "ready" or "error". The wait
// also fails if the worker process exits without ever writing the artifact,
// and is bounded by Timeout rather than silently infinite.
type FileSyncBarrier struct {
	Timeout  time.Duration
	Interval time.Duration
}

var _ SyncBarrier = &FileSyncBarrier{}

// DefaultSyncTimeout bounds the model sync wait unless configured otherwise.
// Replicating a large model set over a slow link is legitimately slow, so the
// default is generous.
const DefaultSyncTimeout = time.Hour

// NewFileSyncBarrier creates a barrier with the given timeout, falling back
// to DefaultSyncTimeout when zero.
func NewFileSyncBarrier(timeout time.Duration) *FileSyncBarrier {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &FileSyncBarrier{
		Timeout:  timeout,
		Interval: 200 * time.Millisecond,
	}
}

// Wait blocks until the readiness artifact resolves, the worker dies, the
// timeout expires or ctx is canceled.
func (barrier *FileSyncBarrier) Wait(ctx context.Context, node *Node) error {
	deadline := time.Now().Add(barrier.Timeout)

	for {
		content, err := os.ReadFile(node.StatusFile)
		if err == nil {
			switch status := strings.TrimSpace(string(content)); status {
			case "ready":
				return nil
			case "error":
				return NewError(StartFailure, fmt.Sprintf("model sync failed, see %s", node.LogFile))
			default:
				return NewError(StartFailure, fmt.Sprintf("unexpected status '%s' in %s", status, node.StatusFile))
			}
		}

		if pid, err := readPidFile(node.PidFile); err == nil && !processAlive(pid) {
			return NewError(StartFailure, fmt.Sprintf("worker exited before completing model sync, see %s", node.LogFile))
		}

		if time.Now().After(deadline) {
			return NewError(StartFailure, fmt.Sprintf("model sync did not complete within %s", barrier.Timeout))
		}

		select {
		case <-ctx.Done():
			return WrapError(StartFailure, "model sync wait canceled", ctx.Err())
		case <-time.After(barrier.Interval):
		}
	}
}
