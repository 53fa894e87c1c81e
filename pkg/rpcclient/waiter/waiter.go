/*
Package waiter provides the way to wait for the deploy to be processed by
the node. It polls the deploy status until the deploy leaves the PENDING
state, parking only the calling goroutine between polls.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/util"
)

// DefaultPollInterval is the time between subsequent deploy status polls.
const DefaultPollInterval = 100 * time.Millisecond

var (
	// ErrContextDone is returned when Waiter context has been done in the middle
	// of deploy awaiting process and no result was received yet.
	ErrContextDone = errors.New("waiter context done")
	// ErrPollTimeout is returned when the deploy is still pending after
	// the configured maximum wait time.
	ErrPollTimeout = errors.New("deploy is still pending")
)

// DeployExecutionError is returned when the deploy was processed, but its
// execution failed.
type DeployExecutionError struct {
	DeployHash string
	Message    string
}

// Error implements the error interface.
func (e *DeployExecutionError) Error() string {
	return fmt.Sprintf("deploy %s execution failed: %s", e.DeployHash, e.Message)
}

// RPCPolling is an interface that enables deploy awaiting functionality
// based on periodical deploy info polls.
type RPCPolling interface {
	// Context should return the RPC client context to be able to gracefully
	// shut down all running processes (if so).
	Context() context.Context
	GetDeployInfo(hash string, view casperrpc.View) (*result.DeployInfo, error)
}

// Config is a configuration for Waiter.
type Config struct {
	// PollInterval is a time interval between subsequent polls,
	// DefaultPollInterval is used if not set.
	PollInterval time.Duration
	// MaxWait limits the total awaiting time, no limit is applied if
	// not set (only the context can interrupt awaiting then).
	MaxWait time.Duration
}

// Waiter is a polling-based deploy waiter.
type Waiter struct {
	polling RPCPolling
	config  Config
	// after returns a channel the poll loop waits on between polls.
	after func(time.Duration) <-chan time.Time
}

// New creates an instance of Waiter with the given configuration, default
// values are used for unset fields.
func New(polling RPCPolling, config Config) *Waiter {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxWait < 0 {
		config.MaxWait = 0
	}
	return &Waiter{
		polling: polling,
		config:  config,
		after:   time.After,
	}
}

// Config returns the effective Waiter configuration.
func (w *Waiter) Config() Config {
	return w.config
}

// Wait allows to wait until the deploy is processed. It can be used as a
// wrapper for Deploy accepting the deploy hash and an error, it returns
// the error if it's not nil without any polling. Failed execution is
// returned as a DeployExecutionError.
func (w *Waiter) Wait(ctx context.Context, h util.Uint256, err error) (*result.DeployInfo, error) {
	if err != nil {
		return nil, err
	}
	return w.WaitForDeployProcessed(ctx, h.StringBE(), true)
}

// WaitForDeployProcessed polls the deploy status until the deploy is not
// PENDING anymore and returns its last FULL info. Errors returned by the
// RPC are returned immediately. If onErrorRaise is set and the first
// processing result of the deploy is an error, DeployExecutionError is
// returned.
func (w *Waiter) WaitForDeployProcessed(ctx context.Context, hash string, onErrorRaise bool) (*result.DeployInfo, error) {
	var deadline <-chan time.Time
	if w.config.MaxWait > 0 {
		timer := time.NewTimer(w.config.MaxWait)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		info, err := w.polling.GetDeployInfo(hash, casperrpc.FullView)
		if err != nil {
			return nil, err
		}
		if info.Status.State != result.Pending {
			if msg, failed := info.FirstError(); onErrorRaise && failed {
				return nil, &DeployExecutionError{DeployHash: hash, Message: msg}
			}
			return info, nil
		}
		select {
		case <-w.after(w.config.PollInterval):
		case <-deadline:
			return nil, fmt.Errorf("%w: %s after %s", ErrPollTimeout, hash, w.config.MaxWait)
		case <-w.polling.Context().Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, w.polling.Context().Err())
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}
