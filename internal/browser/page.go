// Package browser drives a single long-lived headless Chrome tab for the
// extraction strategies.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a bounded wait expires
	ErrTimeout = errors.New("wait timed out")
	// ErrClosed is returned by operations on a closed session
	ErrClosed = errors.New("browser session is closed")
)

// Page is the set of page operations the extraction strategies rely on.
// Every blocking call is bounded, either by an explicit timeout argument or
// by the session's navigation timeout.
type Page interface {
	// Navigate loads url and returns once the network has gone idle
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses (ErrTimeout)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Text returns the rendered text of the first selector match; found is
	// false when nothing matches. It does not wait.
	Text(ctx context.Context, selector string) (text string, found bool, err error)
	// HTML returns the current document's outer HTML
	HTML(ctx context.Context) (string, error)
	// Click clicks the first visible selector match
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// Type types text into selector, or into the focused element when selector is empty
	Type(ctx context.Context, selector, text string, timeout time.Duration) error
	// Sleep waits for a fixed settle delay
	Sleep(ctx context.Context, d time.Duration) error
	// BlockHosts installs request and navigation guards for hosts.
	// Guards persist for the lifetime of the session.
	BlockHosts(ctx context.Context, hosts []string) error
}

// Sleep waits d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
