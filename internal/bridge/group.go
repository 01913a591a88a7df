package bridge

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group owns every configured device's DeviceBridge and runs them
// concurrently. Each bridge absorbs its own connect/retry failures, so the
// errgroup here exists for structured startup/shutdown, not error-based
// teardown: one device's Observe never returns an error that tears down its
// siblings (spec.md §4, architecture diagram).
type Group struct {
	logger Logger

	mu       sync.RWMutex
	bridges  map[string]*DeviceBridge
	hostsOrd []string
}

// NewGroup builds a Group from a set of already-constructed bridges, keyed
// by host. Construction (resolving each device's model into a Connector) is
// the composition root's job, not this package's — see spec.md §9.
func NewGroup(bridges []*DeviceBridge, logger Logger) *Group {
	g := &Group{
		logger:  logger,
		bridges: make(map[string]*DeviceBridge, len(bridges)),
	}
	for _, b := range bridges {
		g.bridges[b.Host()] = b
		g.hostsOrd = append(g.hostsOrd, b.Host())
	}
	return g
}

// Bridges returns every managed bridge, in configuration order.
func (g *Group) Bridges() []*DeviceBridge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*DeviceBridge, 0, len(g.hostsOrd))
	for _, host := range g.hostsOrd {
		out = append(out, g.bridges[host])
	}
	return out
}

// Bridge returns the bridge for host, or nil if host isn't managed.
func (g *Group) Bridge(host string) *DeviceBridge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bridges[host]
}

// Observe runs every bridge's Observe loop concurrently until ctx is
// cancelled, then shuts every bridge down. Returns the first non-nil,
// non-context-cancellation error encountered, if any.
func (g *Group) Observe(ctx context.Context, publisher StatePublisher) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, b := range g.Bridges() {
		b := b
		eg.Go(func() error {
			b.Observe(egCtx, publisher)
			return nil
		})
	}

	err := eg.Wait()
	g.Shutdown()
	return err
}

// SendUpdate implements CommandRouter, routing an inbound MQTT command to
// the bridge owning host. If no bridge matches, the command is logged and
// dropped, never panicking on a stale or mistyped topic; Dispatch is the
// variant that returns ErrUnknownHost.
func (g *Group) SendUpdate(ctx context.Context, host, attribute, value string) {
	b := g.Bridge(host)
	if b == nil {
		if g.logger != nil {
			g.logger.Warn("command for unknown host", "host", host, "attribute", attribute)
		}
		return
	}
	b.SendUpdate(ctx, attribute, value)
}

// Shutdown stops every managed bridge. Safe to call more than once.
func (g *Group) Shutdown() {
	for _, b := range g.Bridges() {
		b.Shutdown()
	}
}

// Dispatch is SendUpdate's typed-error counterpart for callers that need to
// surface ErrUnknownHost instead of a log line.
func (g *Group) Dispatch(ctx context.Context, host, attribute, value string) error {
	b := g.Bridge(host)
	if b == nil {
		return errUnknownHostf(host)
	}
	b.SendUpdate(ctx, attribute, value)
	return nil
}

// errUnknownHostf wraps ErrUnknownHost with the offending host.
func errUnknownHostf(host string) error {
	return fmt.Errorf("%w: %q", ErrUnknownHost, host)
}
