package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ============================================================================
// DaemonLink - persistent TCP session to the vest daemon
// ============================================================================
//
// The link owns the one outbound socket; no other component ever touches it.
// Callers hand encoded events to Submit, which never blocks: the game's
// simulation thread must not wait on network I/O. A single Run goroutine
// drains the queue, frames each event with a newline, and flushes it
// independently to keep haptic latency low.
//
// Events are fire-and-forget. A failed send is not retried and nothing is
// buffered while the daemon is away; the link just schedules a reconnect
// attempt no sooner than the cool-down after the previous attempt, so an
// absent daemon is probed at a polite rate instead of being hammered.
//
// ============================================================================

// LinkState is the connection state of the daemon link.
type LinkState int

const (
	LinkDisconnected LinkState = iota
	LinkConnecting
	LinkConnected
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ConnectionError reports an unreachable daemon or a failed write. It is
// recovered locally via the reconnect cool-down and never surfaced to hook
// call-sites.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("vest daemon %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// reconnectPollInterval is how often the Run loop checks whether the
// cool-down has elapsed. It bounds reconnect latency, not attempt rate.
const reconnectPollInterval = 250 * time.Millisecond

// DaemonLink manages the single logical session to the vest daemon.
type DaemonLink struct {
	addr         string
	dialTimeout  time.Duration
	writeTimeout time.Duration
	cooldown     time.Duration
	logger       *slog.Logger

	submit chan []byte

	// dial is swappable for tests.
	dial func(addr string, timeout time.Duration) (net.Conn, error)

	mu          sync.Mutex
	conn        net.Conn
	state       LinkState
	lastAttempt time.Time
	notes       chan LinkState
}

// NewDaemonLink builds a link from config. Call Run to start delivery.
func NewDaemonLink(cfg DaemonConfig, logger *slog.Logger) *DaemonLink {
	return &DaemonLink{
		addr:         cfg.Addr(),
		dialTimeout:  time.Duration(cfg.DialTimeoutMS) * time.Millisecond,
		writeTimeout: time.Duration(cfg.WriteTimeoutMS) * time.Millisecond,
		cooldown:     time.Duration(cfg.ReconnectCooldownMS) * time.Millisecond,
		logger:       logger,
		submit:       make(chan []byte, cfg.SubmitQueueSize),
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}
}

// SetStateListener registers a callback invoked, in order, on every state
// transition. The callback runs on its own goroutine so it may do I/O.
// Must be called before Run.
func (l *DaemonLink) SetStateListener(fn func(LinkState)) {
	notes := make(chan LinkState, 16)
	go func() {
		for s := range notes {
			fn(s)
		}
	}()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.notes = notes
}

// State returns the current connection state.
func (l *DaemonLink) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Submit enqueues one encoded event for delivery and returns immediately.
// Events are silently discarded when the queue is full or the link is down;
// dropped telemetry is acceptable loss and must never back up the caller.
func (l *DaemonLink) Submit(encoded []byte) {
	select {
	case l.submit <- encoded:
	default:
		l.logger.Debug("submit queue full, dropping event")
	}
}

// Run owns the socket until ctx is canceled. It makes an immediate first
// connection attempt, then delivers queued events and retries the
// connection on the cool-down schedule.
func (l *DaemonLink) Run(ctx context.Context) {
	if err := l.Connect(); err != nil {
		l.logger.Warn("initial connect failed", "error", err)
	}

	ticker := time.NewTicker(reconnectPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("daemon link stopping (context canceled)")
			l.Close()
			return

		case msg := <-l.submit:
			l.deliver(msg)

		case now := <-ticker.C:
			l.maybeReconnect(now)
		}
	}
}

// Connect dials the daemon now, regardless of the cool-down. Failure is not
// fatal; the reconnect schedule takes over afterwards.
func (l *DaemonLink) Connect() error {
	l.mu.Lock()

	if l.conn != nil {
		l.mu.Unlock()
		return nil
	}

	l.setStateLocked(LinkConnecting)
	l.lastAttempt = time.Now()

	conn, err := l.dial(l.addr, l.dialTimeout)
	if err != nil {
		l.setStateLocked(LinkDisconnected)
		l.mu.Unlock()
		return &ConnectionError{Addr: l.addr, Err: err}
	}

	l.conn = conn
	l.setStateLocked(LinkConnected)
	l.mu.Unlock()

	l.logger.Info("connected to vest daemon", "addr", l.addr)
	return nil
}

// Close tears down the connection. Idempotent; used both on write failure
// and for the best-effort disconnect at shutdown.
func (l *DaemonLink) Close() {
	l.mu.Lock()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.setStateLocked(LinkDisconnected)
	l.mu.Unlock()
}

// deliver writes one newline-framed event. No batching: each event is
// flushed on its own to bound latency.
func (l *DaemonLink) deliver(msg []byte) {
	l.mu.Lock()

	if l.conn == nil || l.state != LinkConnected {
		l.mu.Unlock()
		l.logger.Debug("daemon link down, dropping event")
		return
	}

	_ = l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout))
	_, err := l.conn.Write(append(msg, '\n'))
	if err != nil {
		_ = l.conn.Close()
		l.conn = nil
		l.setStateLocked(LinkDisconnected)
		l.mu.Unlock()

		cerr := &ConnectionError{Addr: l.addr, Err: err}
		l.logger.Warn("send failed, dropping event and scheduling reconnect", "error", cerr)
		return
	}

	l.mu.Unlock()
}

// maybeReconnect dials again once the cool-down since the previous attempt
// has elapsed.
func (l *DaemonLink) maybeReconnect(now time.Time) {
	l.mu.Lock()
	due := l.conn == nil && now.Sub(l.lastAttempt) >= l.cooldown
	l.mu.Unlock()

	if !due {
		return
	}

	if err := l.Connect(); err != nil {
		l.logger.Debug("reconnect attempt failed", "error", err)
	}
}

// setStateLocked updates the state and queues a listener notification.
// Callers must hold l.mu. The queue send never blocks; a saturated listener
// just misses intermediate transitions.
func (l *DaemonLink) setStateLocked(next LinkState) {
	if l.state == next {
		return
	}
	l.state = next

	if l.notes != nil {
		select {
		case l.notes <- next:
		default:
		}
	}
}
