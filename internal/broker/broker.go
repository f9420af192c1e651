// Package broker wires Components A-G together: BrokerState, the single-
// consumer event dispatcher (§4.5), and every handler in §4.6. Grounded
// structurally on internal/daemon/server.go's constructor/Start/Shutdown
// shape and slog field conventions.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cordbroker/cord-broker/internal/activity"
	"github.com/cordbroker/cord-broker/internal/events"
	"github.com/cordbroker/cord-broker/internal/pipeserver"
	"github.com/cordbroker/cord-broker/internal/session"
	"github.com/cordbroker/cord-broker/internal/upstream"
)

// Broker is the process-wide singleton state (§3 BrokerState).
type Broker struct {
	cfg Config
	log *slog.Logger
	level *slog.LevelVar

	runID string

	sessions  *session.Manager
	activity  *activity.Manager
	upstream  *upstream.Client
	pipe      *pipeserver.Server
	logBuffer *LogBuffer
	lock      *LockFile

	queue   chan events.Message
	ready   atomic.Bool
	running atomic.Bool
}

// New constructs a Broker from cfg. level, when non-nil, is adjusted by the
// Initialize handler (§4.6) to change the running log level at runtime;
// pass the same *slog.LevelVar used to build log's handler.
func New(cfg Config, log *slog.Logger, level *slog.LevelVar) *Broker {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = DefaultTimeoutMs
	}
	b := &Broker{
		cfg:       cfg,
		log:       log,
		level:     level,
		runID:     uuid.NewString(),
		sessions:  session.NewManager(),
		logBuffer: &LogBuffer{},
		lock:      NewLockFile(),
		queue:     make(chan events.Message, 256),
	}
	b.upstream = upstream.NewClient(cfg.ClientID, uint32(os.Getpid()), b, log)
	b.activity = activity.NewManager(b.upstream)
	b.pipe = pipeserver.New(cfg.PipeName, b, b)
	return b
}

// Enqueue implements upstream.Queue and pipeserver.Queue so
// every producer (pipe server accept loop, per-client read workers,
// upstream background reader) can push onto the single central queue
// without importing this package.
func (b *Broker) Enqueue(m events.Message) {
	select {
	case b.queue <- m:
	default:
		b.log.Warn("event queue full, dropping event", "client_id", m.ClientID)
	}
}

// CreateSession implements pipeserver.Registrar: the accept loop calls this
// synchronously, before starting the client's read worker, so the session
// exists before any message from that client can reach the dispatcher
// (§4.2 step 3).
func (b *Broker) CreateSession(id uint64) {
	b.sessions.Create(id)
}

// Run acquires the singleton lock, starts the pipe server and upstream
// connection, and blocks running the dispatcher until Shutdown/Restart,
// ctx is cancelled, or the idle timeout fires with no connected editors.
func (b *Broker) Run(ctx context.Context) error {
	if err := b.lock.Acquire(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	defer b.lock.Release()

	b.log.Info("starting broker", "run_id", b.runID, "client_id", b.cfg.ClientID, "pipe_name", b.cfg.PipeName)

	if err := b.pipe.Start(); err != nil {
		return fmt.Errorf("broker: start pipe server: %w", err)
	}
	defer b.pipe.Stop()

	b.activity.Start()
	defer b.activity.Stop()

	if err := b.upstream.Connect(); err != nil {
		b.log.Error("initial upstream connect failed", "error", err)
		if b.cfg.InitialReconnect {
			go b.upstream.Reconnect(b.cfg.ReconnectIntervalMs)
		}
	}

	b.running.Store(true)
	b.runDispatcher(ctx)
	return nil
}

// runDispatcher is the single-threaded event loop of §4.5: it blocks on the
// queue with a timeout equal to the idle timeout, and exits the broker when
// the timeout fires with zero connected editors.
func (b *Broker) runDispatcher(ctx context.Context) {
	idle := time.Duration(b.cfg.TimeoutMs) * time.Millisecond
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for b.running.Load() {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.queue:
			b.dispatch(msg)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idle)
		case <-timer.C:
			if b.pipe.ClientCount() == 0 {
				b.log.Info("idle timeout with no connected sessions, shutting down")
				return
			}
			timer.Reset(idle)
		}
	}
}
