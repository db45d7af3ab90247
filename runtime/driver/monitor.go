package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/satishbabariya/dbal/internal/debug"
	"github.com/satishbabariya/dbal/query"
)

// QueryMonitor is told when a statement starts and stops executing.
type QueryMonitor interface {
	StartQuery(ctx context.Context, sql string, params map[string]query.Param)
	StopQuery(ctx context.Context, err error)
}

// ChainMonitor notifies several monitors in order.
type ChainMonitor []QueryMonitor

func (c ChainMonitor) StartQuery(ctx context.Context, sql string, params map[string]query.Param) {
	for _, m := range c {
		m.StartQuery(ctx, sql, params)
	}
}

func (c ChainMonitor) StopQuery(ctx context.Context, err error) {
	for _, m := range c {
		m.StopQuery(ctx, err)
	}
}

// DebugMonitor writes one debug log record per statement.
type DebugMonitor struct {
	sql   string
	start time.Time
}

func (m *DebugMonitor) StartQuery(_ context.Context, sql string, _ map[string]query.Param) {
	m.sql, m.start = sql, time.Now()
}

func (m *DebugMonitor) StopQuery(ctx context.Context, err error) {
	debug.Query(ctx, m.sql, time.Since(m.start), err)
}

// StatsSnapshot is a point in time copy of StatsMonitor's counters.
type StatsSnapshot struct {
	Queries       int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

func (s StatsSnapshot) AvgDuration() time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Queries)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.TotalDuration, s.AvgDuration(), s.SlowQueries, s.Errors)
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, sql string, params map[string]query.Param, elapsed time.Duration)

// StatsMonitor counts statements, their duration and failures, and reports
// slow ones.
type StatsMonitor struct {
	queries       atomic.Int64
	totalDuration atomic.Int64
	slowQueries   atomic.Int64
	errors        atomic.Int64

	slowThreshold time.Duration
	slowHook      SlowQueryHook

	mu     sync.Mutex
	sql    string
	params map[string]query.Param
	start  time.Time
}

type StatsOption func(*StatsMonitor)

// WithSlowThreshold sets the duration above which a statement is slow.
// The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(m *StatsMonitor) { m.slowThreshold = d }
}

func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(m *StatsMonitor) { m.slowHook = hook }
}

// WithSlowQueryLog logs slow statements at warn level.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, sql string, _ map[string]query.Param, elapsed time.Duration) {
		debug.Logger().LogAttrs(ctx, slog.LevelWarn, "slow query detected",
			slog.Duration("duration", elapsed), slog.String("query", sql))
	})
}

func NewStatsMonitor(opts ...StatsOption) *StatsMonitor {
	m := &StatsMonitor{slowThreshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *StatsMonitor) StartQuery(_ context.Context, sql string, params map[string]query.Param) {
	m.mu.Lock()
	m.sql, m.params, m.start = sql, params, time.Now()
	m.mu.Unlock()
}

func (m *StatsMonitor) StopQuery(ctx context.Context, err error) {
	m.mu.Lock()
	sql, params, elapsed := m.sql, m.params, time.Since(m.start)
	m.mu.Unlock()

	m.queries.Add(1)
	m.totalDuration.Add(int64(elapsed))
	if err != nil {
		m.errors.Add(1)
	}
	if m.slowThreshold > 0 && elapsed > m.slowThreshold {
		m.slowQueries.Add(1)
		if m.slowHook != nil {
			m.slowHook(ctx, sql, params, elapsed)
		}
	}
}

func (m *StatsMonitor) Stats() StatsSnapshot {
	return StatsSnapshot{
		Queries:       m.queries.Load(),
		TotalDuration: time.Duration(m.totalDuration.Load()),
		SlowQueries:   m.slowQueries.Load(),
		Errors:        m.errors.Load(),
	}
}

func (m *StatsMonitor) Reset() {
	m.queries.Store(0)
	m.totalDuration.Store(0)
	m.slowQueries.Store(0)
	m.errors.Store(0)
}
