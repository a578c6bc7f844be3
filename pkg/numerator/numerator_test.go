package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences counter: every call bumps the
// stored value by the increment the query carries (1 for strict).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}
	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

var period = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestGetNextNumberStrict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PO")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-00001" {
		t.Errorf("expected PO-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-00002" {
		t.Errorf("expected PO-2026-00002, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("strict allocation should hit the database per number, got %d calls", q.calls)
	}
}

func TestGetNextNumberCached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TRF")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	// First call reserves 1..10; the counter lands on 10.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TRF-2026-00001" {
		t.Errorf("expected TRF-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected reserved range up to 10, got %d", q.currentValue)
	}

	// The rest of the range is served from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TRF-2026-00002" {
		t.Errorf("expected TRF-2026-00002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("in-range allocation must not touch the database, counter moved to %d", q.currentValue)
	}

	// Exhaust the range; the next call refills 11..20.
	for i := 0; i < 8; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TRF-2026-00011" {
		t.Errorf("expected TRF-2026-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected refilled range up to 20, got %d", q.currentValue)
	}
}

func TestFormatNumber(t *testing.T) {
	cfg := Config{Prefix: "RA", IncludeYear: true, PadWidth: 3, ResetPeriod: "year"}
	if got := formatNumber(cfg, period, 7); got != "RA-2026-007" {
		t.Errorf("expected RA-2026-007, got %s", got)
	}

	noYear := Config{Prefix: "SEQ"}
	if got := formatNumber(noYear, period, 42); got != "SEQ-00042" {
		t.Errorf("expected SEQ-00042, got %s", got)
	}
}

func TestBuildKeyResetPeriods(t *testing.T) {
	if got := buildKey(Config{Prefix: "PO", ResetPeriod: "year"}, period); got != "PO_2026" {
		t.Errorf("expected PO_2026, got %s", got)
	}
	if got := buildKey(Config{Prefix: "PO", ResetPeriod: "month"}, period); got != "PO_2026_03" {
		t.Errorf("expected PO_2026_03, got %s", got)
	}
	if got := buildKey(Config{Prefix: "PO"}, period); got != "PO" {
		t.Errorf("expected PO, got %s", got)
	}
}

func TestMockGenerator(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	first, _ := m.GetNextNumber(ctx, DefaultConfig("PO"), nil, period)
	second, _ := m.GetNextNumber(ctx, DefaultConfig("PO"), nil, period)
	if first != "PO-2026-00001" || second != "PO-2026-00002" {
		t.Errorf("mock sequence wrong: %s, %s", first, second)
	}

	// Independent prefixes count independently.
	other, _ := m.GetNextNumber(ctx, DefaultConfig("RA"), nil, period)
	if other != "RA-2026-00001" {
		t.Errorf("expected RA-2026-00001, got %s", other)
	}
}
