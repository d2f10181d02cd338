package scheduler

import (
	"context"
	"errors"
	"testing"

	"StockAnalyzerView/internal/logging"
	"StockAnalyzerView/internal/model"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRefresher{}, logging.Discard())
	if err := s.Register("0 */5 * * * *"); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
	if err := s.Register("*/5 * * * *"); err == nil {
		t.Error("five-field spec should be rejected when seconds are enabled")
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestRunNow(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ok", nil},
		{"stale", model.ErrStaleRequest},
		{"failure", errors.New("Network response was not ok")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRefresher{err: tt.err}
			s := NewScheduler(context.Background(), r, logging.Discard())
			s.RunNow()
			if r.calls != 1 {
				t.Errorf("expected 1 refresh, got %d", r.calls)
			}
		})
	}
}

func TestRunNow_AfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRefresher{}
	s := NewScheduler(ctx, r, logging.Discard())
	s.RunNow()
	if r.calls != 0 {
		t.Errorf("refresh must not run after shutdown, got %d calls", r.calls)
	}
}
