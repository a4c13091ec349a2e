package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{"00:05", ScheduleTime{0, 5}, false},
		{"08:00", ScheduleTime{8, 0}, false},
		{"23:59", ScheduleTime{23, 59}, false},
		{"24:00", ScheduleTime{}, true},
		{"12:60", ScheduleTime{}, true},
		{"-1:30", ScheduleTime{}, true},
		{"noon", ScheduleTime{}, true},
		{"", ScheduleTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseScheduleTime(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScheduleTime(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseScheduleTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestShouldRunDedup(t *testing.T) {
	s := &Scheduler{scheduleTimes: []ScheduleTime{{8, 0}}}

	atEight := time.Date(2025, time.April, 10, 8, 0, 30, 0, time.UTC)
	if !s.shouldRun(atEight) {
		t.Fatal("first tick at 08:00 should run")
	}
	// Second tick in the same minute must not fire again.
	if s.shouldRun(atEight.Add(20 * time.Second)) {
		t.Error("second tick in the same minute should not run")
	}
	// A different time of day does not match.
	if s.shouldRun(atEight.Add(1 * time.Minute)) {
		t.Error("08:01 should not match a 08:00 schedule")
	}
	// The same wall time the next day fires again.
	if !s.shouldRun(atEight.AddDate(0, 0, 1)) {
		t.Error("08:00 the next day should run")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{ScheduleTimes: []string{"25:00"}}); err == nil {
		t.Error("New() with invalid time expected error")
	}
	if _, err := New(Config{}); err == nil {
		t.Error("New() with no times expected error")
	}
}

type countJob struct {
	calls atomic.Int64
}

func (j *countJob) Execute(ctx context.Context) error {
	j.calls.Add(1)
	return nil
}

func (j *countJob) UserID() int64 { return 1 }

func (j *countJob) Description() string { return "count" }

func TestWorkerPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewWorkerPool(2, 0, 10)
	pool.Start()

	job := &countJob{}
	for i := 0; i < 5; i++ {
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	pool.ShutdownWithTimeout(5 * time.Second)

	if got := job.calls.Load(); got != 5 {
		t.Errorf("job ran %d times, want 5", got)
	}
}
