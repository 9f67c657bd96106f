package scheduler

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s, err := New("America/New_York")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()
	if s.Location().String() != "America/New_York" {
		t.Errorf("location = %q", s.Location())
	}
}

func TestNewInvalidTimezone(t *testing.T) {
	if _, err := New("Invalid/Zone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "30 9 * * *", false},
		{"00:00", "0 0 * * *", false},
		{"0 */6 * * *", "0 */6 * * *", false},
		{"@every 1h", "@every 1h", false},
		{"25:00", "", true},
		{"every day", "", true},
	}
	for _, tt := range tests {
		got, err := Expand(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Expand(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScheduleReplacesJob(t *testing.T) {
	s, _ := New("UTC")
	if err := s.Schedule("0 */6 * * *", func() {}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	first := s.entryID
	if err := s.Schedule("12:00", func() {}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if s.entryID == first {
		t.Error("entry should be replaced")
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("got %d entries, want 1", n)
	}
	if err := s.Schedule("nope", func() {}); err == nil {
		t.Error("expected error for bad spec")
	}
}

func TestScheduleRuns(t *testing.T) {
	s, _ := New("UTC")
	ran := make(chan struct{}, 1)
	if err := s.Schedule("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()
	if s.Next().IsZero() {
		t.Error("Next should be set once started")
	}
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
