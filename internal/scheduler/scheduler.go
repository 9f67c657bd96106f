// Package scheduler re-runs a job on a cron schedule in a fixed timezone.
package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var dailyRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Scheduler holds at most one job.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
}

// New creates a scheduler for the given IANA timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
	}, nil
}

// Location returns the scheduler timezone.
func (s *Scheduler) Location() *time.Location { return s.location }

// Schedule replaces the job. spec is a five-field cron expression, a
// descriptor such as "@every 1h", or "HH:MM" for once a day.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	expr, err := Expand(spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	id, err := s.cron.AddFunc(expr, fn)
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = id
	return nil
}

// Next returns the next run time, or the zero time when nothing is
// scheduled or the scheduler is stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	ctx := s.cron.Stop()
	s.mu.Unlock()
	<-ctx.Done()
}

// Expand turns the "HH:MM" shorthand into a daily cron expression and
// validates everything else with the standard parser.
func Expand(spec string) (string, error) {
	if m := dailyRegex.FindStringSubmatch(spec); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return spec, nil
}
