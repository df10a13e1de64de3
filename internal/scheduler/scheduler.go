// Package scheduler runs periodic maintenance jobs on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"healthdash/internal/app"
	"healthdash/internal/metrics"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Task is one run of a scheduled job.
type Task func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// New creates a Scheduler whose job runs are each bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Add registers task under name on a standard five-field cron spec or a
// descriptor such as "@hourly".
func (s *Scheduler) Add(spec, name string, task Task) error {
	id, err := s.cron.AddFunc(spec, s.wrap(name, task))
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	log.Infof("scheduled %s (%s) as entry %d", name, spec, id)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(name string, task Task) func() {
	return func() {
		start := time.Now()
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		if err := task(ctx); err != nil {
			log.Errorf("job %s failed: %s", name, err)
			return
		}
		log.Debugf("job %s finished in %s", name, time.Since(start))
	}
}

// PurgeSessions removes expired login sessions and counts them on m.
func PurgeSessions(authSvc *app.AuthService, m *metrics.Manager) Task {
	return func(ctx context.Context) error {
		n, err := authSvc.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}
		if m != nil {
			m.CounterSessionsPurged.Add(float64(n))
		}
		if n > 0 {
			log.Infof("purged %d expired sessions", n)
		}
		return nil
	}
}
