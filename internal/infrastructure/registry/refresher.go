package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/doeshing/cmdguard/internal/ports"
)

// Refresher periodically refreshes stale providers and rebuilds the
// snapshot. Long-running consumers (shell integrations, daemons) start it;
// one-shot CLI invocations do not.
type Refresher struct {
	cron *cron.Cron
	reg  *Registry
	log  ports.Logger
}

// NewRefresher schedules RefreshAndReload on the given cadence.
func NewRefresher(reg *Registry, every time.Duration, log ports.Logger) (*Refresher, error) {
	if every < time.Minute {
		every = time.Minute
	}
	c := cron.New()
	ref := &Refresher{cron: c, reg: reg, log: log}
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		ctx, cancel := context.WithTimeout(context.Background(), every/2)
		defer cancel()
		if err := reg.RefreshAndReload(ctx); err != nil {
			log.Warn("scheduled reload failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// Start begins the schedule.
func (f *Refresher) Start() { f.cron.Start() }

// Stop halts the schedule and waits for a running job to finish.
func (f *Refresher) Stop() {
	ctx := f.cron.Stop()
	<-ctx.Done()
}
