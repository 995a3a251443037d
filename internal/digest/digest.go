// Package digest posts a periodic summary of the lot log to the notifiers.
package digest

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/ribbonlog/internal/config"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
	"github.com/zulandar/ribbonlog/internal/notify"
)

// Source supplies the records to summarize.
type Source interface {
	List() []models.Record
}

// Build summarizes records. It returns false when there is nothing to report.
// At most limit of the newest active lots are listed.
func Build(records []models.Record, limit int) (notify.Event, bool) {
	st := lot.Summarize(records)
	if st.Total == 0 {
		return notify.Event{}, false
	}
	evt := notify.Event{
		Kind:  notify.KindDigest,
		Title: "Resumo de lotes - Ribbon",
		Body: fmt.Sprintf("%d registros: %d ativos, %d pendentes, %d resolvidos",
			st.Total, st.Active, st.Pending, st.Resolved),
		Severity: "info",
	}
	if st.Active > 0 {
		evt.Severity = "warning"
	}
	active := lot.WithStatus(records, models.StatusActive)
	if limit >= 0 && len(active) > limit {
		active = active[:limit]
	}
	for _, r := range active {
		evt.Fields = append(evt.Fields, notify.Field{
			Name:  fmt.Sprintf("Lote %s (%s)", r.LotNumber, r.RibbonModel),
			Value: fmt.Sprintf("%s - %s %s", r.Problem, r.Date, r.Time),
		})
	}
	return evt, true
}

// Scheduler sends the digest on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	src      Source
	notifier notify.Notifier
	limit    int
}

// Opts holds parameters for creating a Scheduler.
type Opts struct {
	Schedule string // 5-field cron expression
	Limit    int
	Source   Source
	Notifier notify.Notifier
}

// New validates the schedule and returns a stopped Scheduler.
func New(opts Opts) (*Scheduler, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("digest: source is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("digest: notifier is required")
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(config.CronParser)),
		src:      opts.Source,
		notifier: opts.Notifier,
		limit:    opts.Limit,
	}
	if _, err := s.cron.AddFunc(opts.Schedule, func() {
		if _, err := s.SendNow(context.Background()); err != nil {
			log.Printf("digest: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("digest: schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

// SendNow builds and sends the digest immediately. It reports whether
// anything was sent.
func (s *Scheduler) SendNow(ctx context.Context) (bool, error) {
	return Send(ctx, s.src, s.notifier, s.limit)
}

// Send posts one digest of src through n. An empty log sends nothing.
func Send(ctx context.Context, src Source, n notify.Notifier, limit int) (bool, error) {
	evt, ok := Build(src.List(), limit)
	if !ok {
		return false, nil
	}
	if err := n.Notify(ctx, evt); err != nil {
		return false, fmt.Errorf("digest: send: %w", err)
	}
	return true, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// any running send to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// Next returns when the digest fires next, or "" before Run.
func (s *Scheduler) Next() string {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return ""
	}
	return entries[0].Next.Format("2006-01-02 15:04")
}
