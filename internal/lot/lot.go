// Package lot is the record store: the authoritative in-memory list of ribbon
// lot problems for a process, mirrored to a kvstore.Adapter after every change.
package lot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/ribbonlog/internal/kvstore"
	"github.com/zulandar/ribbonlog/internal/models"
	"github.com/zulandar/ribbonlog/internal/notify"
)

// Date and time layouts stamped on new records (pt-BR, as shown on the floor).
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// Payload is the data a new record is created from.
type Payload struct {
	LotNumber   string
	Shift       models.Shift
	RibbonModel string
	Quantity    int
	Problem     string
	Details     string
	Attachment  string
}

// Patch holds the fields to replace on an existing record. Nil fields are
// left alone. ID, Date, Time and CreatedAt cannot be patched.
type Patch struct {
	LotNumber   *string
	Shift       *models.Shift
	RibbonModel *string
	Quantity    *int
	Problem     *string
	Details     *string
	Status      *models.Status
	Attachment  *string
}

// Opts holds the collaborators a Store is built from.
type Opts struct {
	Adapter  kvstore.Adapter
	Notifier notify.Notifier  // optional
	Location *time.Location   // defaults to time.Local
	Now      func() time.Time // defaults to time.Now
	NewID    func() string    // defaults to uuid.NewString
}

// Store owns the record list. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	records  []models.Record
	adapter  kvstore.Adapter
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
	newID    func() string
}

// New creates an empty Store. Call Load to read the persisted collection.
func New(opts Opts) (*Store, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("lot: adapter is required")
	}
	s := &Store{
		records:  []models.Record{},
		adapter:  opts.Adapter,
		notifier: opts.Notifier,
		loc:      opts.Location,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Load replaces the in-memory list with the persisted one. Missing or
// corrupted data leaves the store empty.
func (s *Store) Load(ctx context.Context) {
	records := s.adapter.Load(ctx)
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

// Create stamps a new record, prepends it, and persists the collection.
// The record is kept in memory even if the save fails.
func (s *Store) Create(ctx context.Context, p Payload) (models.Record, error) {
	now := s.now().In(s.loc)
	rec := models.Record{
		ID:          s.newID(),
		LotNumber:   p.LotNumber,
		Date:        now.Format(DateLayout),
		Time:        now.Format(TimeLayout),
		Shift:       p.Shift,
		RibbonModel: p.RibbonModel,
		Quantity:    max(p.Quantity, 0),
		Problem:     p.Problem,
		Details:     p.Details,
		Status:      models.StatusActive,
		CreatedAt:   now,
		Attachment:  p.Attachment,
	}
	if rec.Shift == "" {
		rec.Shift = models.ShiftADM
	}

	s.mu.Lock()
	s.records = append([]models.Record{rec}, s.records...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.announce(ctx, notify.RecordEvent(notify.KindCreated, rec))
	return rec, err
}

// Update applies p to the record with id. The boolean is false when no such
// record exists, in which case nothing changes and nothing is written.
func (s *Store) Update(ctx context.Context, id string, p Patch) (models.Record, bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Record{}, false, nil
	}
	rec := s.records[i]
	p.apply(&rec)
	s.records[i] = rec
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.announce(ctx, notify.RecordEvent(notify.KindUpdated, rec))
	return rec, true, err
}

// Delete removes the record with id. The boolean is false when no such record
// exists, in which case nothing changes and nothing is written.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.records[i]
	next := make([]models.Record, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.announce(ctx, notify.RecordEvent(notify.KindDeleted, removed))
	return true, err
}

// List returns a copy of the records, newest first.
func (s *Store) List() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with id.
func (s *Store) Get(id string) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i], true
	}
	return models.Record{}, false
}

// Replace swaps the whole collection, e.g. when importing a blob, and persists it.
func (s *Store) Replace(ctx context.Context, records []models.Record) error {
	next := make([]models.Record, len(records))
	copy(next, records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	return s.persistLocked(ctx)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full collection. Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.adapter.Save(ctx, s.records); err != nil {
		log.Printf("lot: persist %d records: %v", len(s.records), err)
		return fmt.Errorf("lot: persist: %w", err)
	}
	return nil
}

func (s *Store) announce(ctx context.Context, evt notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, evt); err != nil {
		log.Printf("lot: notify %s: %v", evt.Kind, err)
	}
}

// apply copies every non-nil field onto rec. Negative quantities clamp to 0
// and unknown statuses are ignored.
func (p Patch) apply(rec *models.Record) {
	if p.LotNumber != nil {
		rec.LotNumber = *p.LotNumber
	}
	if p.Shift != nil {
		rec.Shift = *p.Shift
	}
	if p.RibbonModel != nil {
		rec.RibbonModel = *p.RibbonModel
	}
	if p.Quantity != nil {
		rec.Quantity = max(*p.Quantity, 0)
	}
	if p.Problem != nil {
		rec.Problem = *p.Problem
	}
	if p.Details != nil {
		rec.Details = *p.Details
	}
	if p.Status != nil && p.Status.Valid() {
		rec.Status = *p.Status
	}
	if p.Attachment != nil {
		rec.Attachment = *p.Attachment
	}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}
