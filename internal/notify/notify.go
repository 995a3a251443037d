// Package notify delivers best-effort user feedback about record changes to
// the log and to chat channels (Slack, Discord).
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/zulandar/ribbonlog/internal/models"
)

// Kind identifies what happened.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindDigest  Kind = "digest"
)

// Event is one notification.
type Event struct {
	Kind     Kind
	Title    string
	Body     string
	Severity string // info, warning, error, success
	Fields   []Field
}

// Field is a key-value pair shown alongside the event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Color returns the sidebar color hint for the event severity.
func (e Event) Color() string {
	switch e.Severity {
	case "success":
		return "#36a64f"
	case "warning":
		return "#daa038"
	case "error":
		return "#d00000"
	default:
		return "#4d519a"
	}
}

// Notifier delivers events somewhere a person will see them.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// RecordEvent builds the event announcing a change to rec.
func RecordEvent(kind Kind, rec models.Record) Event {
	evt := Event{Kind: kind}
	switch kind {
	case KindCreated:
		evt.Title = "Problema registrado"
		evt.Body = fmt.Sprintf("Lote %s cadastrado com sucesso.", rec.LotNumber)
		evt.Severity = "success"
	case KindUpdated:
		evt.Title = "Registro atualizado"
		evt.Body = fmt.Sprintf("Lote %s foi atualizado.", rec.LotNumber)
		evt.Severity = "info"
	case KindDeleted:
		evt.Title = "Registro excluído"
		evt.Body = fmt.Sprintf("Lote %s foi removido.", rec.LotNumber)
		evt.Severity = "warning"
		return evt
	}
	evt.Fields = []Field{
		{Name: "Modelo", Value: rec.RibbonModel, Short: true},
		{Name: "Quantidade", Value: strconv.Itoa(rec.Quantity), Short: true},
		{Name: "Turno", Value: rec.Shift.Label(), Short: true},
		{Name: "Status", Value: rec.Status.Label(), Short: true},
		{Name: "Problema", Value: rec.Problem},
	}
	return evt
}

// LogNotifier writes events to the standard logger.
type LogNotifier struct{}

// Notify logs the event title and body.
func (LogNotifier) Notify(_ context.Context, evt Event) error {
	log.Printf("notify: [%s] %s: %s", evt.Kind, evt.Title, evt.Body)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Notify sends to each notifier in order.
func (m Multi) Notify(ctx context.Context, evt Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async sends in the background so callers never wait on a chat API.
// Errors are logged.
type Async struct {
	Next    Notifier
	Timeout time.Duration

	wg sync.WaitGroup
}

// NewAsync wraps next with a per-send timeout (default 10s).
func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{Next: next, Timeout: timeout}
}

// Notify starts the send and returns immediately.
func (a *Async) Notify(_ context.Context, evt Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
		defer cancel()
		if err := a.Next.Notify(ctx, evt); err != nil {
			log.Printf("notify: %s %q: %v", evt.Kind, evt.Title, err)
		}
	}()
	return nil
}

// Wait blocks until every send started so far has finished. Short-lived
// commands call it before exiting so chat posts are not cut off.
func (a *Async) Wait() {
	a.wg.Wait()
}
