package models

import (
	"encoding/json"
	"time"
)

// Shift is the work shift a lot problem was logged on.
type Shift string

// Shift values as stored. SecondShift keeps the label the plant floor uses.
const (
	ShiftADM    Shift = "ADM"
	SecondShift Shift = "2°Turno"
)

// Shifts lists every shift in display order.
var Shifts = []Shift{ShiftADM, SecondShift}

// ParseShift maps user input or stored values to a Shift. Empty and
// unrecognized input fall back to ShiftADM.
func ParseShift(s string) Shift {
	switch s {
	case string(SecondShift), "SecondShift", "2", "2turno", "2° Turno":
		return SecondShift
	default:
		return ShiftADM
	}
}

// Label returns the human-facing shift name.
func (s Shift) Label() string {
	if s == SecondShift {
		return "2° Turno"
	}
	return "Turno ADM"
}

// UnmarshalJSON normalizes stored shift values.
func (s *Shift) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseShift(raw)
	return nil
}

// Status tracks where a lot problem stands.
type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusActive, StatusPending, StatusResolved}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusResolved:
		return true
	}
	return false
}

// Label returns the status text shown on the floor.
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "Ativo"
	case StatusPending:
		return "Pendente"
	case StatusResolved:
		return "Resolvido"
	default:
		return "Inativo"
	}
}

// Record is one logged ribbon lot problem.
type Record struct {
	ID          string    `json:"id"`
	LotNumber   string    `json:"lotNumber"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Shift       Shift     `json:"shift"`
	RibbonModel string    `json:"ribbonModel"`
	Quantity    int       `json:"quantity"`
	Problem     string    `json:"problem"`
	Details     string    `json:"details"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	Attachment  string    `json:"attachment,omitempty"` // data URL
}

// HasAttachment reports whether an image is attached.
func (r Record) HasAttachment() bool {
	return r.Attachment != ""
}
