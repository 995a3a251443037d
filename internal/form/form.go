// Package form turns raw user input into record payloads: required-field
// checks, quantity coercion, shift defaults, and edit-mode prefill.
package form

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
)

// ErrInvalid is returned by Submit when required fields are missing.
var ErrInvalid = errors.New("form: missing required fields")

// Input is the raw form as typed by the user.
type Input struct {
	LotNumber   string `form:"lotNumber" validate:"required"`
	Shift       string `form:"shift"`
	RibbonModel string `form:"ribbonModel" validate:"required"`
	Quantity    string `form:"quantity" validate:"required"`
	Problem     string `form:"problem" validate:"required"`
	Details     string `form:"details"`
	Status      string `form:"status"`
	// RemoveAttachment drops the current photo in edit mode.
	RemoveAttachment bool `form:"removeAttachment"`
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

// Fields returns the failing field names, sorted.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Error lists the failing fields.
func (fe FieldErrors) Error() string {
	return "missing required field(s): " + strings.Join(fe.Fields(), ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims surrounding whitespace from every text field.
func (in Input) Normalize() Input {
	in.LotNumber = strings.TrimSpace(in.LotNumber)
	in.Shift = strings.TrimSpace(in.Shift)
	in.RibbonModel = strings.TrimSpace(in.RibbonModel)
	in.Quantity = strings.TrimSpace(in.Quantity)
	in.Problem = strings.TrimSpace(in.Problem)
	in.Details = strings.TrimSpace(in.Details)
	in.Status = strings.TrimSpace(in.Status)
	return in
}

// Validate reports missing required fields. A nil result means the input can
// be submitted.
func Validate(in Input) FieldErrors {
	err := validate.Struct(in.Normalize())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	fe := FieldErrors{}
	for _, e := range verrs {
		fe[e.Field()] = "Campo obrigatório"
	}
	return fe
}

// ParseQuantity reads the leading integer of s. Anything unparseable, and
// any negative value, becomes 0.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Payload converts the input for a create.
func (in Input) Payload() lot.Payload {
	in = in.Normalize()
	return lot.Payload{
		LotNumber:   in.LotNumber,
		Shift:       models.ParseShift(in.Shift),
		RibbonModel: in.RibbonModel,
		Quantity:    ParseQuantity(in.Quantity),
		Problem:     in.Problem,
		Details:     in.Details,
	}
}

// Patch converts the input for an edit. Every editable field is replaced;
// status only when one was chosen.
func (in Input) Patch() lot.Patch {
	in = in.Normalize()
	shift := models.ParseShift(in.Shift)
	qty := ParseQuantity(in.Quantity)
	p := lot.Patch{
		LotNumber:   &in.LotNumber,
		Shift:       &shift,
		RibbonModel: &in.RibbonModel,
		Quantity:    &qty,
		Problem:     &in.Problem,
		Details:     &in.Details,
	}
	if in.Status != "" {
		st := models.Status(in.Status)
		p.Status = &st
	}
	if in.RemoveAttachment {
		empty := ""
		p.Attachment = &empty
	}
	return p
}

// FromRecord pre-populates an edit form.
func FromRecord(r models.Record) Input {
	return Input{
		LotNumber:   r.LotNumber,
		Shift:       string(r.Shift),
		RibbonModel: r.RibbonModel,
		Quantity:    strconv.Itoa(r.Quantity),
		Problem:     r.Problem,
		Details:     r.Details,
		Status:      string(r.Status),
	}
}

// Mode says whether a Form creates a record or edits one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Recorder is the part of the record store a form submits to.
type Recorder interface {
	Create(ctx context.Context, p lot.Payload) (models.Record, error)
	Update(ctx context.Context, id string, p lot.Patch) (models.Record, bool, error)
}

// Form is one open create or edit dialog.
type Form struct {
	Mode   Mode
	ID     string // record being edited
	Input  Input
	Errors FieldErrors

	pending    <-chan AttachmentResult
	attachment string
}

// NewCreate opens an empty create form with the shift preset to ADM.
func NewCreate() *Form {
	return &Form{Mode: ModeCreate, Input: Input{Shift: string(models.ShiftADM)}}
}

// NewEdit opens an edit form prefilled from rec.
func NewEdit(rec models.Record) *Form {
	return &Form{Mode: ModeEdit, ID: rec.ID, Input: FromRecord(rec)}
}

// Attach starts tracking an attachment read. A later Attach replaces it.
func (f *Form) Attach(ch <-chan AttachmentResult) {
	f.pending = ch
	f.attachment = ""
}

// Settle waits for a pending attachment read to finish or ctx to end.
func (f *Form) Settle(ctx context.Context) error {
	if f.pending == nil {
		return nil
	}
	select {
	case res, ok := <-f.pending:
		f.resolve(res, ok)
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poll collects a finished attachment read without blocking.
func (f *Form) poll() {
	if f.pending == nil {
		return
	}
	select {
	case res, ok := <-f.pending:
		f.resolve(res, ok)
	default:
	}
}

func (f *Form) resolve(res AttachmentResult, ok bool) {
	f.pending = nil
	if ok && res.Err == nil {
		f.attachment = res.DataURL
	}
}

// Attachment returns the encoded attachment once its read has completed.
func (f *Form) Attachment() string {
	f.poll()
	return f.attachment
}

// Submit validates the input and hands it to the store. An attachment whose
// read has not finished is left out rather than waited for. On success the
// form is cleared. The boolean is false when an edited record no longer exists.
func (f *Form) Submit(ctx context.Context, r Recorder) (models.Record, bool, error) {
	f.Errors = Validate(f.Input)
	if f.Errors != nil {
		return models.Record{}, false, ErrInvalid
	}
	attachment := f.Attachment()

	var (
		rec models.Record
		ok  = true
		err error
	)
	switch f.Mode {
	case ModeEdit:
		p := f.Input.Patch()
		if attachment != "" {
			p.Attachment = &attachment
		}
		rec, ok, err = r.Update(ctx, f.ID, p)
	default:
		p := f.Input.Payload()
		p.Attachment = attachment
		rec, err = r.Create(ctx, p)
	}
	if err != nil {
		return rec, ok, err
	}
	f.Reset()
	return rec, ok, nil
}

// Reset clears the form back to an empty create form.
func (f *Form) Reset() {
	*f = *NewCreate()
}
