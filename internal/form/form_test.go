package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/ribbonlog/internal/kvstore"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
)

func validInput() Input {
	return Input{LotNumber: "000123", RibbonModel: "R-500", Quantity: "10", Problem: "Jam"}
}

func newStore(t *testing.T) *lot.Store {
	t.Helper()
	s, err := lot.New(lot.Opts{Adapter: kvstore.NewMemoryAdapter("ribbon-lots")})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		want   []string
	}{
		{"valid", func(*Input) {}, nil},
		{"missing lot number", func(in *Input) { in.LotNumber = "" }, []string{"lotNumber"}},
		{"whitespace lot number", func(in *Input) { in.LotNumber = "   " }, []string{"lotNumber"}},
		{"missing model", func(in *Input) { in.RibbonModel = "" }, []string{"ribbonModel"}},
		{"missing quantity", func(in *Input) { in.Quantity = "" }, []string{"quantity"}},
		{"missing problem", func(in *Input) { in.Problem = "" }, []string{"problem"}},
		{"details optional", func(in *Input) { in.Details = "" }, nil},
		{"everything missing", func(in *Input) { *in = Input{} }, []string{"lotNumber", "problem", "quantity", "ribbonModel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			fe := Validate(in)
			if tt.want == nil {
				if fe != nil {
					t.Fatalf("Validate() = %v, want nil", fe)
				}
				return
			}
			got := fe.Fields()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
			for _, f := range got {
				if fe[f] != "Campo obrigatório" {
					t.Errorf("message for %s = %q", f, fe[f])
				}
			}
		})
	}
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{"problem": "x", "lotNumber": "x"}
	if got := fe.Error(); got != "missing required field(s): lotNumber, problem" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"10":    10,
		" 7 ":   7,
		"":      0,
		"abc":   0,
		"12abc": 12,
		"-3":    0,
		"+4":    4,
		"0":     0,
		"3.9":   3,
		"-":     0,
	}
	for in, want := range tests {
		if got := ParseQuantity(in); got != want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPayload(t *testing.T) {
	in := validInput()
	in.LotNumber = "  000123 "
	in.Shift = ""
	in.Details = "Line 2"

	p := in.Payload()
	if p.LotNumber != "000123" {
		t.Errorf("LotNumber = %q", p.LotNumber)
	}
	if p.Shift != models.ShiftADM {
		t.Errorf("Shift = %q, want ADM default", p.Shift)
	}
	if p.Quantity != 10 {
		t.Errorf("Quantity = %d", p.Quantity)
	}
	if p.Details != "Line 2" {
		t.Errorf("Details = %q", p.Details)
	}

	in.Shift = "2°Turno"
	if got := in.Payload().Shift; got != models.SecondShift {
		t.Errorf("Shift = %q, want second shift", got)
	}
}

func TestPatch(t *testing.T) {
	in := validInput()
	p := in.Patch()
	if p.Status != nil {
		t.Error("empty status should not be patched")
	}
	if p.Attachment != nil {
		t.Error("attachment should not be patched by default")
	}
	if p.LotNumber == nil || *p.LotNumber != "000123" || p.Quantity == nil || *p.Quantity != 10 {
		t.Errorf("Patch() = %+v", p)
	}

	in.Status = "resolved"
	in.RemoveAttachment = true
	p = in.Patch()
	if p.Status == nil || *p.Status != models.StatusResolved {
		t.Errorf("Status = %v", p.Status)
	}
	if p.Attachment == nil || *p.Attachment != "" {
		t.Errorf("Attachment = %v, want cleared", p.Attachment)
	}
}

func TestFromRecord(t *testing.T) {
	rec := models.Record{
		ID: "x", LotNumber: "000123", Shift: models.SecondShift, RibbonModel: "R-500",
		Quantity: 10, Problem: "Jam", Details: "d", Status: models.StatusPending,
	}
	in := FromRecord(rec)
	want := Input{LotNumber: "000123", Shift: "2°Turno", RibbonModel: "R-500", Quantity: "10", Problem: "Jam", Details: "d", Status: "pending"}
	if in != want {
		t.Errorf("FromRecord() = %+v, want %+v", in, want)
	}
}

func TestForm_CreateSubmit(t *testing.T) {
	s := newStore(t)
	f := NewCreate()
	if f.Input.Shift != "ADM" {
		t.Errorf("new form shift = %q, want ADM", f.Input.Shift)
	}
	f.Input = validInput()

	rec, ok, err := f.Submit(context.Background(), s)
	if err != nil || !ok {
		t.Fatalf("Submit = %v, %v", ok, err)
	}
	if rec.LotNumber != "000123" || rec.Status != models.StatusActive {
		t.Errorf("record = %+v", rec)
	}
	if f.Input != NewCreate().Input {
		t.Errorf("form not cleared: %+v", f.Input)
	}
	if len(s.List()) != 1 {
		t.Errorf("store has %d records", len(s.List()))
	}
}

func TestForm_InvalidBlocksSubmit(t *testing.T) {
	s := newStore(t)
	f := NewCreate()
	f.Input.LotNumber = "000123"

	_, _, err := f.Submit(context.Background(), s)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if _, ok := f.Errors["problem"]; !ok {
		t.Errorf("Errors = %v, want problem", f.Errors)
	}
	if f.Input.LotNumber != "000123" {
		t.Error("invalid submit should keep what the user typed")
	}
	if len(s.List()) != 0 {
		t.Error("invalid submit reached the store")
	}
}

func TestForm_EditSubmit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	orig, _ := s.Create(ctx, lot.Payload{LotNumber: "000123", RibbonModel: "R-500", Quantity: 10, Problem: "Jam", Attachment: "data:image/png;base64,AA=="})

	f := NewEdit(orig)
	if f.Mode != ModeEdit || f.ID != orig.ID || f.Input.LotNumber != "000123" {
		t.Fatalf("NewEdit() = %+v", f)
	}
	f.Input.Problem = "Torn"
	f.Input.Status = "resolved"

	rec, ok, err := f.Submit(ctx, s)
	if err != nil || !ok {
		t.Fatalf("Submit = %v, %v", ok, err)
	}
	if rec.Problem != "Torn" || rec.Status != models.StatusResolved {
		t.Errorf("record = %+v", rec)
	}
	if rec.Attachment != orig.Attachment {
		t.Error("edit without a new photo should keep the old one")
	}
	if rec.ID != orig.ID || rec.Date != orig.Date || rec.Time != orig.Time || !rec.CreatedAt.Equal(orig.CreatedAt) {
		t.Error("edit changed immutable fields")
	}
}

func TestForm_EditMissingRecord(t *testing.T) {
	s := newStore(t)
	f := NewEdit(models.Record{ID: "gone", LotNumber: "1", RibbonModel: "m", Quantity: 1, Problem: "p"})
	_, ok, err := f.Submit(context.Background(), s)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing record")
	}
	if len(s.List()) != 0 {
		t.Error("edit of missing record created something")
	}
}

func TestForm_CancelDoesNotTouchStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	orig, _ := s.Create(ctx, lot.Payload{LotNumber: "000123", RibbonModel: "R-500", Quantity: 10, Problem: "Jam"})

	f := NewEdit(orig)
	f.Input.Problem = "changed but cancelled"
	f.Reset()

	got, _ := s.Get(orig.ID)
	if got.Problem != "Jam" {
		t.Errorf("Problem = %q after cancel", got.Problem)
	}
}

func TestForm_UnfinishedAttachmentIsLeftOut(t *testing.T) {
	s := newStore(t)
	f := NewCreate()
	f.Input = validInput()
	never := make(chan AttachmentResult)
	f.Attach(never)

	rec, _, err := f.Submit(context.Background(), s)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Attachment != "" {
		t.Errorf("Attachment = %q, want unset", rec.Attachment)
	}
}

func TestForm_FinishedAttachmentIsUsed(t *testing.T) {
	s := newStore(t)
	f := NewCreate()
	f.Input = validInput()
	f.Attach(EncodeAttachment(context.Background(), strings.NewReader(string(pngBytes)), 0))
	if err := f.Settle(context.Background()); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	rec, _, _ := f.Submit(context.Background(), s)
	if !strings.HasPrefix(rec.Attachment, "data:image/png;base64,") {
		t.Errorf("Attachment = %q", rec.Attachment)
	}
}

func TestForm_FailedAttachmentLeavesUnset(t *testing.T) {
	f := NewCreate()
	f.Attach(EncodeAttachment(context.Background(), strings.NewReader("plain text, not a photo"), 0))
	err := f.Settle(context.Background())
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("Settle err = %v, want ErrNotImage", err)
	}
	if f.Attachment() != "" {
		t.Error("failed read should leave the attachment unset")
	}
}

func TestForm_SettleWithoutAttachment(t *testing.T) {
	if err := NewCreate().Settle(context.Background()); err != nil {
		t.Errorf("Settle() = %v", err)
	}
}
