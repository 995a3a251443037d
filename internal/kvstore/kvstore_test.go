package kvstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/ribbonlog/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Every new :memory: connection is a separate database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.Entry{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func sampleRecords() []models.Record {
	created := time.Date(2026, 3, 4, 14, 5, 0, 0, time.UTC)
	return []models.Record{
		{
			ID: "b", LotNumber: "000124", Date: "04/03/2026", Time: "14:05",
			Shift: models.SecondShift, RibbonModel: "R-1000", Quantity: 3,
			Problem: "Wrinkled", Status: models.StatusPending, CreatedAt: created,
			Attachment: "data:image/png;base64,iVBORw0KGgo=",
		},
		{
			ID: "a", LotNumber: "000123", Date: "04/03/2026", Time: "13:00",
			Shift: models.ShiftADM, RibbonModel: "R-500", Quantity: 10,
			Problem: "Jam", Details: "Line 2", Status: models.StatusActive, CreatedAt: created.Add(-time.Hour),
		},
	}
}

func TestEncode_NilIsEmptyArray(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Encode(nil) = %s, want []", data)
	}
}

func TestEncode_FieldNames(t *testing.T) {
	data, err := Encode(sampleRecords()[:1])
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{`"id":"b"`, `"lotNumber":"000124"`, `"shift":"2°Turno"`,
		`"ribbonModel":"R-1000"`, `"quantity":3`, `"status":"pending"`, `"attachment":"data:image/png`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded blob missing %s: %s", want, data)
		}
	}
}

func TestEncode_OmitsEmptyAttachment(t *testing.T) {
	data, _ := Encode(sampleRecords()[1:])
	if strings.Contains(string(data), "attachment") {
		t.Errorf("empty attachment should be omitted: %s", data)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr bool
	}{
		{name: "null", in: "null", wantLen: 0},
		{name: "empty array", in: "[]", wantLen: 0},
		{name: "one record", in: `[{"id":"x","lotNumber":"1","shift":"ADM","status":"active"}]`, wantLen: 1},
		{name: "truncated", in: `[{"id":"x"`, wantErr: true},
		{name: "object not array", in: `{"id":"x"}`, wantErr: true},
		{name: "garbage", in: "not json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			if !tt.wantErr && got == nil {
				t.Error("Decode should never return a nil slice on success")
			}
		})
	}
}

func TestDecode_LegacyShiftValues(t *testing.T) {
	got, err := Decode([]byte(`[{"id":"1","shift":"2°Turno"},{"id":"2","shift":"SecondShift"},{"id":"3","shift":"night"}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []models.Shift{models.SecondShift, models.SecondShift, models.ShiftADM}
	for i, w := range want {
		if got[i].Shift != w {
			t.Errorf("record %d shift = %q, want %q", i, got[i].Shift, w)
		}
	}
}

func TestNewGormAdapter_Validation(t *testing.T) {
	if _, err := NewGormAdapter(nil, "k"); err == nil {
		t.Error("expected error for nil db")
	}
	if _, err := NewGormAdapter(openTestDB(t), ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestGormAdapter_LoadMissingKey(t *testing.T) {
	a, _ := NewGormAdapter(openTestDB(t), "ribbon-lots")
	got := a.Load(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %v, want empty non-nil list", got)
	}
}

func TestGormAdapter_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := NewGormAdapter(openTestDB(t), "ribbon-lots")

	in := sampleRecords()
	if err := a.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out := a.Load(ctx)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].LotNumber != in[i].LotNumber ||
			out[i].Shift != in[i].Shift || out[i].Attachment != in[i].Attachment ||
			!out[i].CreatedAt.Equal(in[i].CreatedAt) {
			t.Errorf("record %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestGormAdapter_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a, _ := NewGormAdapter(db, "ribbon-lots")

	a.Save(ctx, sampleRecords())
	if err := a.Save(ctx, sampleRecords()[1:]); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if got := a.Load(ctx); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Load() after overwrite = %+v", got)
	}

	var count int64
	db.Model(&models.Entry{}).Count(&count)
	if count != 1 {
		t.Errorf("entries = %d, want a single row", count)
	}
}

func TestGormAdapter_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a, _ := NewGormAdapter(db, "plant1")
	b, _ := NewGormAdapter(db, "plant2")

	a.Save(ctx, sampleRecords())
	if got := b.Load(ctx); len(got) != 0 {
		t.Errorf("plant2 sees %d records from plant1", len(got))
	}
	if b.Key() != "plant2" {
		t.Errorf("Key() = %q", b.Key())
	}
}

func TestGormAdapter_CorruptedBlobLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	db.Create(&models.Entry{Key: "ribbon-lots", Value: "{{{"})

	a, _ := NewGormAdapter(db, "ribbon-lots")
	got := a.Load(ctx)
	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %v, want empty list", got)
	}

	raw, ok, err := a.Raw(ctx)
	if err != nil || !ok || raw != "{{{" {
		t.Errorf("Raw() = %q, %v, %v", raw, ok, err)
	}
}

func TestGormAdapter_ReadErrorLoadsEmpty(t *testing.T) {
	db := openTestDB(t)
	a, _ := NewGormAdapter(db, "ribbon-lots")
	a.Save(context.Background(), sampleRecords())

	sqlDB, _ := db.DB()
	sqlDB.Close()

	if got := a.Load(context.Background()); len(got) != 0 {
		t.Errorf("Load() on closed db = %v, want empty", got)
	}
	if err := a.Save(context.Background(), nil); err == nil {
		t.Error("Save on closed db should fail")
	}
}

func TestMemoryAdapter(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter("ribbon-lots")

	if got := a.Load(ctx); len(got) != 0 {
		t.Fatalf("fresh adapter Load() = %v", got)
	}
	if _, ok, _ := a.Raw(ctx); ok {
		t.Error("fresh adapter should report missing key")
	}

	a.Save(ctx, sampleRecords())
	if got := a.Load(ctx); len(got) != 2 {
		t.Errorf("Load() len = %d, want 2", len(got))
	}

	a.SetRaw("garbage")
	if got := a.Load(ctx); len(got) != 0 {
		t.Errorf("corrupted Load() = %v, want empty", got)
	}

	a.SaveErr = errors.New("quota exceeded")
	if err := a.Save(ctx, sampleRecords()); err == nil {
		t.Error("expected SaveErr")
	}
	if raw, _, _ := a.Raw(ctx); raw != "garbage" {
		t.Errorf("failed save touched the blob: %q", raw)
	}
}
