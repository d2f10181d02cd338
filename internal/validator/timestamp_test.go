package validator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"StockAnalyzerView/internal/model"
)

func rec(t any, close float64) model.RawRecord {
	return model.RawRecord{Time: t, Close: model.Float(close)}
}

func TestEnsureTimestamps_Numeric(t *testing.T) {
	in := []model.RawRecord{
		rec(float64(1698192000), 1),
		rec(json.Number("1698278400"), 2),
		rec(int64(1698364800), 3),
		rec(1698451200, 4),
	}
	out, err := EnsureTimestamps(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{1698192000, 1698278400, 1698364800, 1698451200}
	for i, r := range out {
		if r.Time != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], r.Time)
		}
		if *r.Close != *in[i].Close {
			t.Errorf("index %d: close changed", i)
		}
	}
	if _, ok := in[0].Time.(float64); !ok {
		t.Error("input record was mutated")
	}
}

func TestEnsureTimestamps_IntegerKinds(t *testing.T) {
	values := []any{int8(1), int16(2), int32(3), uint8(4), uint16(5), uint32(6), uint(7), uint64(8)}
	in := make([]model.RawRecord, len(values))
	for i, v := range values {
		in[i] = rec(v, 1)
	}
	out, err := EnsureTimestamps(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range out {
		if r.Time != int64(i+1) {
			t.Errorf("index %d: expected %d, got %d", i, i+1, r.Time)
		}
	}
}

func TestEnsureTimestamps_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string date", "2023-01-01"},
		{"nil", nil},
		{"fractional", 1698192000.5},
		{"bool", true},
		{"bad json number", json.Number("abc")},
		{"float beyond int64", 1e300},
		{"negative float beyond int64", -1e300},
		{"json number beyond int64", json.Number("1e300")},
		{"uint64 beyond int64", uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []model.RawRecord{rec(float64(1), 1), rec(float64(2), 1), rec(tt.value, 1)}
			_, err := EnsureTimestamps(in)
			var ite *model.InvalidTimestampError
			if !errors.As(err, &ite) {
				t.Fatalf("expected InvalidTimestampError, got %v", err)
			}
			if ite.Index != 2 {
				t.Errorf("expected index 2, got %d", ite.Index)
			}
		})
	}
}

func TestEnsureTimestamps_Empty(t *testing.T) {
	out, err := EnsureTimestamps(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}

func TestCheckAscending(t *testing.T) {
	ok := []model.LinePoint{model.Point(1, 1), model.Point(2, 1), model.Point(5, 1)}
	if err := CheckAscending(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	dup := []model.LinePoint{model.Point(1, 1), model.Point(2, 1), model.Point(2, 1)}
	var use *model.UnorderedSeriesError
	if err := CheckAscending(dup); !errors.As(err, &use) || use.Index != 2 {
		t.Errorf("expected unordered error at index 2, got %v", err)
	}
}

func TestValidate_FullAndSingle(t *testing.T) {
	raw := []model.RawRecord{
		{Time: float64(1), Open: model.Float(10), High: model.Float(11), Low: model.Float(9), Close: model.Float(10.5), Volume: model.Float(100)},
		{Time: float64(2), Volume: model.Float(120)},
	}
	s, err := Validate(raw, model.ResultFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Bars) != 2 || s.Points != nil {
		t.Fatalf("expected 2 bars, got %+v", s)
	}
	if s.Bars[0].Whitespace || !s.Bars[1].Whitespace {
		t.Errorf("whitespace flags wrong: %+v", s.Bars)
	}

	single := []model.RawRecord{{Time: float64(1), Value: model.Float(0.4)}, {Time: float64(2)}}
	s, err = Validate(single, model.ResultSingle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Points) != 2 || s.Points[0].IsPlaceholder() || !s.Points[1].IsPlaceholder() {
		t.Errorf("unexpected points: %+v", s.Points)
	}
}

func TestValidate_MixedVolume(t *testing.T) {
	raw := []model.RawRecord{
		{Time: float64(1), Open: model.Float(1), High: model.Float(1), Low: model.Float(1), Close: model.Float(1), Volume: model.Float(5)},
		{Time: float64(2), Open: model.Float(1), High: model.Float(1), Low: model.Float(1), Close: model.Float(1)},
	}
	if _, err := Validate(raw, model.ResultFull); !errors.Is(err, ErrMixedVolume) {
		t.Errorf("expected ErrMixedVolume, got %v", err)
	}
}
