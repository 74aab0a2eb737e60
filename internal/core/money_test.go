package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:         "0,00",
		5:         "0,05",
		123456:    "1.234,56",
		100000000: "1.000.000,00",
		-2550:     "-25,50",
	}
	for in, want := range cases {
		if got := FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 1234, "b": "12,34"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != 1234 || v.B.Cents != 1234 {
		t.Fatalf("got %+v", v)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":1234,"b":1234}` {
		t.Fatalf("got %s", out)
	}
	if Cents(1999).String() != "19.99" {
		t.Fatalf("String: got %s", Cents(1999).String())
	}
}

func TestMonthArithmetic(t *testing.T) {
	m := Month{Year: 2024, Month: 12}
	if got := m.Next(); got != (Month{Year: 2025, Month: 1}) {
		t.Fatalf("Next: got %v", got)
	}
	if got := m.Add(-12); got != (Month{Year: 2023, Month: 12}) {
		t.Fatalf("Add(-12): got %v", got)
	}
	if got := (Month{Year: 2024, Month: 2}).Days(); got != 29 {
		t.Fatalf("Feb 2024 days: got %d", got)
	}
	if got := MonthOf(2025, 14); got != (Month{Year: 2026, Month: 2}) {
		t.Fatalf("MonthOf: got %v", got)
	}
	if !m.Contains(NewDate(2024, 12, 31)) || m.Contains(NewDate(2025, 1, 1)) {
		t.Fatal("Contains mismatch")
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		in   Date
		n    int
		want Date
	}{
		{NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{NewDate(2025, 1, 31), 3, NewDate(2025, 4, 30)},
		{NewDate(2025, 11, 15), 3, NewDate(2026, 2, 15)},
	}
	for _, tc := range cases {
		if got := tc.in.AddMonthsClamped(tc.n); !got.Equal(tc.want.Time) {
			t.Errorf("%s + %d: got %s, want %s", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-03-04","e":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.D.Year() != 2025 || v.D.Month() != 3 || v.D.Day() != 4 || !v.E.IsEmpty() {
		t.Fatalf("got %+v", v)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"d":"2025-03-04","e":null}` {
		t.Fatalf("got %s", out)
	}
	if err := json.Unmarshal([]byte(`{"d":"04/03/2025"}`), &v); err == nil {
		t.Fatal("expected error for bad layout")
	}
}
