package docxtemplate

import (
	"testing"
	"time"
)

func TestFormatValueNumbers(t *testing.T) {
	opts := DefaultOptions()
	n2 := "N2"
	if got := FormatValue(Float(1234.5), &n2, opts); got != "1234.50" {
		t.Errorf("got %q, want %q", got, "1234.50")
	}
	if got := FormatValue(Int(7), nil, opts); got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

func TestFormatValueNumbersCultureSeparator(t *testing.T) {
	opts := DefaultOptions()
	opts.Culture = "de-DE"
	n2 := "N2"
	if got := FormatValue(Float(1234.5), &n2, opts); got != "1234,50" {
		t.Errorf("got %q, want %q", got, "1234,50")
	}
}

func TestFormatValueBoolDefaultsAndFormatter(t *testing.T) {
	opts := DefaultOptions()
	if got := FormatValue(Bool(true), nil, opts); got != "True" {
		t.Errorf("got %q, want True", got)
	}
	yesno := "yesno"
	if got := FormatValue(Bool(true), &yesno, opts); got != "Yes" {
		t.Errorf("got %q, want Yes", got)
	}
	if got := FormatValue(Bool(false), &yesno, opts); got != "No" {
		t.Errorf("got %q, want No", got)
	}
}

func TestFormatValueDateTokens(t *testing.T) {
	opts := DefaultOptions()
	d := Date(time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC))
	f := "yyyy-MM-dd"
	if got := FormatValue(d, &f, opts); got != "2026-03-05" {
		t.Errorf("got %q, want 2026-03-05", got)
	}
}

func TestFormatValueStringFallback(t *testing.T) {
	opts := DefaultOptions()
	if got := FormatValue(String("plain"), nil, opts); got != "plain" {
		t.Errorf("got %q, want plain", got)
	}
}
