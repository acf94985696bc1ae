package workorder

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{E("create", ErrConflict, errors.New("unique")), "conflict"},
		{fmt.Errorf("wrapped: %w", E("get", ErrNotFound, nil)), "not_found"},
		{fmt.Errorf("plain: %w", ErrUnauthorized), "unauthorized"},
		{E("list", nil, ErrArchived), "archived"},
		{errors.New("disk on fire"), "storage"},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("constraint failed")
	err := E("insert work order", ErrConflict, cause)
	if !errors.Is(err, ErrConflict) || !errors.Is(err, cause) {
		t.Fatalf("expected error to match kind and cause: %v", err)
	}
	if err.Error() != "insert work order: already exists: constraint failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %v", d)
	}
	if zero, err := ParseDate(" "); err != nil || !zero.IsZero() {
		t.Fatalf("blank should parse to zero, got %v, %v", zero, err)
	}
	if _, err := ParseDate("01/03/2024"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ts, err := ParseDate("2024-03-01T18:30:00Z"); err != nil || FormatDate(ts) != "2024-03-01" {
		t.Fatalf("timestamp parse = %v, %v", ts, err)
	}
}

func TestDaysBetween(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-03-01")
	if got := DaysBetween(start, end); got != 60 {
		t.Fatalf("DaysBetween = %d", got)
	}
	if got := DaysBetween(end, start); got != -60 {
		t.Fatalf("reverse DaysBetween = %d", got)
	}
}
