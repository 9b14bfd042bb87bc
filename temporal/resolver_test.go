package temporal

import (
	"errors"
	"testing"
	"time"
)

type span struct {
	start time.Time
	end   *time.Time
}

func (s span) VersionStart() time.Time { return s.start }
func (s span) VersionEnd() *time.Time  { return s.end }

func day(d int) time.Time {
	return time.Date(2019, time.January, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestResolve(t *testing.T) {
	versions := []span{
		{start: day(1)},
		{start: day(10)},
		{start: day(20)},
	}

	tests := []struct {
		name      string
		at        time.Time
		wantStart time.Time
		wantErr   bool
	}{
		{"first day of first version", day(1), day(1), false},
		{"inside first version", day(5), day(1), false},
		{"boundary belongs to next version", day(10), day(10), false},
		{"inside middle version", day(15), day(10), false},
		{"last version is open ended", day(25), day(20), false},
		{"far future still covered", day(20).AddDate(10, 0, 0), day(20), false},
		{"before earliest version", day(1).Add(-time.Hour), time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.at, versions)
			if tt.wantErr {
				if !errors.Is(err, ErrNoVersion) {
					t.Fatalf("expected ErrNoVersion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !got.start.Equal(tt.wantStart) {
				t.Errorf("got version starting %s, want %s", got.start, tt.wantStart)
			}
		})
	}
}

func TestResolveExplicitEnd(t *testing.T) {
	versions := []span{
		{start: day(1), end: ptr(day(10))},
	}

	if _, err := Resolve(day(5), versions); err != nil {
		t.Fatalf("date inside explicit interval: %v", err)
	}

	// End bound is exclusive.
	if _, err := Resolve(day(10), versions); !errors.Is(err, ErrNoVersion) {
		t.Errorf("expected ErrNoVersion at exclusive end, got %v", err)
	}

	if _, err := Resolve(day(15), versions); !errors.Is(err, ErrNoVersion) {
		t.Errorf("expected ErrNoVersion after explicit end, got %v", err)
	}
}

func TestResolveUnsortedInput(t *testing.T) {
	versions := []span{
		{start: day(20)},
		{start: day(1)},
		{start: day(10)},
	}

	got, err := Resolve(day(12), versions)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !got.start.Equal(day(10)) {
		t.Errorf("got version starting %s, want %s", got.start, day(10))
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := Resolve(day(1), []span{}); !errors.Is(err, ErrNoVersion) {
		t.Errorf("expected ErrNoVersion for empty list, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		versions []span
		wantErr  bool
	}{
		{"empty", nil, false},
		{"single", []span{{start: day(1)}}, false},
		{"contiguous", []span{{start: day(1)}, {start: day(10)}, {start: day(20)}}, false},
		{"explicit end at next start", []span{{start: day(1), end: ptr(day(10))}, {start: day(10)}}, false},
		{"explicit end before next start leaves a gap", []span{{start: day(1), end: ptr(day(5))}, {start: day(10)}}, false},
		{"duplicate start", []span{{start: day(1)}, {start: day(1)}}, true},
		{"explicit end past next start", []span{{start: day(1), end: ptr(day(15))}, {start: day(10)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.versions)
			if tt.wantErr && !errors.Is(err, ErrOverlap) {
				t.Errorf("expected ErrOverlap, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
