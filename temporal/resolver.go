// Package temporal resolves which versioned record applies at a point in time.
//
// Subscription pricing and funding terms are stored as append-only version
// lists. A version is valid over the half-open interval [start, end) where
// end is the version's explicit end date if it has one, otherwise the start
// of the next version; the last version without an explicit end is open-ended.
package temporal

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoVersion is returned when no version covers the requested date.
// For a date preceding the earliest version this means the event predates
// any applicable contract; callers must escalate, never bill at zero.
var ErrNoVersion = errors.New("temporal: no version applies at date")

// ErrOverlap is returned by Validate when two versions claim the same instant.
var ErrOverlap = errors.New("temporal: overlapping versions")

// Versioned is a time-bounded snapshot of terms.
type Versioned interface {
	// VersionStart is the instant the version takes effect.
	VersionStart() time.Time
	// VersionEnd is the explicit end of the version, or nil when the version
	// stays in force until superseded by the next one.
	VersionEnd() *time.Time
}

// Resolve returns the single version whose interval contains at.
func Resolve[V Versioned](at time.Time, versions []V) (V, error) {
	var zero V
	if len(versions) == 0 {
		return zero, ErrNoVersion
	}

	sorted := sortedByStart(versions)

	if at.Before(sorted[0].VersionStart()) {
		return zero, fmt.Errorf("%w: %s precedes earliest version %s",
			ErrNoVersion, at.Format(time.RFC3339), sorted[0].VersionStart().Format(time.RFC3339))
	}

	for i, v := range sorted {
		end, bounded := effectiveEnd(sorted, i)
		if !at.Before(v.VersionStart()) && (!bounded || at.Before(end)) {
			return v, nil
		}
	}

	return zero, fmt.Errorf("%w: %s", ErrNoVersion, at.Format(time.RFC3339))
}

// Validate checks that no two versions claim the same instant.
// A violation indicates corrupted history, not bad user input.
func Validate[V Versioned](versions []V) error {
	if len(versions) < 2 {
		return nil
	}

	sorted := sortedByStart(versions)

	for i := 0; i < len(sorted)-1; i++ {
		cur, next := sorted[i], sorted[i+1]
		if !cur.VersionStart().Before(next.VersionStart()) {
			return fmt.Errorf("%w: versions starting %s and %s",
				ErrOverlap, cur.VersionStart().Format(time.RFC3339), next.VersionStart().Format(time.RFC3339))
		}
		if end := cur.VersionEnd(); end != nil && end.After(next.VersionStart()) {
			return fmt.Errorf("%w: version ending %s overlaps version starting %s",
				ErrOverlap, end.Format(time.RFC3339), next.VersionStart().Format(time.RFC3339))
		}
	}

	return nil
}

// effectiveEnd computes the exclusive end bound of sorted[i].
// bounded is false for an open-ended last version.
func effectiveEnd[V Versioned](sorted []V, i int) (end time.Time, bounded bool) {
	explicit := sorted[i].VersionEnd()
	last := i == len(sorted)-1

	switch {
	case explicit == nil && last:
		return time.Time{}, false
	case explicit == nil:
		return sorted[i+1].VersionStart(), true
	case last:
		return *explicit, true
	default:
		// Both bounds present: the earlier one wins so versions stay disjoint.
		next := sorted[i+1].VersionStart()
		if explicit.Before(next) {
			return *explicit, true
		}
		return next, true
	}
}

func sortedByStart[V Versioned](versions []V) []V {
	sorted := make([]V, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VersionStart().Before(sorted[j].VersionStart())
	})
	return sorted
}
