package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/temporal"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Funding Management
// ──────────────────────────────────────────────────

// CreateFunding records a third-party subsidy agreement on a subscription.
//
// At most one funding may be active for a subscription at any instant, and
// the funding plan id must be present exactly when the payer carries a
// teletransmission id.
func (e *Engine) CreateFunding(ctx context.Context, f *funding.Funding) error {
	if len(f.Versions) == 0 {
		return ValidationError{Field: "versions", Message: "at least one funding version is required"}
	}
	if err := validateFundingVersions(f.Versions); err != nil {
		return err
	}

	p, err := e.store.GetPayer(ctx, f.CompanyID, f.PayerID)
	if err != nil {
		return err
	}
	if err := checkFundingPlan(p.RequiresFundingPlan(), f.Versions); err != nil {
		return err
	}

	if _, err := e.store.GetSubscription(ctx, f.CompanyID, f.SubscriptionID); err != nil {
		return err
	}

	existing, err := e.store.ListFundingsBySubscription(ctx, f.CompanyID, f.SubscriptionID)
	if err != nil {
		return err
	}
	for _, ex := range existing {
		if fundingsOverlap(ex, f) {
			return fmt.Errorf("%w: funding %s", ErrFundingConflict, ex.ID)
		}
	}

	if f.ID == (id.FundingID{}) {
		f.ID = id.NewFundingID()
	}
	f.Entity = types.NewEntity()

	if err := e.store.CreateFunding(ctx, f); err != nil {
		return err
	}

	e.plugins.EmitFundingCreated(ctx, f)
	return nil
}

// GetFunding retrieves a funding by ID.
func (e *Engine) GetFunding(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID) (*funding.Funding, error) {
	return e.store.GetFunding(ctx, companyID, fundingID)
}

// ListFundings lists a customer's fundings.
func (e *Engine) ListFundings(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*funding.Funding, error) {
	return e.store.ListFundingsByCustomer(ctx, companyID, customerID)
}

// AddFundingVersion appends a version to the funding history. The previous
// open version is closed at the new version's start.
func (e *Engine) AddFundingVersion(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, ver funding.Version) error {
	f, err := e.store.GetFunding(ctx, companyID, fundingID)
	if err != nil {
		return err
	}

	if ver.CreatedAt.IsZero() {
		ver.CreatedAt = e.now().UTC()
	}

	// Work on a copied version slice: LastVersion points into the fetched
	// funding, and a failed validation must not close the stored open
	// version behind a store that shares pointers.
	next := append(append([]funding.Version{}, f.Versions...), ver)
	if len(f.Versions) > 0 {
		last := &next[len(f.Versions)-1]
		if last.EndDate == nil {
			if !ver.StartDate.After(last.StartDate) {
				return fmt.Errorf("%w: new version must start after %s",
					ErrFundingDates, last.StartDate.Format(time.RFC3339))
			}
			end := ver.StartDate
			last.EndDate = &end
		}
	}

	if err := validateFundingVersions(next); err != nil {
		return err
	}

	p, err := e.store.GetPayer(ctx, companyID, f.PayerID)
	if err != nil {
		return err
	}
	if err := checkFundingPlan(p.RequiresFundingPlan(), []funding.Version{ver}); err != nil {
		return err
	}

	f.Versions = next
	f.Touch()
	return e.store.UpdateFunding(ctx, f)
}

// EndFunding closes the funding's open version at the given date.
func (e *Engine) EndFunding(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, endDate time.Time) error {
	f, err := e.store.GetFunding(ctx, companyID, fundingID)
	if err != nil {
		return err
	}

	last := f.LastVersion()
	if last == nil || last.EndDate != nil {
		return fmt.Errorf("%w: funding %s has no open version", ErrFundingDates, fundingID)
	}
	if !endDate.After(last.StartDate) {
		return fmt.Errorf("%w: end %s not after start %s",
			ErrFundingDates, endDate.Format(time.RFC3339), last.StartDate.Format(time.RFC3339))
	}

	last.EndDate = &endDate
	f.Touch()

	if err := e.store.UpdateFunding(ctx, f); err != nil {
		return err
	}

	e.plugins.EmitFundingEnded(ctx, f)
	return nil
}

// FundingRemaining reports how much of the funding cap is left for an
// accounting period: the period cap minus every ledger row already recorded
// against it. Never negative.
func (e *Engine) FundingRemaining(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) (decimal.Decimal, error) {
	f, err := e.store.GetFunding(ctx, companyID, fundingID)
	if err != nil {
		return decimal.Zero, err
	}

	last := f.LastVersion()
	if last == nil {
		return decimal.Zero, fmt.Errorf("%w: funding %s has no versions", ErrFundingNotFound, fundingID)
	}

	consumed, err := e.store.ListFundingHistory(ctx, companyID, fundingID, period)
	if err != nil {
		return decimal.Zero, err
	}

	return funding.Remaining(last.AmountTTC, consumed), nil
}

// validateFundingVersions checks date ordering within each version and
// overlap across the set.
func validateFundingVersions(versions []funding.Version) error {
	for _, v := range versions {
		if v.EndDate != nil && !v.EndDate.After(v.StartDate) {
			return fmt.Errorf("%w: end %s not after start %s",
				ErrFundingDates, v.EndDate.Format(time.RFC3339), v.StartDate.Format(time.RFC3339))
		}
	}
	return temporal.Validate(versions)
}

// checkFundingPlan enforces that versions carry a funding plan id exactly
// when the payer transmits electronically.
func checkFundingPlan(required bool, versions []funding.Version) error {
	for _, v := range versions {
		if required && v.FundingPlanID == "" {
			return fmt.Errorf("%w: payer requires a funding plan id", ErrFundingPlanID)
		}
		if !required && v.FundingPlanID != "" {
			return fmt.Errorf("%w: payer has no teletransmission id", ErrFundingPlanID)
		}
	}
	return nil
}

// fundingsOverlap reports whether the active spans of two fundings on the
// same subscription intersect.
func fundingsOverlap(a, b *funding.Funding) bool {
	aStart, aEnd := fundingSpan(a)
	bStart, bEnd := fundingSpan(b)

	if aEnd != nil && !aEnd.After(bStart) {
		return false
	}
	if bEnd != nil && !bEnd.After(aStart) {
		return false
	}
	return true
}

// fundingSpan is the [start, end) interval covered by any version of the
// funding; end is nil when the funding is open-ended.
func fundingSpan(f *funding.Funding) (time.Time, *time.Time) {
	var start time.Time
	var end *time.Time
	open := false
	for i, v := range f.Versions {
		if i == 0 || v.StartDate.Before(start) {
			start = v.StartDate
		}
		if v.EndDate == nil {
			// An open version keeps the whole funding open regardless of
			// the other versions' explicit ends.
			open = true
			continue
		}
		if end == nil || v.EndDate.After(*end) {
			end = v.EndDate
		}
	}
	if open {
		return start, nil
	}
	return start, end
}
