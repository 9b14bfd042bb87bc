package carebill

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
)

// CreditNoteInput describes a reversal to issue. When the third-party payer
// amounts are non-zero the reversal produces a pair of linked notes, one per
// side, numbered consecutively.
type CreditNoteInput struct {
	CustomerID     id.CustomerID
	PayerID        id.PayerID
	SubscriptionID id.SubscriptionID
	// EventIDs references the cancelled interventions being reversed.
	EventIDs []id.EventID
	Date     time.Time

	InclTaxesCustomer decimal.Decimal
	ExclTaxesCustomer decimal.Decimal
	InclTaxesTpp      decimal.Decimal
	ExclTaxesTpp      decimal.Decimal
}

// ──────────────────────────────────────────────────
// Credit Notes
// ──────────────────────────────────────────────────

// CreateCreditNote issues the reversal documents for the input: a customer
// note, plus a linked payer note when a payer share is reversed. Both notes
// persist atomically or not at all.
func (e *Engine) CreateCreditNote(ctx context.Context, companyID id.CompanyID, in CreditNoteInput) ([]*creditnote.CreditNote, error) {
	hasTpp := in.InclTaxesTpp.IsPositive() || in.ExclTaxesTpp.IsPositive()
	if hasTpp && in.PayerID == (id.PayerID{}) {
		return nil, ValidationError{Field: "third_party_payer_id", Message: "payer is required to reverse a payer share"}
	}
	if in.Date.IsZero() {
		in.Date = e.now()
	}

	comp, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cust, err := e.store.GetCustomer(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if cust.IsArchived() {
		return nil, ErrCustomerArchived
	}
	if hasTpp {
		if _, err := e.store.GetPayer(ctx, companyID, in.PayerID); err != nil {
			return nil, err
		}
	}

	var eventLines []bill.EventLine
	if len(in.EventIDs) > 0 {
		events, err := e.store.GetEvents(ctx, companyID, in.EventIDs)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			line := bill.EventLine{
				EventID:     ev.ID,
				AuxiliaryID: ev.AuxiliaryID,
				StartDate:   ev.StartDate,
				EndDate:     ev.EndDate,
			}
			if ev.Bills != nil {
				line.CareHours = ev.Bills.CareHours
				line.InclTaxes = ev.Bills.InclTaxes()
				line.ExclTaxes = ev.Bills.ExclTaxes()
				line.FundingID = ev.Bills.FundingID
			}
			eventLines = append(eventLines, line)
		}
	}

	custNote := &creditnote.CreditNote{
		Entity:            types.NewEntity(),
		ID:                id.NewCreditNoteID(),
		CompanyID:         companyID,
		CustomerID:        in.CustomerID,
		Date:              in.Date,
		Origin:            bill.OriginInternal,
		SubscriptionID:    in.SubscriptionID,
		Events:            eventLines,
		InclTaxesCustomer: types.Round2(in.InclTaxesCustomer),
		ExclTaxesCustomer: types.Round2(in.ExclTaxesCustomer),
		IsEditable:        true,
	}

	notes := []*creditnote.CreditNote{custNote}

	if hasTpp {
		payerNote := &creditnote.CreditNote{
			Entity:         types.NewEntity(),
			ID:             id.NewCreditNoteID(),
			CompanyID:      companyID,
			CustomerID:     in.CustomerID,
			PayerID:        in.PayerID,
			Date:           in.Date,
			Origin:         bill.OriginInternal,
			SubscriptionID: in.SubscriptionID,
			Events:         eventLines,
			InclTaxesTpp:   types.Round2(in.InclTaxesTpp),
			ExclTaxesTpp:   types.Round2(in.ExclTaxesTpp),
			IsEditable:     true,
		}
		custNote.LinkedCreditNoteID = payerNote.ID
		payerNote.LinkedCreditNoteID = custNote.ID
		notes = append(notes, payerNote)
	}

	// The store numbers the notes inside the batch commit; the pair draws
	// consecutive values from the same counter.
	batch := &store.DocumentBatch{
		CreditNotes:  notes,
		RenderNumber: e.renderNumber(comp),
	}
	if err := e.store.CreateDocumentBatch(ctx, companyID, batch); err != nil {
		return nil, err
	}

	for _, n := range notes {
		e.plugins.EmitSequenceAllocated(ctx, string(sequence.KindCreditNote), n.Number)
		e.plugins.EmitCreditNoteCreated(ctx, n)
	}
	return notes, nil
}

// GetCreditNote retrieves a credit note by ID.
func (e *Engine) GetCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	return e.store.GetCreditNote(ctx, companyID, noteID)
}

// ListCreditNotes lists credit notes matching the options, ordered by number.
func (e *Engine) ListCreditNotes(ctx context.Context, companyID id.CompanyID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	return e.store.ListCreditNotes(ctx, companyID, opts)
}

// DeleteCreditNote removes a credit note and, for a linked pair, its
// counterpart. Same guards as bills: internal origin, still editable,
// customer not archived.
func (e *Engine) DeleteCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error {
	n, err := e.store.GetCreditNote(ctx, companyID, noteID)
	if err != nil {
		return err
	}

	if !n.IsInternal() {
		return ErrExternalDocument
	}
	if !n.IsEditable {
		return ErrDocumentNotEditable
	}

	cust, err := e.store.GetCustomer(ctx, companyID, n.CustomerID)
	if err != nil {
		return err
	}
	if cust.IsArchived() {
		return ErrCustomerArchived
	}

	if err := e.store.DeleteCreditNote(ctx, companyID, noteID); err != nil {
		return err
	}
	e.plugins.EmitCreditNoteDeleted(ctx, noteID.String())

	// A reversal pair lives and dies together.
	if n.LinkedCreditNoteID != (id.CreditNoteID{}) {
		if err := e.store.DeleteCreditNote(ctx, companyID, n.LinkedCreditNoteID); err != nil && !IsNotFound(err) {
			return err
		}
		e.plugins.EmitCreditNoteDeleted(ctx, n.LinkedCreditNoteID.String())
	}

	return nil
}
