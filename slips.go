package carebill

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billslip"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
)

// ──────────────────────────────────────────────────
// Bill Slips
// ──────────────────────────────────────────────────

// GenerateBillSlips creates the numbered slip for every (payer, month) pair
// that has third-party bills but no slip yet. Existing slips are left alone.
// The bills a new slip covers lose their editability in the same commit:
// deleting one afterwards would silently break the slip's reconciled total.
func (e *Engine) GenerateBillSlips(ctx context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error) {
	comp, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	bills, err := e.store.ListBills(ctx, companyID, bill.ListOpts{PayerOnly: true})
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(bills, func(b *bill.Bill) payerMonth {
		return payerMonth{payerID: b.PayerID, month: b.Month()}
	})

	var created []*billslip.BillSlip
	for _, key := range payerMonthKeys(bills) {
		_, err := e.store.GetBillSlipByPayerMonth(ctx, companyID, key.payerID, key.month)
		if err == nil {
			continue
		}
		if !IsNotFound(err) {
			return nil, err
		}

		slip := &billslip.BillSlip{
			Entity:    types.NewEntity(),
			ID:        id.NewBillSlipID(),
			CompanyID: companyID,
			PayerID:   key.payerID,
			Month:     key.month,
		}

		covered := lo.Map(grouped[key], func(b *bill.Bill, _ int) id.BillID { return b.ID })
		batch := &store.DocumentBatch{
			Slips:        []*billslip.BillSlip{slip},
			LockBills:    covered,
			RenderNumber: e.renderNumber(comp),
		}
		if err := e.store.CreateDocumentBatch(ctx, companyID, batch); err != nil {
			return nil, err
		}

		e.plugins.EmitSequenceAllocated(ctx, string(sequence.KindBillSlip), slip.Number)
		created = append(created, slip)
	}

	return created, nil
}

// BillSlipReport is the read-only reconciliation view: for every third-party
// payer and month, the net of all bills minus the credit notes of the same
// window, joined to the slip number. Pairs without a slip are skipped: this
// view reports against existing slips, it never creates them.
func (e *Engine) BillSlipReport(ctx context.Context, companyID id.CompanyID) ([]billslip.ReportRow, error) {
	bills, err := e.store.ListBills(ctx, companyID, bill.ListOpts{PayerOnly: true})
	if err != nil {
		return nil, err
	}
	notes, err := e.store.ListCreditNotes(ctx, companyID, creditnote.ListOpts{PayerOnly: true})
	if err != nil {
		return nil, err
	}

	payers, err := e.store.ListPayers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	payerNames := map[string]string{}
	for _, p := range payers {
		payerNames[p.ID.String()] = p.Name
	}

	grouped := lo.GroupBy(bills, func(b *bill.Bill) payerMonth {
		return payerMonth{payerID: b.PayerID, month: b.Month()}
	})
	reversals := lo.GroupBy(notes, func(n *creditnote.CreditNote) payerMonth {
		return payerMonth{payerID: n.PayerID, month: n.Month()}
	})

	var rows []billslip.ReportRow
	for _, key := range payerMonthKeys(bills) {
		slip, err := e.store.GetBillSlipByPayerMonth(ctx, companyID, key.payerID, key.month)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}

		net := decimal.Zero
		for _, b := range grouped[key] {
			net = net.Add(b.NetInclTaxes)
		}
		for _, n := range reversals[key] {
			net = net.Sub(n.InclTaxesTpp)
		}

		rows = append(rows, billslip.ReportRow{
			PayerID:      key.payerID,
			PayerName:    payerNames[key.payerID.String()],
			Month:        key.month,
			NetInclTaxes: types.Round2(net),
			Number:       slip.Number,
		})
	}

	return rows, nil
}

// ListBillSlips lists all slips of a company.
func (e *Engine) ListBillSlips(ctx context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error) {
	return e.store.ListBillSlips(ctx, companyID)
}

type payerMonth struct {
	payerID id.PayerID
	month   string
}

// payerMonthKeys returns the distinct (payer, month) pairs of the bills,
// ordered by month then payer for stable output.
func payerMonthKeys(bills []*bill.Bill) []payerMonth {
	keys := lo.Uniq(lo.Map(bills, func(b *bill.Bill, _ int) payerMonth {
		return payerMonth{payerID: b.PayerID, month: b.Month()}
	}))
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].payerID.String() < keys[j].payerID.String()
	})
	return keys
}
