// Package postgres provides a PostgreSQL-backed Store implementation on
// pgx. Sequence counters use INSERT .. ON CONFLICT .. RETURNING, so number
// allocation is a single atomic statement, and document batches run inside
// one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/bill"
	"github.com/xraph/carebill/billingitem"
	"github.com/xraph/carebill/billslip"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/customer"
	"github.com/xraph/carebill/event"
	"github.com/xraph/carebill/funding"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/payer"
	"github.com/xraph/carebill/sequence"
	carebillstore "github.com/xraph/carebill/store"
	"github.com/xraph/carebill/subscription"
)

// compile-time interface check
var _ carebillstore.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL store over an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables and indexes. Statements are
// idempotent, so re-running a deploy is safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("carebill/postgres: %s: %w", m.name, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Company Store ====================

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO carebill_companies (id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID.String(), c.Name, c.Code, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create company: %w", err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	c := new(company.Company)
	var rawID string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, code, created_at, updated_at
		FROM carebill_companies WHERE id = $1`,
		companyID.String()).
		Scan(&rawID, &c.Name, &c.Code, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get company: %w", err)
	}
	c.ID = strToID(rawID)
	return c, nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE carebill_companies SET name = $2, code = $3, updated_at = $4
		WHERE id = $1`,
		c.ID.String(), c.Name, c.Code, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("carebill/postgres: update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrCompanyNotFound
	}
	return nil
}

// ==================== Customer Store ====================

const customerColumns = `id, company_id, first_name, last_name, stopped_at, stop_reason, archived_at, created_at, updated_at`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	c := new(customer.Customer)
	var rawID, rawCompanyID, stopReason string
	err := row.Scan(&rawID, &rawCompanyID, &c.Identity.FirstName, &c.Identity.LastName,
		&c.StoppedAt, &stopReason, &c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = strToID(rawID)
	c.CompanyID = strToID(rawCompanyID)
	c.StopReason = customer.StopReason(stopReason)
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO carebill_customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID.String(), c.CompanyID.String(), c.Identity.FirstName, c.Identity.LastName,
		nullableTime(c.StoppedAt), string(c.StopReason), nullableTime(c.ArchivedAt),
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM carebill_customers
		WHERE id = $1 AND company_id = $2`,
		customerID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get customer: %w", err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, companyID id.CompanyID) ([]*customer.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+` FROM carebill_customers
		WHERE company_id = $1 ORDER BY id`,
		companyID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list customers: %w", err)
	}
	defer rows.Close()

	var out []*customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list customers: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE carebill_customers
		SET first_name = $3, last_name = $4, stopped_at = $5, stop_reason = $6,
		    archived_at = $7, updated_at = $8
		WHERE id = $1 AND company_id = $2`,
		c.ID.String(), c.CompanyID.String(), c.Identity.FirstName, c.Identity.LastName,
		nullableTime(c.StoppedAt), string(c.StopReason), nullableTime(c.ArchivedAt), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("carebill/postgres: update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM carebill_customers WHERE id = $1 AND company_id = $2`,
		customerID.String(), companyID.String())
	if err != nil {
		return fmt.Errorf("carebill/postgres: delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrCustomerNotFound
	}
	return nil
}

// ==================== Third-party payer Store ====================

func (s *Store) CreatePayer(ctx context.Context, p *payer.ThirdPartyPayer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO carebill_third_party_payers
		(id, company_id, name, billing_mode, teletransmission_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID.String(), p.CompanyID.String(), p.Name, string(p.BillingMode),
		p.TeletransmissionID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create payer: %w", err)
	}
	return nil
}

func scanPayer(row pgx.Row) (*payer.ThirdPartyPayer, error) {
	p := new(payer.ThirdPartyPayer)
	var rawID, rawCompanyID, mode string
	err := row.Scan(&rawID, &rawCompanyID, &p.Name, &mode, &p.TeletransmissionID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = strToID(rawID)
	p.CompanyID = strToID(rawCompanyID)
	p.BillingMode = payer.BillingMode(mode)
	return p, nil
}

func (s *Store) GetPayer(ctx context.Context, companyID id.CompanyID, payerID id.PayerID) (*payer.ThirdPartyPayer, error) {
	p, err := scanPayer(s.pool.QueryRow(ctx, `
		SELECT id, company_id, name, billing_mode, teletransmission_id, created_at, updated_at
		FROM carebill_third_party_payers WHERE id = $1 AND company_id = $2`,
		payerID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrPayerNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get payer: %w", err)
	}
	return p, nil
}

func (s *Store) ListPayers(ctx context.Context, companyID id.CompanyID) ([]*payer.ThirdPartyPayer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, name, billing_mode, teletransmission_id, created_at, updated_at
		FROM carebill_third_party_payers WHERE company_id = $1 ORDER BY name`,
		companyID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list payers: %w", err)
	}
	defer rows.Close()

	var out []*payer.ThirdPartyPayer
	for rows.Next() {
		p, err := scanPayer(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list payers: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	versions, err := marshalSubscriptionVersions(sub.Versions)
	if err != nil {
		return fmt.Errorf("carebill/postgres: marshal subscription versions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carebill_subscriptions
		(id, company_id, customer_id, service_name, vat, versions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID.String(), sub.CompanyID.String(), sub.CustomerID.String(),
		sub.ServiceName, decToStr(sub.VAT), versions, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create subscription: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	sub := new(subscription.Subscription)
	var rawID, rawCompanyID, rawCustomerID, vat string
	var versions []byte
	err := row.Scan(&rawID, &rawCompanyID, &rawCustomerID, &sub.ServiceName,
		&vat, &versions, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.ID = strToID(rawID)
	sub.CompanyID = strToID(rawCompanyID)
	sub.CustomerID = strToID(rawCustomerID)
	sub.VAT = strToDec(vat)
	sub.Versions, err = unmarshalSubscriptionVersions(versions)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT id, company_id, customer_id, service_name, vat, versions, created_at, updated_at
		FROM carebill_subscriptions WHERE id = $1 AND company_id = $2`,
		subID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get subscription: %w", err)
	}
	return sub, nil
}

func (s *Store) ListSubscriptionsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*subscription.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, customer_id, service_name, vat, versions, created_at, updated_at
		FROM carebill_subscriptions WHERE company_id = $1 AND customer_id = $2 ORDER BY id`,
		companyID.String(), customerID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list subscriptions: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	versions, err := marshalSubscriptionVersions(sub.Versions)
	if err != nil {
		return fmt.Errorf("carebill/postgres: marshal subscription versions: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE carebill_subscriptions
		SET service_name = $3, vat = $4, versions = $5, updated_at = $6
		WHERE id = $1 AND company_id = $2`,
		sub.ID.String(), sub.CompanyID.String(), sub.ServiceName,
		decToStr(sub.VAT), versions, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("carebill/postgres: update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Funding Store ====================

const fundingColumns = `id, company_id, customer_id, subscription_id, third_party_payer_id, nature, frequency, versions, created_at, updated_at`

func scanFunding(row pgx.Row) (*funding.Funding, error) {
	f := new(funding.Funding)
	var rawID, rawCompanyID, rawCustomerID, rawSubID, rawPayerID, nature, frequency string
	var versions []byte
	err := row.Scan(&rawID, &rawCompanyID, &rawCustomerID, &rawSubID, &rawPayerID,
		&nature, &frequency, &versions, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.ID = strToID(rawID)
	f.CompanyID = strToID(rawCompanyID)
	f.CustomerID = strToID(rawCustomerID)
	f.SubscriptionID = strToID(rawSubID)
	f.PayerID = strToID(rawPayerID)
	f.Nature = funding.Nature(nature)
	f.Frequency = funding.Frequency(frequency)
	f.Versions, err = unmarshalFundingVersions(versions)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) CreateFunding(ctx context.Context, f *funding.Funding) error {
	versions, err := marshalFundingVersions(f.Versions)
	if err != nil {
		return fmt.Errorf("carebill/postgres: marshal funding versions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO carebill_fundings (`+fundingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID.String(), f.CompanyID.String(), f.CustomerID.String(),
		f.SubscriptionID.String(), f.PayerID.String(), string(f.Nature),
		string(f.Frequency), versions, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create funding: %w", err)
	}
	return nil
}

func (s *Store) GetFunding(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID) (*funding.Funding, error) {
	f, err := scanFunding(s.pool.QueryRow(ctx, `
		SELECT `+fundingColumns+` FROM carebill_fundings
		WHERE id = $1 AND company_id = $2`,
		fundingID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrFundingNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get funding: %w", err)
	}
	return f, nil
}

func (s *Store) ListFundingsBySubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) ([]*funding.Funding, error) {
	return s.listFundings(ctx, `
		SELECT `+fundingColumns+` FROM carebill_fundings
		WHERE company_id = $1 AND subscription_id = $2 ORDER BY id`,
		companyID.String(), subID.String())
}

func (s *Store) ListFundingsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*funding.Funding, error) {
	return s.listFundings(ctx, `
		SELECT `+fundingColumns+` FROM carebill_fundings
		WHERE company_id = $1 AND customer_id = $2 ORDER BY id`,
		companyID.String(), customerID.String())
}

func (s *Store) listFundings(ctx context.Context, query string, args ...any) ([]*funding.Funding, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list fundings: %w", err)
	}
	defer rows.Close()

	var out []*funding.Funding
	for rows.Next() {
		f, err := scanFunding(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list fundings: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) UpdateFunding(ctx context.Context, f *funding.Funding) error {
	versions, err := marshalFundingVersions(f.Versions)
	if err != nil {
		return fmt.Errorf("carebill/postgres: marshal funding versions: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE carebill_fundings
		SET nature = $3, frequency = $4, versions = $5, updated_at = $6
		WHERE id = $1 AND company_id = $2`,
		f.ID.String(), f.CompanyID.String(), string(f.Nature),
		string(f.Frequency), versions, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("carebill/postgres: update funding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrFundingNotFound
	}
	return nil
}

func (s *Store) ListFundingHistory(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) ([]funding.History, error) {
	query := `
		SELECT funding_id, company_id, period, amount_ttc, care_hours, created_at, updated_at
		FROM carebill_funding_histories
		WHERE company_id = $1 AND funding_id = $2`
	args := []any{companyID.String(), fundingID.String()}
	if period != "" {
		query += ` AND period = $3`
		args = append(args, period)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list funding history: %w", err)
	}
	defer rows.Close()

	var out []funding.History
	for rows.Next() {
		var h funding.History
		var rawFundingID, rawCompanyID, amount, hours string
		if err := rows.Scan(&rawFundingID, &rawCompanyID, &h.Period, &amount, &hours,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("carebill/postgres: list funding history: %w", err)
		}
		h.FundingID = strToID(rawFundingID)
		h.CompanyID = strToID(rawCompanyID)
		h.AmountTTC = strToDec(amount)
		h.CareHours = strToDec(hours)
		out = append(out, h)
	}
	return out, rows.Err()
}

// ==================== Event Store ====================

const eventColumns = `id, company_id, customer_id, subscription_id, auxiliary_id, start_date, end_date, is_cancelled, cancellation, is_billed, bills, created_at, updated_at`

func (s *Store) insertEvent(ctx context.Context, exec executor, e *event.Event) error {
	cancellation, err := marshalCancellation(e.Cancellation)
	if err != nil {
		return fmt.Errorf("marshal cancellation: %w", err)
	}
	bills, err := marshalBillSnapshot(e.Bills)
	if err != nil {
		return fmt.Errorf("marshal bill snapshot: %w", err)
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO carebill_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID.String(), e.CompanyID.String(), e.CustomerID.String(),
		e.SubscriptionID.String(), idToStr(e.AuxiliaryID), e.StartDate, e.EndDate,
		e.IsCancelled, cancellation, e.IsBilled, bills, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *Store) CreateEvent(ctx context.Context, e *event.Event) error {
	if err := s.insertEvent(ctx, s.pool, e); err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create event: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var r eventScan
	err := row.Scan(&r.ID, &r.CompanyID, &r.CustomerID, &r.SubscriptionID,
		&r.AuxiliaryID, &r.StartDate, &r.EndDate, &r.IsCancelled, &r.Cancellation,
		&r.IsBilled, &r.Bills, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r.toDomain()
}

func (s *Store) GetEvent(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*event.Event, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM carebill_events
		WHERE id = $1 AND company_id = $2`,
		eventID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrEventNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get event: %w", err)
	}
	return e, nil
}

func (s *Store) GetEvents(ctx context.Context, companyID id.CompanyID, eventIDs []id.EventID) ([]*event.Event, error) {
	ids := make([]string, len(eventIDs))
	for i, eventID := range eventIDs {
		ids[i] = eventID.String()
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM carebill_events
		WHERE company_id = $1 AND id = ANY($2)`,
		companyID.String(), ids)
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: get events: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*event.Event, len(ids))
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: get events: %w", err)
		}
		byID[e.ID.String()] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve request order and fail on any miss.
	out := make([]*event.Event, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		e, ok := byID[eventID.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", carebill.ErrEventNotFound, eventID)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) ListEventsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*event.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM carebill_events
		WHERE company_id = $1 AND customer_id = $2 ORDER BY start_date`,
		companyID.String(), customerID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list events: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list events: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) updateEvent(ctx context.Context, exec executor, e *event.Event) error {
	cancellation, err := marshalCancellation(e.Cancellation)
	if err != nil {
		return fmt.Errorf("marshal cancellation: %w", err)
	}
	bills, err := marshalBillSnapshot(e.Bills)
	if err != nil {
		return fmt.Errorf("marshal bill snapshot: %w", err)
	}
	tag, err := exec.Exec(ctx, `
		UPDATE carebill_events
		SET is_cancelled = $3, cancellation = $4, is_billed = $5, bills = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2`,
		e.ID.String(), e.CompanyID.String(), e.IsCancelled, cancellation,
		e.IsBilled, bills, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrEventNotFound
	}
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *event.Event) error {
	if err := s.updateEvent(ctx, s.pool, e); err != nil {
		if errors.Is(err, carebill.ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("carebill/postgres: update event: %w", err)
	}
	return nil
}

// ==================== Billing item Store ====================

func (s *Store) CreateBillingItem(ctx context.Context, b *billingitem.BillingItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO carebill_billing_items
		(id, company_id, name, unit_incl_taxes, vat, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID.String(), b.CompanyID.String(), b.Name,
		decToStr(b.UnitInclTaxes), decToStr(b.VAT), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create billing item: %w", err)
	}
	return nil
}

func scanBillingItem(row pgx.Row) (*billingitem.BillingItem, error) {
	b := new(billingitem.BillingItem)
	var rawID, rawCompanyID, unit, vat string
	err := row.Scan(&rawID, &rawCompanyID, &b.Name, &unit, &vat, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.ID = strToID(rawID)
	b.CompanyID = strToID(rawCompanyID)
	b.UnitInclTaxes = strToDec(unit)
	b.VAT = strToDec(vat)
	return b, nil
}

func (s *Store) GetBillingItem(ctx context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*billingitem.BillingItem, error) {
	b, err := scanBillingItem(s.pool.QueryRow(ctx, `
		SELECT id, company_id, name, unit_incl_taxes, vat, created_at, updated_at
		FROM carebill_billing_items WHERE id = $1 AND company_id = $2`,
		itemID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrBillingItemNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get billing item: %w", err)
	}
	return b, nil
}

func (s *Store) ListBillingItems(ctx context.Context, companyID id.CompanyID) ([]*billingitem.BillingItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, name, unit_incl_taxes, vat, created_at, updated_at
		FROM carebill_billing_items WHERE company_id = $1 ORDER BY name`,
		companyID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list billing items: %w", err)
	}
	defer rows.Close()

	var out []*billingitem.BillingItem
	for rows.Next() {
		b, err := scanBillingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list billing items: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ==================== Bill Store ====================

const billColumns = `id, company_id, customer_id, third_party_payer_id, number, date, type, origin, net_incl_taxes, subscriptions, billing_item_list, is_editable, created_at, updated_at`

func (s *Store) insertBill(ctx context.Context, exec executor, b *bill.Bill) error {
	groups, err := marshalSubscriptionGroups(b.Subscriptions)
	if err != nil {
		return fmt.Errorf("marshal subscription groups: %w", err)
	}
	items, err := marshalItemLines(b.BillingItems)
	if err != nil {
		return fmt.Errorf("marshal billing items: %w", err)
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO carebill_bills (`+billColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		b.ID.String(), b.CompanyID.String(), b.CustomerID.String(), idToStr(b.PayerID),
		b.Number, b.Date, string(b.Type), string(b.Origin), decToStr(b.NetInclTaxes),
		groups, items, b.IsEditable, b.CreatedAt, b.UpdatedAt)
	return err
}

func scanBill(row pgx.Row) (*bill.Bill, error) {
	var r billScan
	err := row.Scan(&r.ID, &r.CompanyID, &r.CustomerID, &r.PayerID, &r.Number,
		&r.Date, &r.Type, &r.Origin, &r.NetInclTaxes, &r.Subscriptions,
		&r.BillingItems, &r.IsEditable, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r.toDomain()
}

func (s *Store) GetBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) (*bill.Bill, error) {
	b, err := scanBill(s.pool.QueryRow(ctx, `
		SELECT `+billColumns+` FROM carebill_bills
		WHERE id = $1 AND company_id = $2`,
		billID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrBillNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get bill: %w", err)
	}
	return b, nil
}

func (s *Store) ListBills(ctx context.Context, companyID id.CompanyID, opts bill.ListOpts) ([]*bill.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM carebill_bills WHERE company_id = $1`
	args := []any{companyID.String()}

	addArg := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if !opts.CustomerID.IsNil() {
		addArg(` AND customer_id = $%d`, opts.CustomerID.String())
	}
	if !opts.PayerID.IsNil() {
		addArg(` AND third_party_payer_id = $%d`, opts.PayerID.String())
	}
	if opts.PayerOnly {
		query += ` AND third_party_payer_id <> ''`
	}
	if !opts.Start.IsZero() {
		addArg(` AND date >= $%d`, opts.Start)
	}
	if !opts.End.IsZero() {
		addArg(` AND date < $%d`, opts.End)
	}
	query += ` ORDER BY number`
	if opts.Limit > 0 {
		addArg(` LIMIT $%d`, opts.Limit)
	}
	if opts.Offset > 0 {
		addArg(` OFFSET $%d`, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list bills: %w", err)
	}
	defer rows.Close()

	var out []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list bills: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM carebill_bills WHERE id = $1 AND company_id = $2`,
		billID.String(), companyID.String())
	if err != nil {
		return fmt.Errorf("carebill/postgres: delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrBillNotFound
	}
	return nil
}

func (s *Store) CountBillsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM carebill_bills WHERE company_id = $1 AND customer_id = $2`,
		companyID.String(), customerID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("carebill/postgres: count bills: %w", err)
	}
	return n, nil
}

// ==================== Credit note Store ====================

const creditNoteColumns = `id, company_id, customer_id, third_party_payer_id, number, date, origin, subscription_id, events, incl_taxes_customer, excl_taxes_customer, incl_taxes_tpp, excl_taxes_tpp, linked_credit_note, is_editable, created_at, updated_at`

func (s *Store) insertCreditNote(ctx context.Context, exec executor, cn *creditnote.CreditNote) error {
	events, err := marshalEventLines(cn.Events)
	if err != nil {
		return fmt.Errorf("marshal event lines: %w", err)
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO carebill_credit_notes (`+creditNoteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		cn.ID.String(), cn.CompanyID.String(), cn.CustomerID.String(), idToStr(cn.PayerID),
		cn.Number, cn.Date, string(cn.Origin), idToStr(cn.SubscriptionID), events,
		decToStr(cn.InclTaxesCustomer), decToStr(cn.ExclTaxesCustomer),
		decToStr(cn.InclTaxesTpp), decToStr(cn.ExclTaxesTpp),
		idToStr(cn.LinkedCreditNoteID), cn.IsEditable, cn.CreatedAt, cn.UpdatedAt)
	return err
}

func scanCreditNote(row pgx.Row) (*creditnote.CreditNote, error) {
	var r creditNoteScan
	err := row.Scan(&r.ID, &r.CompanyID, &r.CustomerID, &r.PayerID, &r.Number,
		&r.Date, &r.Origin, &r.SubscriptionID, &r.Events, &r.InclTaxesCustomer,
		&r.ExclTaxesCustomer, &r.InclTaxesTpp, &r.ExclTaxesTpp,
		&r.LinkedCreditNoteID, &r.IsEditable, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r.toDomain()
}

func (s *Store) GetCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	cn, err := scanCreditNote(s.pool.QueryRow(ctx, `
		SELECT `+creditNoteColumns+` FROM carebill_credit_notes
		WHERE id = $1 AND company_id = $2`,
		noteID.String(), companyID.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrCreditNoteNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get credit note: %w", err)
	}
	return cn, nil
}

func (s *Store) ListCreditNotes(ctx context.Context, companyID id.CompanyID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	query := `SELECT ` + creditNoteColumns + ` FROM carebill_credit_notes WHERE company_id = $1`
	args := []any{companyID.String()}

	addArg := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}
	if !opts.CustomerID.IsNil() {
		addArg(` AND customer_id = $%d`, opts.CustomerID.String())
	}
	if !opts.PayerID.IsNil() {
		addArg(` AND third_party_payer_id = $%d`, opts.PayerID.String())
	}
	if opts.PayerOnly {
		query += ` AND third_party_payer_id <> ''`
	}
	if !opts.Start.IsZero() {
		addArg(` AND date >= $%d`, opts.Start)
	}
	if !opts.End.IsZero() {
		addArg(` AND date < $%d`, opts.End)
	}
	query += ` ORDER BY number`
	if opts.Limit > 0 {
		addArg(` LIMIT $%d`, opts.Limit)
	}
	if opts.Offset > 0 {
		addArg(` OFFSET $%d`, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list credit notes: %w", err)
	}
	defer rows.Close()

	var out []*creditnote.CreditNote
	for rows.Next() {
		cn, err := scanCreditNote(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list credit notes: %w", err)
		}
		out = append(out, cn)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM carebill_credit_notes WHERE id = $1 AND company_id = $2`,
		noteID.String(), companyID.String())
	if err != nil {
		return fmt.Errorf("carebill/postgres: delete credit note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return carebill.ErrCreditNoteNotFound
	}
	return nil
}

func (s *Store) CountCreditNotesByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM carebill_credit_notes WHERE company_id = $1 AND customer_id = $2`,
		companyID.String(), customerID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("carebill/postgres: count credit notes: %w", err)
	}
	return n, nil
}

// ==================== Bill slip Store ====================

func (s *Store) CreateBillSlip(ctx context.Context, slip *billslip.BillSlip) error {
	if err := insertBillSlip(ctx, s.pool, slip); err != nil {
		if isUniqueViolation(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/postgres: create bill slip: %w", err)
	}
	return nil
}

func insertBillSlip(ctx context.Context, exec executor, slip *billslip.BillSlip) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO carebill_bill_slips
		(id, company_id, third_party_payer_id, month, number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		slip.ID.String(), slip.CompanyID.String(), slip.PayerID.String(),
		slip.Month, slip.Number, slip.CreatedAt, slip.UpdatedAt)
	return err
}

func scanBillSlip(row pgx.Row) (*billslip.BillSlip, error) {
	slip := new(billslip.BillSlip)
	var rawID, rawCompanyID, rawPayerID string
	err := row.Scan(&rawID, &rawCompanyID, &rawPayerID, &slip.Month, &slip.Number,
		&slip.CreatedAt, &slip.UpdatedAt)
	if err != nil {
		return nil, err
	}
	slip.ID = strToID(rawID)
	slip.CompanyID = strToID(rawCompanyID)
	slip.PayerID = strToID(rawPayerID)
	return slip, nil
}

func (s *Store) GetBillSlipByPayerMonth(ctx context.Context, companyID id.CompanyID, payerID id.PayerID, month string) (*billslip.BillSlip, error) {
	slip, err := scanBillSlip(s.pool.QueryRow(ctx, `
		SELECT id, company_id, third_party_payer_id, month, number, created_at, updated_at
		FROM carebill_bill_slips
		WHERE company_id = $1 AND third_party_payer_id = $2 AND month = $3`,
		companyID.String(), payerID.String(), month))
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrBillSlipNotFound
		}
		return nil, fmt.Errorf("carebill/postgres: get bill slip: %w", err)
	}
	return slip, nil
}

func (s *Store) ListBillSlips(ctx context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, third_party_payer_id, month, number, created_at, updated_at
		FROM carebill_bill_slips WHERE company_id = $1 ORDER BY number`,
		companyID.String())
	if err != nil {
		return nil, fmt.Errorf("carebill/postgres: list bill slips: %w", err)
	}
	defer rows.Close()

	var out []*billslip.BillSlip
	for rows.Next() {
		slip, err := scanBillSlip(rows)
		if err != nil {
			return nil, fmt.Errorf("carebill/postgres: list bill slips: %w", err)
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}

// ==================== Sequence and batch primitives ====================

func (s *Store) NextSequence(ctx context.Context, companyID id.CompanyID, kind sequence.Kind, period sequence.Period) (int64, error) {
	return nextSequence(ctx, s.pool, companyID, kind, period)
}

func nextSequence(ctx context.Context, q rowQuerier, companyID id.CompanyID, kind sequence.Kind, period sequence.Period) (int64, error) {
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO carebill_sequences (company_id, kind, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, kind, period)
		DO UPDATE SET seq = carebill_sequences.seq + 1
		RETURNING seq`,
		companyID.String(), string(kind), string(period)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("carebill/postgres: next sequence: %w", err)
	}
	return seq, nil
}

func (s *Store) CreateDocumentBatch(ctx context.Context, companyID id.CompanyID, batch *carebillstore.DocumentBatch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("carebill/postgres: begin batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// Sequence draws share the transaction: a rolled-back batch never
	// burns a number.
	if err := numberBatch(ctx, tx, companyID, batch); err != nil {
		return err
	}

	for _, b := range batch.Bills {
		if err := s.insertBill(ctx, tx, b); err != nil {
			if isUniqueViolation(err) {
				return carebill.ErrSequenceCollision
			}
			return fmt.Errorf("carebill/postgres: batch insert bill: %w", err)
		}
	}
	for _, cn := range batch.CreditNotes {
		if err := s.insertCreditNote(ctx, tx, cn); err != nil {
			if isUniqueViolation(err) {
				return carebill.ErrSequenceCollision
			}
			return fmt.Errorf("carebill/postgres: batch insert credit note: %w", err)
		}
	}
	for _, slip := range batch.Slips {
		if err := insertBillSlip(ctx, tx, slip); err != nil {
			if isUniqueViolation(err) {
				return carebill.ErrAlreadyExists
			}
			return fmt.Errorf("carebill/postgres: batch insert bill slip: %w", err)
		}
	}
	for _, e := range batch.BilledEvents {
		if err := s.updateUnbilledEvent(ctx, tx, e); err != nil {
			if errors.Is(err, carebill.ErrEventNotFound) || errors.Is(err, carebill.ErrEventAlreadyBilled) {
				return err
			}
			return fmt.Errorf("carebill/postgres: batch update event: %w", err)
		}
	}
	for _, billID := range batch.LockBills {
		tag, err := tx.Exec(ctx, `
			UPDATE carebill_bills SET is_editable = false, updated_at = now()
			WHERE id = $1 AND company_id = $2`,
			billID.String(), companyID.String())
		if err != nil {
			return fmt.Errorf("carebill/postgres: batch lock bill: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return carebill.ErrBillNotFound
		}
	}
	for _, h := range batch.FundingHistories {
		_, err := tx.Exec(ctx, `
			INSERT INTO carebill_funding_histories
			(funding_id, company_id, period, amount_ttc, care_hours, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			h.FundingID.String(), h.CompanyID.String(), h.Period,
			decToStr(h.AmountTTC), decToStr(h.CareHours), h.CreatedAt, h.UpdatedAt)
		if err != nil {
			return fmt.Errorf("carebill/postgres: batch insert funding history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", carebill.ErrTransactionFailed, err)
	}
	return nil
}

// ==================== Helpers ====================

// executor abstracts pool and transaction for shared insert helpers.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// rowQuerier abstracts pool and transaction for single-row queries.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// numberBatch assigns sequence numbers to the batch's unnumbered documents
// within the batch transaction.
func numberBatch(ctx context.Context, tx pgx.Tx, companyID id.CompanyID, batch *carebillstore.DocumentBatch) error {
	number := func(kind sequence.Kind, period sequence.Period) (string, error) {
		if batch.RenderNumber == nil {
			return "", fmt.Errorf("%w: unnumbered document without a number renderer", carebill.ErrInvalidInput)
		}
		seq, err := nextSequence(ctx, tx, companyID, kind, period)
		if err != nil {
			return "", err
		}
		return batch.RenderNumber(kind, period, seq), nil
	}

	for _, b := range batch.Bills {
		if b.Number != "" {
			continue
		}
		n, err := number(sequence.KindBill, sequence.PeriodOf(b.Date))
		if err != nil {
			return err
		}
		b.Number = n
	}
	for _, cn := range batch.CreditNotes {
		if cn.Number != "" {
			continue
		}
		n, err := number(sequence.KindCreditNote, sequence.PeriodOf(cn.Date))
		if err != nil {
			return err
		}
		cn.Number = n
	}
	for _, slip := range batch.Slips {
		if slip.Number != "" {
			continue
		}
		period, err := sequence.PeriodOfMonth(slip.Month)
		if err != nil {
			return fmt.Errorf("%w: %v", carebill.ErrInvalidInput, err)
		}
		n, err := number(sequence.KindBillSlip, period)
		if err != nil {
			return err
		}
		slip.Number = n
	}
	return nil
}

// updateUnbilledEvent writes an event's billing stamp only if the persisted
// row is still unbilled, so a concurrent run that billed it first fails the
// batch instead of double-billing.
func (s *Store) updateUnbilledEvent(ctx context.Context, tx pgx.Tx, e *event.Event) error {
	cancellation, err := marshalCancellation(e.Cancellation)
	if err != nil {
		return fmt.Errorf("marshal cancellation: %w", err)
	}
	bills, err := marshalBillSnapshot(e.Bills)
	if err != nil {
		return fmt.Errorf("marshal bill snapshot: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE carebill_events
		SET is_cancelled = $3, cancellation = $4, is_billed = $5, bills = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2 AND is_billed = false`,
		e.ID.String(), e.CompanyID.String(), e.IsCancelled, cancellation,
		e.IsBilled, bills, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var one int
		err := tx.QueryRow(ctx, `
			SELECT 1 FROM carebill_events WHERE id = $1 AND company_id = $2`,
			e.ID.String(), e.CompanyID.String()).Scan(&one)
		if err == nil {
			return carebill.ErrEventAlreadyBilled
		}
		if isNoRows(err) {
			return carebill.ErrEventNotFound
		}
		return err
	}
	return nil
}

// isNoRows checks if an error wraps pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isUniqueViolation checks for the postgres unique_violation code.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
