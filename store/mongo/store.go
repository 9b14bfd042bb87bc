// Package mongo provides a MongoDB-backed Store implementation.
//
// Sequence counters use findOneAndUpdate with $inc, so number allocation is
// atomic at the server. Document batches run inside a session transaction,
// which requires a replica set (standalone mongod will refuse them).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

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

// Collection name constants.
const (
	colCompanies        = "carebill_companies"
	colCustomers        = "carebill_customers"
	colPayers           = "carebill_third_party_payers"
	colSubscriptions    = "carebill_subscriptions"
	colFundings         = "carebill_fundings"
	colFundingHistories = "carebill_funding_histories"
	colEvents           = "carebill_events"
	colBillingItems     = "carebill_billing_items"
	colBills            = "carebill_bills"
	colCreditNotes      = "carebill_credit_notes"
	colBillSlips        = "carebill_bill_slips"
	colSequences        = "carebill_sequences"
)

// compile-time interface check
var _ carebillstore.Store = (*Store)(nil)

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a MongoDB store over the named database.
func New(client *mongo.Client, dbName string) *Store {
	return &Store{
		client: client,
		db:     client.Database(dbName),
	}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Migrate creates indexes for all carebill collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.col(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("carebill/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Company Store ====================

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	_, err := s.col(colCompanies).InsertOne(ctx, toCompanyModel(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create company: %w", err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	var m companyModel
	err := s.col(colCompanies).FindOne(ctx, bson.M{"_id": companyID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get company: %w", err)
	}
	return fromCompanyModel(&m), nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	res, err := s.col(colCompanies).ReplaceOne(ctx, bson.M{"_id": c.ID.String()}, toCompanyModel(c))
	if err != nil {
		return fmt.Errorf("carebill/mongo: update company: %w", err)
	}
	if res.MatchedCount == 0 {
		return carebill.ErrCompanyNotFound
	}
	return nil
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := s.col(colCustomers).InsertOne(ctx, toCustomerModel(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.col(colCustomers).FindOne(ctx, scoped(companyID, bson.M{"_id": customerID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m), nil
}

func (s *Store) ListCustomers(ctx context.Context, companyID id.CompanyID) ([]*customer.Customer, error) {
	cur, err := s.col(colCustomers).Find(ctx, scoped(companyID, bson.M{}),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list customers: %w", err)
	}
	var models []customerModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list customers: %w", err)
	}
	out := make([]*customer.Customer, len(models))
	for i := range models {
		out[i] = fromCustomerModel(&models[i])
	}
	return out, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	res, err := s.col(colCustomers).ReplaceOne(ctx,
		scoped(c.CompanyID, bson.M{"_id": c.ID.String()}), toCustomerModel(c))
	if err != nil {
		return fmt.Errorf("carebill/mongo: update customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return carebill.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) error {
	res, err := s.col(colCustomers).DeleteOne(ctx, scoped(companyID, bson.M{"_id": customerID.String()}))
	if err != nil {
		return fmt.Errorf("carebill/mongo: delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return carebill.ErrCustomerNotFound
	}
	return nil
}

// ==================== Third-party payer Store ====================

func (s *Store) CreatePayer(ctx context.Context, p *payer.ThirdPartyPayer) error {
	_, err := s.col(colPayers).InsertOne(ctx, toPayerModel(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create payer: %w", err)
	}
	return nil
}

func (s *Store) GetPayer(ctx context.Context, companyID id.CompanyID, payerID id.PayerID) (*payer.ThirdPartyPayer, error) {
	var m payerModel
	err := s.col(colPayers).FindOne(ctx, scoped(companyID, bson.M{"_id": payerID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrPayerNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get payer: %w", err)
	}
	return fromPayerModel(&m), nil
}

func (s *Store) ListPayers(ctx context.Context, companyID id.CompanyID) ([]*payer.ThirdPartyPayer, error) {
	cur, err := s.col(colPayers).Find(ctx, scoped(companyID, bson.M{}),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list payers: %w", err)
	}
	var models []payerModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list payers: %w", err)
	}
	out := make([]*payer.ThirdPartyPayer, len(models))
	for i := range models {
		out[i] = fromPayerModel(&models[i])
	}
	return out, nil
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.col(colSubscriptions).InsertOne(ctx, toSubscriptionModel(sub))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.col(colSubscriptions).FindOne(ctx, scoped(companyID, bson.M{"_id": subID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m), nil
}

func (s *Store) ListSubscriptionsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*subscription.Subscription, error) {
	cur, err := s.col(colSubscriptions).Find(ctx,
		scoped(companyID, bson.M{"customer_id": customerID.String()}),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list subscriptions: %w", err)
	}
	var models []subscriptionModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list subscriptions: %w", err)
	}
	out := make([]*subscription.Subscription, len(models))
	for i := range models {
		out[i] = fromSubscriptionModel(&models[i])
	}
	return out, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	res, err := s.col(colSubscriptions).ReplaceOne(ctx,
		scoped(sub.CompanyID, bson.M{"_id": sub.ID.String()}), toSubscriptionModel(sub))
	if err != nil {
		return fmt.Errorf("carebill/mongo: update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return carebill.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Funding Store ====================

func (s *Store) CreateFunding(ctx context.Context, f *funding.Funding) error {
	_, err := s.col(colFundings).InsertOne(ctx, toFundingModel(f))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create funding: %w", err)
	}
	return nil
}

func (s *Store) GetFunding(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID) (*funding.Funding, error) {
	var m fundingModel
	err := s.col(colFundings).FindOne(ctx, scoped(companyID, bson.M{"_id": fundingID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrFundingNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get funding: %w", err)
	}
	return fromFundingModel(&m), nil
}

func (s *Store) ListFundingsBySubscription(ctx context.Context, companyID id.CompanyID, subID id.SubscriptionID) ([]*funding.Funding, error) {
	return s.listFundings(ctx, scoped(companyID, bson.M{"subscription_id": subID.String()}))
}

func (s *Store) ListFundingsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*funding.Funding, error) {
	return s.listFundings(ctx, scoped(companyID, bson.M{"customer_id": customerID.String()}))
}

func (s *Store) listFundings(ctx context.Context, filter bson.M) ([]*funding.Funding, error) {
	cur, err := s.col(colFundings).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list fundings: %w", err)
	}
	var models []fundingModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list fundings: %w", err)
	}
	out := make([]*funding.Funding, len(models))
	for i := range models {
		out[i] = fromFundingModel(&models[i])
	}
	return out, nil
}

func (s *Store) UpdateFunding(ctx context.Context, f *funding.Funding) error {
	res, err := s.col(colFundings).ReplaceOne(ctx,
		scoped(f.CompanyID, bson.M{"_id": f.ID.String()}), toFundingModel(f))
	if err != nil {
		return fmt.Errorf("carebill/mongo: update funding: %w", err)
	}
	if res.MatchedCount == 0 {
		return carebill.ErrFundingNotFound
	}
	return nil
}

func (s *Store) ListFundingHistory(ctx context.Context, companyID id.CompanyID, fundingID id.FundingID, period string) ([]funding.History, error) {
	filter := scoped(companyID, bson.M{"funding_id": fundingID.String()})
	if period != "" {
		filter["period"] = period
	}
	cur, err := s.col(colFundingHistories).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list funding history: %w", err)
	}
	var models []fundingHistoryModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list funding history: %w", err)
	}
	out := make([]funding.History, len(models))
	for i := range models {
		out[i] = fromFundingHistoryModel(&models[i])
	}
	return out, nil
}

// ==================== Event Store ====================

func (s *Store) CreateEvent(ctx context.Context, e *event.Event) error {
	_, err := s.col(colEvents).InsertOne(ctx, toEventModel(e))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*event.Event, error) {
	var m eventModel
	err := s.col(colEvents).FindOne(ctx, scoped(companyID, bson.M{"_id": eventID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrEventNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get event: %w", err)
	}
	return fromEventModel(&m), nil
}

func (s *Store) GetEvents(ctx context.Context, companyID id.CompanyID, eventIDs []id.EventID) ([]*event.Event, error) {
	ids := make([]string, len(eventIDs))
	for i, eventID := range eventIDs {
		ids[i] = eventID.String()
	}
	cur, err := s.col(colEvents).Find(ctx, scoped(companyID, bson.M{"_id": bson.M{"$in": ids}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: get events: %w", err)
	}
	var models []eventModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: get events: %w", err)
	}
	byID := make(map[string]*eventModel, len(models))
	for i := range models {
		byID[models[i].ID] = &models[i]
	}
	// Preserve request order and fail on any miss.
	out := make([]*event.Event, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		m, ok := byID[eventID.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", carebill.ErrEventNotFound, eventID)
		}
		out = append(out, fromEventModel(m))
	}
	return out, nil
}

func (s *Store) ListEventsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) ([]*event.Event, error) {
	cur, err := s.col(colEvents).Find(ctx,
		scoped(companyID, bson.M{"customer_id": customerID.String()}),
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list events: %w", err)
	}
	var models []eventModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list events: %w", err)
	}
	out := make([]*event.Event, len(models))
	for i := range models {
		out[i] = fromEventModel(&models[i])
	}
	return out, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *event.Event) error {
	res, err := s.col(colEvents).ReplaceOne(ctx,
		scoped(e.CompanyID, bson.M{"_id": e.ID.String()}), toEventModel(e))
	if err != nil {
		return fmt.Errorf("carebill/mongo: update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return carebill.ErrEventNotFound
	}
	return nil
}

// ==================== Billing item Store ====================

func (s *Store) CreateBillingItem(ctx context.Context, b *billingitem.BillingItem) error {
	_, err := s.col(colBillingItems).InsertOne(ctx, toBillingItemModel(b))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create billing item: %w", err)
	}
	return nil
}

func (s *Store) GetBillingItem(ctx context.Context, companyID id.CompanyID, itemID id.BillingItemID) (*billingitem.BillingItem, error) {
	var m billingItemModel
	err := s.col(colBillingItems).FindOne(ctx, scoped(companyID, bson.M{"_id": itemID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrBillingItemNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get billing item: %w", err)
	}
	return fromBillingItemModel(&m), nil
}

func (s *Store) ListBillingItems(ctx context.Context, companyID id.CompanyID) ([]*billingitem.BillingItem, error) {
	cur, err := s.col(colBillingItems).Find(ctx, scoped(companyID, bson.M{}),
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list billing items: %w", err)
	}
	var models []billingItemModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list billing items: %w", err)
	}
	out := make([]*billingitem.BillingItem, len(models))
	for i := range models {
		out[i] = fromBillingItemModel(&models[i])
	}
	return out, nil
}

// ==================== Bill Store ====================

func (s *Store) GetBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) (*bill.Bill, error) {
	var m billModel
	err := s.col(colBills).FindOne(ctx, scoped(companyID, bson.M{"_id": billID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrBillNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get bill: %w", err)
	}
	return fromBillModel(&m), nil
}

func (s *Store) ListBills(ctx context.Context, companyID id.CompanyID, opts bill.ListOpts) ([]*bill.Bill, error) {
	filter := scoped(companyID, bson.M{})
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	if !opts.PayerID.IsNil() {
		filter["third_party_payer_id"] = opts.PayerID.String()
	}
	if opts.PayerOnly {
		filter["third_party_payer_id"] = bson.M{"$exists": true, "$ne": ""}
	}
	if dateFilter := rangeFilter(opts.Start, opts.End); dateFilter != nil {
		filter["date"] = dateFilter
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := s.col(colBills).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list bills: %w", err)
	}
	var models []billModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list bills: %w", err)
	}
	out := make([]*bill.Bill, len(models))
	for i := range models {
		out[i] = fromBillModel(&models[i])
	}
	return out, nil
}

func (s *Store) DeleteBill(ctx context.Context, companyID id.CompanyID, billID id.BillID) error {
	res, err := s.col(colBills).DeleteOne(ctx, scoped(companyID, bson.M{"_id": billID.String()}))
	if err != nil {
		return fmt.Errorf("carebill/mongo: delete bill: %w", err)
	}
	if res.DeletedCount == 0 {
		return carebill.ErrBillNotFound
	}
	return nil
}

func (s *Store) CountBillsByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	n, err := s.col(colBills).CountDocuments(ctx,
		scoped(companyID, bson.M{"customer_id": customerID.String()}))
	if err != nil {
		return 0, fmt.Errorf("carebill/mongo: count bills: %w", err)
	}
	return n, nil
}

// ==================== Credit note Store ====================

func (s *Store) GetCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	var m creditNoteModel
	err := s.col(colCreditNotes).FindOne(ctx, scoped(companyID, bson.M{"_id": noteID.String()})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrCreditNoteNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get credit note: %w", err)
	}
	return fromCreditNoteModel(&m), nil
}

func (s *Store) ListCreditNotes(ctx context.Context, companyID id.CompanyID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	filter := scoped(companyID, bson.M{})
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	if !opts.PayerID.IsNil() {
		filter["third_party_payer_id"] = opts.PayerID.String()
	}
	if opts.PayerOnly {
		filter["third_party_payer_id"] = bson.M{"$exists": true, "$ne": ""}
	}
	if dateFilter := rangeFilter(opts.Start, opts.End); dateFilter != nil {
		filter["date"] = dateFilter
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := s.col(colCreditNotes).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list credit notes: %w", err)
	}
	var models []creditNoteModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list credit notes: %w", err)
	}
	out := make([]*creditnote.CreditNote, len(models))
	for i := range models {
		out[i] = fromCreditNoteModel(&models[i])
	}
	return out, nil
}

func (s *Store) DeleteCreditNote(ctx context.Context, companyID id.CompanyID, noteID id.CreditNoteID) error {
	res, err := s.col(colCreditNotes).DeleteOne(ctx, scoped(companyID, bson.M{"_id": noteID.String()}))
	if err != nil {
		return fmt.Errorf("carebill/mongo: delete credit note: %w", err)
	}
	if res.DeletedCount == 0 {
		return carebill.ErrCreditNoteNotFound
	}
	return nil
}

func (s *Store) CountCreditNotesByCustomer(ctx context.Context, companyID id.CompanyID, customerID id.CustomerID) (int64, error) {
	n, err := s.col(colCreditNotes).CountDocuments(ctx,
		scoped(companyID, bson.M{"customer_id": customerID.String()}))
	if err != nil {
		return 0, fmt.Errorf("carebill/mongo: count credit notes: %w", err)
	}
	return n, nil
}

// ==================== Bill slip Store ====================

func (s *Store) CreateBillSlip(ctx context.Context, slip *billslip.BillSlip) error {
	_, err := s.col(colBillSlips).InsertOne(ctx, toBillSlipModel(slip))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carebill.ErrAlreadyExists
		}
		return fmt.Errorf("carebill/mongo: create bill slip: %w", err)
	}
	return nil
}

func (s *Store) GetBillSlipByPayerMonth(ctx context.Context, companyID id.CompanyID, payerID id.PayerID, month string) (*billslip.BillSlip, error) {
	var m billSlipModel
	err := s.col(colBillSlips).FindOne(ctx, scoped(companyID, bson.M{
		"third_party_payer_id": payerID.String(),
		"month":                month,
	})).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carebill.ErrBillSlipNotFound
		}
		return nil, fmt.Errorf("carebill/mongo: get bill slip: %w", err)
	}
	return fromBillSlipModel(&m), nil
}

func (s *Store) ListBillSlips(ctx context.Context, companyID id.CompanyID) ([]*billslip.BillSlip, error) {
	cur, err := s.col(colBillSlips).Find(ctx, scoped(companyID, bson.M{}),
		options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("carebill/mongo: list bill slips: %w", err)
	}
	var models []billSlipModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("carebill/mongo: list bill slips: %w", err)
	}
	out := make([]*billslip.BillSlip, len(models))
	for i := range models {
		out[i] = fromBillSlipModel(&models[i])
	}
	return out, nil
}

// ==================== Sequence and batch primitives ====================

func (s *Store) NextSequence(ctx context.Context, companyID id.CompanyID, kind sequence.Kind, period sequence.Period) (int64, error) {
	key := strings.Join([]string{companyID.String(), string(kind), string(period)}, "|")

	var m sequenceModel
	err := s.col(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{
			"$inc": bson.M{"seq": 1},
			"$setOnInsert": bson.M{
				"company_id": companyID.String(),
				"kind":       string(kind),
				"period":     string(period),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("carebill/mongo: next sequence: %w", err)
	}
	return m.Seq, nil
}

func (s *Store) CreateDocumentBatch(ctx context.Context, companyID id.CompanyID, batch *carebillstore.DocumentBatch) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("carebill/mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		// Sequence draws ride the transaction: an aborted batch rolls
		// the counters back and never burns a number.
		if err := s.numberBatch(ctx, companyID, batch); err != nil {
			return nil, err
		}
		for _, b := range batch.Bills {
			if _, err := s.col(colBills).InsertOne(ctx, toBillModel(b)); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, carebill.ErrSequenceCollision
				}
				return nil, fmt.Errorf("insert bill: %w", err)
			}
		}
		for _, cn := range batch.CreditNotes {
			if _, err := s.col(colCreditNotes).InsertOne(ctx, toCreditNoteModel(cn)); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, carebill.ErrSequenceCollision
				}
				return nil, fmt.Errorf("insert credit note: %w", err)
			}
		}
		for _, slip := range batch.Slips {
			if _, err := s.col(colBillSlips).InsertOne(ctx, toBillSlipModel(slip)); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, carebill.ErrAlreadyExists
				}
				return nil, fmt.Errorf("insert bill slip: %w", err)
			}
		}
		for _, e := range batch.BilledEvents {
			// Match on is_billed so the guard holds against the latest
			// persisted state, not the caller's earlier read.
			res, err := s.col(colEvents).ReplaceOne(ctx,
				scoped(companyID, bson.M{"_id": e.ID.String(), "is_billed": false}), toEventModel(e))
			if err != nil {
				return nil, fmt.Errorf("update event: %w", err)
			}
			if res.MatchedCount == 0 {
				n, err := s.col(colEvents).CountDocuments(ctx,
					scoped(companyID, bson.M{"_id": e.ID.String()}))
				if err != nil {
					return nil, fmt.Errorf("recheck event: %w", err)
				}
				if n > 0 {
					return nil, carebill.ErrEventAlreadyBilled
				}
				return nil, carebill.ErrEventNotFound
			}
		}
		for _, h := range batch.FundingHistories {
			if _, err := s.col(colFundingHistories).InsertOne(ctx, toFundingHistoryModel(h)); err != nil {
				return nil, fmt.Errorf("insert funding history: %w", err)
			}
		}
		for _, billID := range batch.LockBills {
			res, err := s.col(colBills).UpdateOne(ctx,
				scoped(companyID, bson.M{"_id": billID.String()}),
				bson.M{"$set": bson.M{"is_editable": false, "updated_at": time.Now().UTC()}})
			if err != nil {
				return nil, fmt.Errorf("lock bill: %w", err)
			}
			if res.MatchedCount == 0 {
				return nil, carebill.ErrBillNotFound
			}
		}
		return nil, nil
	})
	if err != nil {
		for _, sentinel := range []error{
			carebill.ErrSequenceCollision, carebill.ErrEventNotFound,
			carebill.ErrEventAlreadyBilled, carebill.ErrAlreadyExists,
			carebill.ErrBillNotFound, carebill.ErrInvalidInput,
		} {
			if errors.Is(err, sentinel) {
				return err
			}
		}
		return fmt.Errorf("%w: %v", carebill.ErrTransactionFailed, err)
	}
	return nil
}

// numberBatch assigns sequence numbers to the batch's unnumbered documents.
// Must run inside the batch transaction.
func (s *Store) numberBatch(ctx context.Context, companyID id.CompanyID, batch *carebillstore.DocumentBatch) error {
	number := func(kind sequence.Kind, period sequence.Period) (string, error) {
		if batch.RenderNumber == nil {
			return "", fmt.Errorf("%w: unnumbered document without a number renderer", carebill.ErrInvalidInput)
		}
		seq, err := s.NextSequence(ctx, companyID, kind, period)
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

// ==================== Helpers ====================

// scoped adds the company filter to a query.
func scoped(companyID id.CompanyID, filter bson.M) bson.M {
	filter["company_id"] = companyID.String()
	return filter
}

// rangeFilter builds a half-open [start, end) date filter, or nil when both
// bounds are zero.
func rangeFilter(start, end time.Time) bson.M {
	if start.IsZero() && end.IsZero() {
		return nil
	}
	f := bson.M{}
	if !start.IsZero() {
		f["$gte"] = start
	}
	if !end.IsZero() {
		f["$lt"] = end
	}
	return f
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all carebill collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCustomers: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colPayers: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}}},
		},
		colFundings: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "subscription_id", Value: 1}}},
		},
		colFundingHistories: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "funding_id", Value: 1}, {Key: "period", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "start_date", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "is_billed", Value: 1}}},
		},
		colBillingItems: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		colBills: {
			{
				Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "third_party_payer_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		colCreditNotes: {
			{
				Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		colBillSlips: {
			{
				Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "third_party_payer_id", Value: 1}, {Key: "month", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
