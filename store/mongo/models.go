package mongo

import (
	"time"

	"github.com/shopspring/decimal"

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
	"github.com/xraph/carebill/subscription"
	"github.com/xraph/carebill/types"
)

// Decimals are persisted as strings. BSON doubles lose precision and
// Decimal128 round-trips awkwardly through shopspring; strings keep the
// exact printed value either way.

func decToStr(d decimal.Decimal) string { return d.String() }

func strToDec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func idToStr(i id.ID) string {
	if i.IsNil() {
		return ""
	}
	return i.String()
}

func strToID(s string) id.ID {
	if s == "" {
		return id.Nil
	}
	parsed, err := id.Parse(s)
	if err != nil {
		return id.Nil
	}
	return parsed
}

// ==================== Company models ====================

type companyModel struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Code      string    `bson:"code"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toCompanyModel(c *company.Company) *companyModel {
	return &companyModel{
		ID:        c.ID.String(),
		Name:      c.Name,
		Code:      c.Code,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCompanyModel(m *companyModel) *company.Company {
	return &company.Company{
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     strToID(m.ID),
		Name:   m.Name,
		Code:   m.Code,
	}
}

// ==================== Customer models ====================

type customerModel struct {
	ID         string     `bson:"_id"`
	CompanyID  string     `bson:"company_id"`
	FirstName  string     `bson:"first_name"`
	LastName   string     `bson:"last_name"`
	StoppedAt  *time.Time `bson:"stopped_at,omitempty"`
	StopReason string     `bson:"stop_reason,omitempty"`
	ArchivedAt *time.Time `bson:"archived_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:         c.ID.String(),
		CompanyID:  c.CompanyID.String(),
		FirstName:  c.Identity.FirstName,
		LastName:   c.Identity.LastName,
		StoppedAt:  c.StoppedAt,
		StopReason: string(c.StopReason),
		ArchivedAt: c.ArchivedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) *customer.Customer {
	return &customer.Customer{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        strToID(m.ID),
		CompanyID: strToID(m.CompanyID),
		Identity: customer.Identity{
			FirstName: m.FirstName,
			LastName:  m.LastName,
		},
		StoppedAt:  m.StoppedAt,
		StopReason: customer.StopReason(m.StopReason),
		ArchivedAt: m.ArchivedAt,
	}
}

// ==================== Third-party payer models ====================

type payerModel struct {
	ID                 string    `bson:"_id"`
	CompanyID          string    `bson:"company_id"`
	Name               string    `bson:"name"`
	BillingMode        string    `bson:"billing_mode"`
	TeletransmissionID string    `bson:"teletransmission_id,omitempty"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toPayerModel(p *payer.ThirdPartyPayer) *payerModel {
	return &payerModel{
		ID:                 p.ID.String(),
		CompanyID:          p.CompanyID.String(),
		Name:               p.Name,
		BillingMode:        string(p.BillingMode),
		TeletransmissionID: p.TeletransmissionID,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func fromPayerModel(m *payerModel) *payer.ThirdPartyPayer {
	return &payer.ThirdPartyPayer{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 strToID(m.ID),
		CompanyID:          strToID(m.CompanyID),
		Name:               m.Name,
		BillingMode:        payer.BillingMode(m.BillingMode),
		TeletransmissionID: m.TeletransmissionID,
	}
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	ID          string                   `bson:"_id"`
	CompanyID   string                   `bson:"company_id"`
	CustomerID  string                   `bson:"customer_id"`
	ServiceName string                   `bson:"service_name"`
	VAT         string                   `bson:"vat"`
	Versions    []subscriptionVersionDoc `bson:"versions"`
	CreatedAt   time.Time                `bson:"created_at"`
	UpdatedAt   time.Time                `bson:"updated_at"`
}

type subscriptionVersionDoc struct {
	UnitRate    string    `bson:"unit_rate"`
	WeeklyHours string    `bson:"weekly_hours"`
	WeeklyCount int       `bson:"weekly_count"`
	Evenings    int       `bson:"evenings"`
	Sundays     int       `bson:"sundays"`
	StartDate   time.Time `bson:"start_date"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	versions := make([]subscriptionVersionDoc, len(s.Versions))
	for i, v := range s.Versions {
		versions[i] = subscriptionVersionDoc{
			UnitRate:    decToStr(v.UnitRate),
			WeeklyHours: decToStr(v.WeeklyHours),
			WeeklyCount: v.WeeklyCount,
			Evenings:    v.Evenings,
			Sundays:     v.Sundays,
			StartDate:   v.StartDate,
			CreatedAt:   v.CreatedAt,
		}
	}
	return &subscriptionModel{
		ID:          s.ID.String(),
		CompanyID:   s.CompanyID.String(),
		CustomerID:  s.CustomerID.String(),
		ServiceName: s.ServiceName,
		VAT:         decToStr(s.VAT),
		Versions:    versions,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) *subscription.Subscription {
	versions := make([]subscription.Version, len(m.Versions))
	for i, v := range m.Versions {
		versions[i] = subscription.Version{
			UnitRate:    strToDec(v.UnitRate),
			WeeklyHours: strToDec(v.WeeklyHours),
			WeeklyCount: v.WeeklyCount,
			Evenings:    v.Evenings,
			Sundays:     v.Sundays,
			StartDate:   v.StartDate,
			CreatedAt:   v.CreatedAt,
		}
	}
	return &subscription.Subscription{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          strToID(m.ID),
		CompanyID:   strToID(m.CompanyID),
		CustomerID:  strToID(m.CustomerID),
		ServiceName: m.ServiceName,
		VAT:         strToDec(m.VAT),
		Versions:    versions,
	}
}

// ==================== Funding models ====================

type fundingModel struct {
	ID             string              `bson:"_id"`
	CompanyID      string              `bson:"company_id"`
	CustomerID     string              `bson:"customer_id"`
	SubscriptionID string              `bson:"subscription_id"`
	PayerID        string              `bson:"third_party_payer_id"`
	Nature         string              `bson:"nature"`
	Frequency      string              `bson:"frequency"`
	Versions       []fundingVersionDoc `bson:"versions"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
}

type fundingVersionDoc struct {
	AmountTTC                 string     `bson:"amount_ttc"`
	UnitTTCRate               string     `bson:"unit_ttc_rate"`
	CareHours                 string     `bson:"care_hours"`
	CustomerParticipationRate string     `bson:"customer_participation_rate"`
	CareDays                  []int      `bson:"care_days"`
	FolderNumber              string     `bson:"folder_number,omitempty"`
	FundingPlanID             string     `bson:"funding_plan_id,omitempty"`
	StartDate                 time.Time  `bson:"start_date"`
	EndDate                   *time.Time `bson:"end_date,omitempty"`
	CreatedAt                 time.Time  `bson:"created_at"`
}

func toFundingModel(f *funding.Funding) *fundingModel {
	versions := make([]fundingVersionDoc, len(f.Versions))
	for i, v := range f.Versions {
		days := make([]int, len(v.CareDays))
		for j, d := range v.CareDays {
			days[j] = int(d)
		}
		versions[i] = fundingVersionDoc{
			AmountTTC:                 decToStr(v.AmountTTC),
			UnitTTCRate:               decToStr(v.UnitTTCRate),
			CareHours:                 decToStr(v.CareHours),
			CustomerParticipationRate: decToStr(v.CustomerParticipationRate),
			CareDays:                  days,
			FolderNumber:              v.FolderNumber,
			FundingPlanID:             v.FundingPlanID,
			StartDate:                 v.StartDate,
			EndDate:                   v.EndDate,
			CreatedAt:                 v.CreatedAt,
		}
	}
	return &fundingModel{
		ID:             f.ID.String(),
		CompanyID:      f.CompanyID.String(),
		CustomerID:     f.CustomerID.String(),
		SubscriptionID: f.SubscriptionID.String(),
		PayerID:        f.PayerID.String(),
		Nature:         string(f.Nature),
		Frequency:      string(f.Frequency),
		Versions:       versions,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func fromFundingModel(m *fundingModel) *funding.Funding {
	versions := make([]funding.Version, len(m.Versions))
	for i, v := range m.Versions {
		days := make([]time.Weekday, len(v.CareDays))
		for j, d := range v.CareDays {
			days[j] = time.Weekday(d)
		}
		versions[i] = funding.Version{
			AmountTTC:                 strToDec(v.AmountTTC),
			UnitTTCRate:               strToDec(v.UnitTTCRate),
			CareHours:                 strToDec(v.CareHours),
			CustomerParticipationRate: strToDec(v.CustomerParticipationRate),
			CareDays:                  days,
			FolderNumber:              v.FolderNumber,
			FundingPlanID:             v.FundingPlanID,
			StartDate:                 v.StartDate,
			EndDate:                   v.EndDate,
			CreatedAt:                 v.CreatedAt,
		}
	}
	return &funding.Funding{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             strToID(m.ID),
		CompanyID:      strToID(m.CompanyID),
		CustomerID:     strToID(m.CustomerID),
		SubscriptionID: strToID(m.SubscriptionID),
		PayerID:        strToID(m.PayerID),
		Nature:         funding.Nature(m.Nature),
		Frequency:      funding.Frequency(m.Frequency),
		Versions:       versions,
	}
}

type fundingHistoryModel struct {
	FundingID string    `bson:"funding_id"`
	CompanyID string    `bson:"company_id"`
	Period    string    `bson:"period"`
	AmountTTC string    `bson:"amount_ttc"`
	CareHours string    `bson:"care_hours"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toFundingHistoryModel(h funding.History) *fundingHistoryModel {
	return &fundingHistoryModel{
		FundingID: h.FundingID.String(),
		CompanyID: h.CompanyID.String(),
		Period:    h.Period,
		AmountTTC: decToStr(h.AmountTTC),
		CareHours: decToStr(h.CareHours),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func fromFundingHistoryModel(m *fundingHistoryModel) funding.History {
	return funding.History{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		FundingID: strToID(m.FundingID),
		CompanyID: strToID(m.CompanyID),
		Period:    m.Period,
		AmountTTC: strToDec(m.AmountTTC),
		CareHours: strToDec(m.CareHours),
	}
}

// ==================== Event models ====================

type eventModel struct {
	ID             string            `bson:"_id"`
	CompanyID      string            `bson:"company_id"`
	CustomerID     string            `bson:"customer_id"`
	SubscriptionID string            `bson:"subscription_id"`
	AuxiliaryID    string            `bson:"auxiliary_id,omitempty"`
	StartDate      time.Time         `bson:"start_date"`
	EndDate        time.Time         `bson:"end_date"`
	IsCancelled    bool              `bson:"is_cancelled"`
	Cancellation   *cancellationDoc  `bson:"cancellation,omitempty"`
	IsBilled       bool              `bson:"is_billed"`
	Bills          *billSnapshotDoc  `bson:"bills,omitempty"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}

type cancellationDoc struct {
	Condition string `bson:"condition"`
	Reason    string `bson:"reason,omitempty"`
}

type billSnapshotDoc struct {
	PayerID           string `bson:"third_party_payer_id,omitempty"`
	FundingID         string `bson:"funding_id,omitempty"`
	CareHours         string `bson:"care_hours"`
	InclTaxesCustomer string `bson:"incl_taxes_customer"`
	ExclTaxesCustomer string `bson:"excl_taxes_customer"`
	InclTaxesTpp      string `bson:"incl_taxes_tpp"`
	ExclTaxesTpp      string `bson:"excl_taxes_tpp"`
	Surcharge         string `bson:"surcharge"`
}

func toEventModel(e *event.Event) *eventModel {
	m := &eventModel{
		ID:             e.ID.String(),
		CompanyID:      e.CompanyID.String(),
		CustomerID:     e.CustomerID.String(),
		SubscriptionID: e.SubscriptionID.String(),
		AuxiliaryID:    idToStr(e.AuxiliaryID),
		StartDate:      e.StartDate,
		EndDate:        e.EndDate,
		IsCancelled:    e.IsCancelled,
		IsBilled:       e.IsBilled,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.Cancellation != nil {
		m.Cancellation = &cancellationDoc{
			Condition: string(e.Cancellation.Condition),
			Reason:    e.Cancellation.Reason,
		}
	}
	if e.Bills != nil {
		m.Bills = &billSnapshotDoc{
			PayerID:           idToStr(e.Bills.PayerID),
			FundingID:         idToStr(e.Bills.FundingID),
			CareHours:         decToStr(e.Bills.CareHours),
			InclTaxesCustomer: decToStr(e.Bills.InclTaxesCustomer),
			ExclTaxesCustomer: decToStr(e.Bills.ExclTaxesCustomer),
			InclTaxesTpp:      decToStr(e.Bills.InclTaxesTpp),
			ExclTaxesTpp:      decToStr(e.Bills.ExclTaxesTpp),
			Surcharge:         decToStr(e.Bills.Surcharge),
		}
	}
	return m
}

func fromEventModel(m *eventModel) *event.Event {
	e := &event.Event{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             strToID(m.ID),
		CompanyID:      strToID(m.CompanyID),
		CustomerID:     strToID(m.CustomerID),
		SubscriptionID: strToID(m.SubscriptionID),
		AuxiliaryID:    strToID(m.AuxiliaryID),
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		IsCancelled:    m.IsCancelled,
		IsBilled:       m.IsBilled,
	}
	if m.Cancellation != nil {
		e.Cancellation = &event.Cancellation{
			Condition: event.CancelCondition(m.Cancellation.Condition),
			Reason:    m.Cancellation.Reason,
		}
	}
	if m.Bills != nil {
		e.Bills = &event.BillSnapshot{
			PayerID:           strToID(m.Bills.PayerID),
			FundingID:         strToID(m.Bills.FundingID),
			CareHours:         strToDec(m.Bills.CareHours),
			InclTaxesCustomer: strToDec(m.Bills.InclTaxesCustomer),
			ExclTaxesCustomer: strToDec(m.Bills.ExclTaxesCustomer),
			InclTaxesTpp:      strToDec(m.Bills.InclTaxesTpp),
			ExclTaxesTpp:      strToDec(m.Bills.ExclTaxesTpp),
			Surcharge:         strToDec(m.Bills.Surcharge),
		}
	}
	return e
}

// ==================== Billing item models ====================

type billingItemModel struct {
	ID            string    `bson:"_id"`
	CompanyID     string    `bson:"company_id"`
	Name          string    `bson:"name"`
	UnitInclTaxes string    `bson:"unit_incl_taxes"`
	VAT           string    `bson:"vat"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toBillingItemModel(b *billingitem.BillingItem) *billingItemModel {
	return &billingItemModel{
		ID:            b.ID.String(),
		CompanyID:     b.CompanyID.String(),
		Name:          b.Name,
		UnitInclTaxes: decToStr(b.UnitInclTaxes),
		VAT:           decToStr(b.VAT),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func fromBillingItemModel(m *billingItemModel) *billingitem.BillingItem {
	return &billingitem.BillingItem{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            strToID(m.ID),
		CompanyID:     strToID(m.CompanyID),
		Name:          m.Name,
		UnitInclTaxes: strToDec(m.UnitInclTaxes),
		VAT:           strToDec(m.VAT),
	}
}

// ==================== Bill models ====================

type billModel struct {
	ID            string                 `bson:"_id"`
	CompanyID     string                 `bson:"company_id"`
	CustomerID    string                 `bson:"customer_id"`
	PayerID       string                 `bson:"third_party_payer_id,omitempty"`
	Number        string                 `bson:"number"`
	Date          time.Time              `bson:"date"`
	Type          string                 `bson:"type"`
	Origin        string                 `bson:"origin"`
	NetInclTaxes  string                 `bson:"net_incl_taxes"`
	Subscriptions []subscriptionGroupDoc `bson:"subscriptions,omitempty"`
	BillingItems  []itemLineDoc          `bson:"billing_item_list,omitempty"`
	IsEditable    bool                   `bson:"is_editable"`
	CreatedAt     time.Time              `bson:"created_at"`
	UpdatedAt     time.Time              `bson:"updated_at"`
}

type subscriptionGroupDoc struct {
	SubscriptionID string         `bson:"subscription_id"`
	ServiceName    string         `bson:"service_name"`
	Events         []eventLineDoc `bson:"events"`
	Hours          string         `bson:"hours"`
	UnitExclTaxes  string         `bson:"unit_excl_taxes"`
	UnitInclTaxes  string         `bson:"unit_incl_taxes"`
	ExclTaxes      string         `bson:"excl_taxes"`
	InclTaxes      string         `bson:"incl_taxes"`
	Discount       string         `bson:"discount"`
	VAT            string         `bson:"vat"`
}

type eventLineDoc struct {
	EventID     string    `bson:"event_id"`
	AuxiliaryID string    `bson:"auxiliary_id,omitempty"`
	StartDate   time.Time `bson:"start_date"`
	EndDate     time.Time `bson:"end_date"`
	CareHours   string    `bson:"care_hours"`
	InclTaxes   string    `bson:"incl_taxes"`
	ExclTaxes   string    `bson:"excl_taxes"`
	FundingID   string    `bson:"funding_id,omitempty"`
}

type itemLineDoc struct {
	BillingItemID string `bson:"billing_item_id"`
	Name          string `bson:"name"`
	Count         int64  `bson:"count"`
	UnitInclTaxes string `bson:"unit_incl_taxes"`
	InclTaxes     string `bson:"incl_taxes"`
	ExclTaxes     string `bson:"excl_taxes"`
	VAT           string `bson:"vat"`
}

func toEventLineDoc(l bill.EventLine) eventLineDoc {
	return eventLineDoc{
		EventID:     l.EventID.String(),
		AuxiliaryID: idToStr(l.AuxiliaryID),
		StartDate:   l.StartDate,
		EndDate:     l.EndDate,
		CareHours:   decToStr(l.CareHours),
		InclTaxes:   decToStr(l.InclTaxes),
		ExclTaxes:   decToStr(l.ExclTaxes),
		FundingID:   idToStr(l.FundingID),
	}
}

func fromEventLineDoc(d eventLineDoc) bill.EventLine {
	return bill.EventLine{
		EventID:     strToID(d.EventID),
		AuxiliaryID: strToID(d.AuxiliaryID),
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		CareHours:   strToDec(d.CareHours),
		InclTaxes:   strToDec(d.InclTaxes),
		ExclTaxes:   strToDec(d.ExclTaxes),
		FundingID:   strToID(d.FundingID),
	}
}

func toBillModel(b *bill.Bill) *billModel {
	groups := make([]subscriptionGroupDoc, len(b.Subscriptions))
	for i, g := range b.Subscriptions {
		events := make([]eventLineDoc, len(g.Events))
		for j, l := range g.Events {
			events[j] = toEventLineDoc(l)
		}
		groups[i] = subscriptionGroupDoc{
			SubscriptionID: g.SubscriptionID.String(),
			ServiceName:    g.ServiceName,
			Events:         events,
			Hours:          decToStr(g.Hours),
			UnitExclTaxes:  decToStr(g.UnitExclTaxes),
			UnitInclTaxes:  decToStr(g.UnitInclTaxes),
			ExclTaxes:      decToStr(g.ExclTaxes),
			InclTaxes:      decToStr(g.InclTaxes),
			Discount:       decToStr(g.Discount),
			VAT:            decToStr(g.VAT),
		}
	}
	items := make([]itemLineDoc, len(b.BillingItems))
	for i, l := range b.BillingItems {
		items[i] = itemLineDoc{
			BillingItemID: l.BillingItemID.String(),
			Name:          l.Name,
			Count:         l.Count,
			UnitInclTaxes: decToStr(l.UnitInclTaxes),
			InclTaxes:     decToStr(l.InclTaxes),
			ExclTaxes:     decToStr(l.ExclTaxes),
			VAT:           decToStr(l.VAT),
		}
	}
	return &billModel{
		ID:            b.ID.String(),
		CompanyID:     b.CompanyID.String(),
		CustomerID:    b.CustomerID.String(),
		PayerID:       idToStr(b.PayerID),
		Number:        b.Number,
		Date:          b.Date,
		Type:          string(b.Type),
		Origin:        string(b.Origin),
		NetInclTaxes:  decToStr(b.NetInclTaxes),
		Subscriptions: groups,
		BillingItems:  items,
		IsEditable:    b.IsEditable,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func fromBillModel(m *billModel) *bill.Bill {
	groups := make([]bill.SubscriptionGroup, len(m.Subscriptions))
	for i, g := range m.Subscriptions {
		events := make([]bill.EventLine, len(g.Events))
		for j, d := range g.Events {
			events[j] = fromEventLineDoc(d)
		}
		groups[i] = bill.SubscriptionGroup{
			SubscriptionID: strToID(g.SubscriptionID),
			ServiceName:    g.ServiceName,
			Events:         events,
			Hours:          strToDec(g.Hours),
			UnitExclTaxes:  strToDec(g.UnitExclTaxes),
			UnitInclTaxes:  strToDec(g.UnitInclTaxes),
			ExclTaxes:      strToDec(g.ExclTaxes),
			InclTaxes:      strToDec(g.InclTaxes),
			Discount:       strToDec(g.Discount),
			VAT:            strToDec(g.VAT),
		}
	}
	items := make([]bill.ItemLine, len(m.BillingItems))
	for i, d := range m.BillingItems {
		items[i] = bill.ItemLine{
			BillingItemID: strToID(d.BillingItemID),
			Name:          d.Name,
			Count:         d.Count,
			UnitInclTaxes: strToDec(d.UnitInclTaxes),
			InclTaxes:     strToDec(d.InclTaxes),
			ExclTaxes:     strToDec(d.ExclTaxes),
			VAT:           strToDec(d.VAT),
		}
	}
	return &bill.Bill{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            strToID(m.ID),
		CompanyID:     strToID(m.CompanyID),
		CustomerID:    strToID(m.CustomerID),
		PayerID:       strToID(m.PayerID),
		Number:        m.Number,
		Date:          m.Date,
		Type:          bill.Type(m.Type),
		Origin:        bill.Origin(m.Origin),
		NetInclTaxes:  strToDec(m.NetInclTaxes),
		Subscriptions: groups,
		BillingItems:  items,
		IsEditable:    m.IsEditable,
	}
}

// ==================== Credit note models ====================

type creditNoteModel struct {
	ID                 string         `bson:"_id"`
	CompanyID          string         `bson:"company_id"`
	CustomerID         string         `bson:"customer_id"`
	PayerID            string         `bson:"third_party_payer_id,omitempty"`
	Number             string         `bson:"number"`
	Date               time.Time      `bson:"date"`
	Origin             string         `bson:"origin"`
	SubscriptionID     string         `bson:"subscription_id,omitempty"`
	Events             []eventLineDoc `bson:"events,omitempty"`
	InclTaxesCustomer  string         `bson:"incl_taxes_customer"`
	ExclTaxesCustomer  string         `bson:"excl_taxes_customer"`
	InclTaxesTpp       string         `bson:"incl_taxes_tpp"`
	ExclTaxesTpp       string         `bson:"excl_taxes_tpp"`
	LinkedCreditNoteID string         `bson:"linked_credit_note,omitempty"`
	IsEditable         bool           `bson:"is_editable"`
	CreatedAt          time.Time      `bson:"created_at"`
	UpdatedAt          time.Time      `bson:"updated_at"`
}

func toCreditNoteModel(c *creditnote.CreditNote) *creditNoteModel {
	events := make([]eventLineDoc, len(c.Events))
	for i, l := range c.Events {
		events[i] = toEventLineDoc(l)
	}
	return &creditNoteModel{
		ID:                 c.ID.String(),
		CompanyID:          c.CompanyID.String(),
		CustomerID:         c.CustomerID.String(),
		PayerID:            idToStr(c.PayerID),
		Number:             c.Number,
		Date:               c.Date,
		Origin:             string(c.Origin),
		SubscriptionID:     idToStr(c.SubscriptionID),
		Events:             events,
		InclTaxesCustomer:  decToStr(c.InclTaxesCustomer),
		ExclTaxesCustomer:  decToStr(c.ExclTaxesCustomer),
		InclTaxesTpp:       decToStr(c.InclTaxesTpp),
		ExclTaxesTpp:       decToStr(c.ExclTaxesTpp),
		LinkedCreditNoteID: idToStr(c.LinkedCreditNoteID),
		IsEditable:         c.IsEditable,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func fromCreditNoteModel(m *creditNoteModel) *creditnote.CreditNote {
	events := make([]bill.EventLine, len(m.Events))
	for i, d := range m.Events {
		events[i] = fromEventLineDoc(d)
	}
	return &creditnote.CreditNote{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 strToID(m.ID),
		CompanyID:          strToID(m.CompanyID),
		CustomerID:         strToID(m.CustomerID),
		PayerID:            strToID(m.PayerID),
		Number:             m.Number,
		Date:               m.Date,
		Origin:             bill.Origin(m.Origin),
		SubscriptionID:     strToID(m.SubscriptionID),
		Events:             events,
		InclTaxesCustomer:  strToDec(m.InclTaxesCustomer),
		ExclTaxesCustomer:  strToDec(m.ExclTaxesCustomer),
		InclTaxesTpp:       strToDec(m.InclTaxesTpp),
		ExclTaxesTpp:       strToDec(m.ExclTaxesTpp),
		LinkedCreditNoteID: strToID(m.LinkedCreditNoteID),
		IsEditable:         m.IsEditable,
	}
}

// ==================== Bill slip models ====================

type billSlipModel struct {
	ID        string    `bson:"_id"`
	CompanyID string    `bson:"company_id"`
	PayerID   string    `bson:"third_party_payer_id"`
	Month     string    `bson:"month"`
	Number    string    `bson:"number"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toBillSlipModel(s *billslip.BillSlip) *billSlipModel {
	return &billSlipModel{
		ID:        s.ID.String(),
		CompanyID: s.CompanyID.String(),
		PayerID:   s.PayerID.String(),
		Month:     s.Month,
		Number:    s.Number,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromBillSlipModel(m *billSlipModel) *billslip.BillSlip {
	return &billslip.BillSlip{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        strToID(m.ID),
		CompanyID: strToID(m.CompanyID),
		PayerID:   strToID(m.PayerID),
		Month:     m.Month,
		Number:    m.Number,
	}
}

// ==================== Sequence counter model ====================

type sequenceModel struct {
	ID        string `bson:"_id"`
	CompanyID string `bson:"company_id"`
	Kind      string `bson:"kind"`
	Period    string `bson:"period"`
	Seq       int64  `bson:"seq"`
}
