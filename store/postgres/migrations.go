package postgres

// Decimal amounts are stored as TEXT: all monetary arithmetic happens in Go
// and the database only round-trips exact printed values.

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create_carebill_companies",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    code       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		name: "create_carebill_customers",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_customers (
    id          TEXT PRIMARY KEY,
    company_id  TEXT NOT NULL,
    first_name  TEXT NOT NULL DEFAULT '',
    last_name   TEXT NOT NULL DEFAULT '',
    stopped_at  TIMESTAMPTZ,
    stop_reason TEXT NOT NULL DEFAULT '',
    archived_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_customers_company ON carebill_customers (company_id, created_at DESC);
`,
	},
	{
		name: "create_carebill_third_party_payers",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_third_party_payers (
    id                  TEXT PRIMARY KEY,
    company_id          TEXT NOT NULL,
    name                TEXT NOT NULL DEFAULT '',
    billing_mode        TEXT NOT NULL DEFAULT 'direct',
    teletransmission_id TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_payers_company ON carebill_third_party_payers (company_id, name);
`,
	},
	{
		name: "create_carebill_subscriptions",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_subscriptions (
    id           TEXT PRIMARY KEY,
    company_id   TEXT NOT NULL,
    customer_id  TEXT NOT NULL,
    service_name TEXT NOT NULL DEFAULT '',
    vat          TEXT NOT NULL DEFAULT '0',
    versions     JSONB NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_subscriptions_customer ON carebill_subscriptions (company_id, customer_id);
`,
	},
	{
		name: "create_carebill_fundings",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_fundings (
    id                   TEXT PRIMARY KEY,
    company_id           TEXT NOT NULL,
    customer_id          TEXT NOT NULL,
    subscription_id      TEXT NOT NULL,
    third_party_payer_id TEXT NOT NULL,
    nature               TEXT NOT NULL DEFAULT 'fixed',
    frequency            TEXT NOT NULL DEFAULT 'once',
    versions             JSONB NOT NULL DEFAULT '[]',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_fundings_customer ON carebill_fundings (company_id, customer_id);
CREATE INDEX IF NOT EXISTS idx_carebill_fundings_subscription ON carebill_fundings (company_id, subscription_id);
`,
	},
	{
		name: "create_carebill_funding_histories",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_funding_histories (
    id         BIGSERIAL PRIMARY KEY,
    funding_id TEXT NOT NULL,
    company_id TEXT NOT NULL,
    period     TEXT NOT NULL DEFAULT '',
    amount_ttc TEXT NOT NULL DEFAULT '0',
    care_hours TEXT NOT NULL DEFAULT '0',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_funding_histories_period ON carebill_funding_histories (company_id, funding_id, period);
`,
	},
	{
		name: "create_carebill_events",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_events (
    id              TEXT PRIMARY KEY,
    company_id      TEXT NOT NULL,
    customer_id     TEXT NOT NULL,
    subscription_id TEXT NOT NULL,
    auxiliary_id    TEXT NOT NULL DEFAULT '',
    start_date      TIMESTAMPTZ NOT NULL,
    end_date        TIMESTAMPTZ NOT NULL,
    is_cancelled    BOOLEAN NOT NULL DEFAULT FALSE,
    cancellation    JSONB,
    is_billed       BOOLEAN NOT NULL DEFAULT FALSE,
    bills           JSONB,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_events_customer ON carebill_events (company_id, customer_id, start_date);
CREATE INDEX IF NOT EXISTS idx_carebill_events_billed ON carebill_events (company_id, is_billed);
`,
	},
	{
		name: "create_carebill_billing_items",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_billing_items (
    id              TEXT PRIMARY KEY,
    company_id      TEXT NOT NULL,
    name            TEXT NOT NULL DEFAULT '',
    unit_incl_taxes TEXT NOT NULL DEFAULT '0',
    vat             TEXT NOT NULL DEFAULT '0',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_billing_items_company ON carebill_billing_items (company_id, name);
`,
	},
	{
		name: "create_carebill_bills",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_bills (
    id                   TEXT PRIMARY KEY,
    company_id           TEXT NOT NULL,
    customer_id          TEXT NOT NULL,
    third_party_payer_id TEXT NOT NULL DEFAULT '',
    number               TEXT NOT NULL,
    date                 TIMESTAMPTZ NOT NULL,
    type                 TEXT NOT NULL DEFAULT 'automatic',
    origin               TEXT NOT NULL DEFAULT 'internal',
    net_incl_taxes       TEXT NOT NULL DEFAULT '0',
    subscriptions        JSONB NOT NULL DEFAULT '[]',
    billing_item_list    JSONB NOT NULL DEFAULT '[]',
    is_editable          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_bills_number ON carebill_bills (company_id, number);
CREATE INDEX IF NOT EXISTS idx_carebill_bills_customer ON carebill_bills (company_id, customer_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_carebill_bills_payer ON carebill_bills (company_id, third_party_payer_id, date DESC);
`,
	},
	{
		name: "create_carebill_credit_notes",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_credit_notes (
    id                   TEXT PRIMARY KEY,
    company_id           TEXT NOT NULL,
    customer_id          TEXT NOT NULL,
    third_party_payer_id TEXT NOT NULL DEFAULT '',
    number               TEXT NOT NULL,
    date                 TIMESTAMPTZ NOT NULL,
    origin               TEXT NOT NULL DEFAULT 'internal',
    subscription_id      TEXT NOT NULL DEFAULT '',
    events               JSONB NOT NULL DEFAULT '[]',
    incl_taxes_customer  TEXT NOT NULL DEFAULT '0',
    excl_taxes_customer  TEXT NOT NULL DEFAULT '0',
    incl_taxes_tpp       TEXT NOT NULL DEFAULT '0',
    excl_taxes_tpp       TEXT NOT NULL DEFAULT '0',
    linked_credit_note   TEXT NOT NULL DEFAULT '',
    is_editable          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_credit_notes_number ON carebill_credit_notes (company_id, number);
CREATE INDEX IF NOT EXISTS idx_carebill_credit_notes_customer ON carebill_credit_notes (company_id, customer_id, date DESC);
`,
	},
	{
		name: "create_carebill_bill_slips",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_bill_slips (
    id                   TEXT PRIMARY KEY,
    company_id           TEXT NOT NULL,
    third_party_payer_id TEXT NOT NULL,
    month                TEXT NOT NULL,
    number               TEXT NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_bill_slips_payer_month ON carebill_bill_slips (company_id, third_party_payer_id, month);
`,
	},
	{
		name: "create_carebill_sequences",
		sql: `
CREATE TABLE IF NOT EXISTS carebill_sequences (
    company_id TEXT NOT NULL,
    kind       TEXT NOT NULL,
    period     TEXT NOT NULL,
    seq        BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (company_id, kind, period)
);
`,
	},
}
