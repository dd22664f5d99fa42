package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaCategories = `
CREATE TABLE IF NOT EXISTS categories (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_categories_workspace ON categories(workspace_id);
CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(workspace_id, name);
`

const schemaPayees = `
CREATE TABLE IF NOT EXISTS payees (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    last_transaction_at TIMESTAMP,
    frequency TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_payees_workspace ON payees(workspace_id);
CREATE INDEX IF NOT EXISTS idx_payees_name ON payees(workspace_id, name);
`

const schemaSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    name TEXT NOT NULL,
    payee_id TEXT,
    category_id TEXT,
    amount REAL NOT NULL,
    amount2 REAL,
    amount_type TEXT NOT NULL,
    recurring INTEGER NOT NULL DEFAULT 1,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_schedules_workspace ON schedules(workspace_id);
CREATE INDEX IF NOT EXISTS idx_schedules_account ON schedules(workspace_id, account_id, status);
`

const schemaCategoryRules = `
CREATE TABLE IF NOT EXISTS category_rules (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    category_id TEXT NOT NULL,
    score REAL NOT NULL DEFAULT 1.0,
    priority INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_category_rules_workspace ON category_rules(workspace_id);
CREATE INDEX IF NOT EXISTS idx_category_rules_enabled ON category_rules(workspace_id, enabled);
`

const schemaImportRows = `
CREATE TABLE IF NOT EXISTS import_rows (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    import_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    date TIMESTAMP NOT NULL,
    amount REAL NOT NULL,
    raw_payee TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_import_rows_workspace ON import_rows(workspace_id);
CREATE INDEX IF NOT EXISTS idx_import_rows_import ON import_rows(workspace_id, import_id);
`

// suggestions carries the matched payee id and the row date denormalized
// so frequency counting never has to parse the JSON match payloads.
const schemaSuggestions = `
CREATE TABLE IF NOT EXISTS suggestions (
    id TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    import_id TEXT NOT NULL,
    row_id TEXT NOT NULL,
    row_date TIMESTAMP,
    disposition TEXT NOT NULL,
    payee_name TEXT NOT NULL,
    payee_details TEXT,
    payee_id TEXT,
    rule_id TEXT,
    category_match TEXT NOT NULL,
    payee_match TEXT NOT NULL,
    schedule_match TEXT NOT NULL,
    reasons TEXT,
    metadata TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_suggestions_workspace ON suggestions(workspace_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_import ON suggestions(workspace_id, import_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_row ON suggestions(workspace_id, row_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_payee ON suggestions(workspace_id, payee_id, row_date);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaCategories,
		schemaPayees,
		schemaSchedules,
		schemaCategoryRules,
		schemaImportRows,
		schemaSuggestions,
	}
}
