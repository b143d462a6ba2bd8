package database

// Schema is the single source of truth for the analytics store's tables.
// Every statement is idempotent so Migrate can run on every boot.
const Schema = `
CREATE TABLE IF NOT EXISTS stocks (
	symbol TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '',
	listed INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS brokers (
	code     TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	weight   REAL NOT NULL DEFAULT 0.5
);

CREATE TABLE IF NOT EXISTS price_bars (
	symbol TEXT NOT NULL REFERENCES stocks(symbol),
	time   INTEGER NOT NULL,
	open   TEXT NOT NULL,
	high   TEXT NOT NULL,
	low    TEXT NOT NULL,
	close  TEXT NOT NULL,
	volume INTEGER NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (symbol, time)
);
CREATE INDEX IF NOT EXISTS idx_price_bars_symbol_time ON price_bars(symbol, time DESC);

CREATE TABLE IF NOT EXISTS broker_trades (
	symbol      TEXT NOT NULL REFERENCES stocks(symbol),
	time        INTEGER NOT NULL,
	broker_code TEXT NOT NULL,
	buy_volume  INTEGER NOT NULL,
	sell_volume INTEGER NOT NULL,
	buy_value   TEXT NOT NULL,
	sell_value  TEXT NOT NULL,
	PRIMARY KEY (symbol, time, broker_code)
);
CREATE INDEX IF NOT EXISTS idx_broker_trades_symbol_time ON broker_trades(symbol, time DESC);

CREATE TABLE IF NOT EXISTS financial_records (
	symbol               TEXT NOT NULL REFERENCES stocks(symbol),
	period_end           INTEGER NOT NULL,
	revenue              TEXT,
	net_income           TEXT,
	total_assets         TEXT,
	total_equity         TEXT,
	total_debt           TEXT,
	ebitda               TEXT,
	fcf                  TEXT,
	eps                  TEXT,
	book_value_per_share TEXT,
	pe                   TEXT,
	pb                   TEXT,
	ev_ebitda            TEXT,
	roe                  TEXT,
	roa                  TEXT,
	PRIMARY KEY (symbol, period_end)
);

CREATE TABLE IF NOT EXISTS shareholdings (
	symbol            TEXT NOT NULL REFERENCES stocks(symbol),
	reported_date     INTEGER NOT NULL,
	holder_name       TEXT NOT NULL,
	holder_type       TEXT NOT NULL,
	shares_held       INTEGER NOT NULL,
	percentage        REAL NOT NULL,
	change_shares     INTEGER NOT NULL DEFAULT 0,
	change_percentage REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, reported_date, holder_name)
);

CREATE TABLE IF NOT EXISTS sentiment_observations (
	symbol       TEXT NOT NULL REFERENCES stocks(symbol),
	time         INTEGER NOT NULL,
	source       TEXT NOT NULL,
	text_snippet TEXT NOT NULL DEFAULT '',
	sentiment    TEXT NOT NULL,
	confidence   REAL NOT NULL,
	PRIMARY KEY (symbol, time, source)
);

CREATE TABLE IF NOT EXISTS ml_predictions (
	symbol        TEXT NOT NULL REFERENCES stocks(symbol),
	time          INTEGER NOT NULL,
	direction     TEXT NOT NULL,
	confidence    REAL NOT NULL,
	horizon_days  INTEGER NOT NULL,
	model_version TEXT NOT NULL,
	PRIMARY KEY (symbol, time, model_version)
);

CREATE TABLE IF NOT EXISTS composite_scores (
	symbol                 TEXT NOT NULL REFERENCES stocks(symbol),
	time                   INTEGER NOT NULL,
	composite              REAL NOT NULL,
	technical              REAL NOT NULL,
	fundamental            REAL NOT NULL,
	sentiment              REAL NOT NULL,
	ml                     REAL NOT NULL,
	technical_breakdown    TEXT NOT NULL,
	fundamental_breakdown  TEXT NOT NULL,
	sentiment_breakdown    TEXT NOT NULL,
	ml_breakdown           TEXT NOT NULL,
	PRIMARY KEY (symbol, time)
);
CREATE INDEX IF NOT EXISTS idx_composite_scores_symbol_time ON composite_scores(symbol, time DESC);

CREATE TABLE IF NOT EXISTS source_jobs (
	id          TEXT PRIMARY KEY,
	source_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	command     TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_source_jobs_source_status ON source_jobs(source_id, status);
CREATE INDEX IF NOT EXISTS idx_source_jobs_started_at ON source_jobs(started_at DESC);
`
