package store

// Monetary columns are TEXT: decimal values round-trip exactly through
// their string form, which REAL columns would not guarantee.
const schema = `
CREATE TABLE IF NOT EXISTS round_trips (
	user_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	buy_execution_id TEXT NOT NULL,
	sell_execution_id TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	buy_price TEXT NOT NULL,
	sell_price TEXT NOT NULL,
	opened_day TEXT NOT NULL,
	opened_clock TEXT,
	closed_day TEXT NOT NULL,
	closed_clock TEXT,
	commission TEXT NOT NULL,
	profit TEXT NOT NULL,
	hold_minutes INTEGER,
	PRIMARY KEY (user_id, instrument, buy_execution_id, sell_execution_id)
);

CREATE INDEX IF NOT EXISTS idx_round_trips_user ON round_trips(user_id);

CREATE TABLE IF NOT EXISTS open_lots (
	user_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	execution_id TEXT NOT NULL,
	side TEXT NOT NULL,
	trade_day TEXT NOT NULL,
	trade_clock TEXT,
	price TEXT NOT NULL,
	remaining INTEGER NOT NULL,
	commission TEXT NOT NULL,
	PRIMARY KEY (user_id, instrument, execution_id)
);

CREATE INDEX IF NOT EXISTS idx_open_lots_user ON open_lots(user_id);
`
