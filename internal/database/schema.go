package database

// schema is the single source of truth for the cache database.
const schema = `
CREATE TABLE IF NOT EXISTS recommendation_runs (
    run_id          TEXT PRIMARY KEY,
    strategy        TEXT NOT NULL,
    combination     TEXT NOT NULL,
    unique_stocks   INTEGER NOT NULL,
    total_across    INTEGER NOT NULL,
    avg_score       REAL NOT NULL,
    degraded        TEXT NOT NULL DEFAULT '',
    force_refresh   INTEGER NOT NULL DEFAULT 0,
    duration_ms     INTEGER NOT NULL,
    generated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_strategy_time
    ON recommendation_runs (strategy, generated_at DESC);

CREATE TABLE IF NOT EXISTS recommendation_items (
    run_id          TEXT NOT NULL REFERENCES recommendation_runs(run_id) ON DELETE CASCADE,
    rank            INTEGER NOT NULL,
    symbol          TEXT NOT NULL,
    combined_score  REAL NOT NULL,
    category_count  INTEGER NOT NULL,
    categories      TEXT NOT NULL,
    tier            TEXT NOT NULL,
    price           REAL NOT NULL,
    change_pct      REAL NOT NULL,
    volume          INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank)
);
`
