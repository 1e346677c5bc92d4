package store

// Comments are kept as JSON documents. The filter columns are copies of
// document fields so queries can use indexes; seq preserves insertion order.
const schema = `
CREATE TABLE IF NOT EXISTS comments (
    seq            INTEGER PRIMARY KEY AUTOINCREMENT,
    id             TEXT NOT NULL,
    sorting_type   TEXT NOT NULL DEFAULT 'none',
    submission_id  TEXT NOT NULL DEFAULT '',
    subreddit_name TEXT NOT NULL DEFAULT '',
    doc            TEXT NOT NULL,
    collected_at   DATETIME NOT NULL,
    UNIQUE(id, sorting_type)
);

CREATE INDEX IF NOT EXISTS idx_comments_submission ON comments(submission_id, sorting_type);
CREATE INDEX IF NOT EXISTS idx_comments_subreddit ON comments(subreddit_name, sorting_type);

CREATE TABLE IF NOT EXISTS reports (
    id           TEXT PRIMARY KEY,
    subreddit    TEXT NOT NULL,
    sorting_type TEXT NOT NULL DEFAULT 'none',
    positive     REAL NOT NULL DEFAULT 0,
    negative     REAL NOT NULL DEFAULT 0,
    comments     INTEGER NOT NULL DEFAULT 0,
    submissions  INTEGER NOT NULL DEFAULT 0,
    interrupted  BOOLEAN NOT NULL DEFAULT 0,
    alerted      BOOLEAN NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_subreddit ON reports(subreddit);
CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
`
