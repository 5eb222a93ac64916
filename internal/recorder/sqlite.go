package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TickerCard/internal/model"
)

// SQLiteRecorder persists refresh history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_cycles (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			trigger_type TEXT,
			symbol      TEXT,
			status      TEXT,
			row_count   INTEGER,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS card_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			refresh_id    TEXT,
			symbol        TEXT,
			day_start     REAL,
			day_end       REAL,
			delta_percent REAL,
			polarity      TEXT,
			price_text    TEXT,
			price_style   TEXT,
			points        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_card_ts ON card_history(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(res *model.RefreshResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}
	_, err := r.db.Exec(`INSERT INTO refresh_cycles
		(id, timestamp, trigger_type, symbol, status, row_count, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		res.ID, res.StartedAt.Unix(), string(res.Trigger), res.Symbol,
		string(res.Status), res.Rows, errText, res.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordCard(evt *CardEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO card_history
		(timestamp, refresh_id, symbol, day_start, day_end, delta_percent, polarity, price_text, price_style, points)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RefreshID, evt.Symbol,
		evt.DayStart, evt.DayEnd, evt.DeltaPercent, evt.Polarity,
		evt.PriceText, evt.PriceStyle, evt.Points,
	)
	return err
}

func (r *SQLiteRecorder) RefreshCounts(since time.Time) (map[model.RefreshStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM refresh_cycles WHERE timestamp >= ? GROUP BY status`, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.RefreshStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.RefreshStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
