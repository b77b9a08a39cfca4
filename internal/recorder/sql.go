package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketScanner/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLRecorder persists alerts and cycles to SQLite or Postgres.
type SQLRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

type alertRow struct {
	CycleID    string  `db:"cycle_id"`
	FiredAt    int64   `db:"fired_at"`
	Symbol     string  `db:"symbol"`
	Kind       string  `db:"kind"`
	Percent    float64 `db:"percent"`
	FirstPrice float64 `db:"first_price"`
	LastPrice  float64 `db:"last_price"`
	WindowLen  int     `db:"window_len"`
	FirstSeen  int64   `db:"first_seen"`
	Delivered  int     `db:"delivered"`
	Error      string  `db:"error"`
}

type cycleRow struct {
	CycleID    string `db:"cycle_id"`
	StartedAt  int64  `db:"started_at"`
	DurationMS int64  `db:"duration_ms"`
	Universe   int    `db:"universe"`
	Quoted     int    `db:"quoted"`
	DataGaps   int    `db:"data_gaps"`
	Eligible   int    `db:"eligible"`
	Tracked    int    `db:"tracked"`
	Alerts     int    `db:"alerts"`
	Error      string `db:"error"`
}

// NewSQLRecorder opens the database and runs migrations. driver is "sqlite"
// or "postgres".
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// WAL so readers (dashboards, sqlite3 shell) do not block the scanner.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r := &SQLRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] %s recorder opened", driver)
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	idType := "INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	if r.db.DriverName() == "postgres" {
		idType = "BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS alerts (
			id          %s,
			cycle_id    TEXT NOT NULL,
			fired_at    BIGINT NOT NULL,
			symbol      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			percent     %s,
			first_price %s,
			last_price  %s,
			window_len  INTEGER,
			first_seen  BIGINT,
			delivered   INTEGER,
			error       TEXT
		)`, idType, realType, realType, realType),
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(fired_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cycles (
			id          %s,
			cycle_id    TEXT NOT NULL,
			started_at  BIGINT NOT NULL,
			duration_ms BIGINT,
			universe    INTEGER,
			quoted      INTEGER,
			data_gaps   INTEGER,
			eligible    INTEGER,
			tracked     INTEGER,
			alerts      INTEGER,
			error       TEXT
		)`, idType),
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLRecorder) RecordAlert(a *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := alertRow{
		CycleID:    a.CycleID,
		FiredAt:    a.FiredAt.Unix(),
		Symbol:     a.Symbol,
		Kind:       string(a.Trend.Kind),
		Percent:    a.Trend.Percent,
		FirstPrice: a.Trend.First,
		LastPrice:  a.Trend.Last,
		WindowLen:  a.WindowLen,
		FirstSeen:  a.FirstSeen.Unix(),
		Delivered:  1,
	}
	if a.DeliveryErr != nil {
		row.Delivered = 0
		row.Error = a.DeliveryErr.Error()
	}
	_, err := r.db.NamedExec(`INSERT INTO alerts
		(cycle_id, fired_at, symbol, kind, percent, first_price, last_price, window_len, first_seen, delivered, error)
		VALUES (:cycle_id, :fired_at, :symbol, :kind, :percent, :first_price, :last_price, :window_len, :first_seen, :delivered, :error)`,
		row)
	return err
}

func (r *SQLRecorder) RecordCycle(rep *model.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := cycleRow{
		CycleID:    rep.ID,
		StartedAt:  rep.StartedAt.Unix(),
		DurationMS: rep.Duration().Milliseconds(),
		Universe:   rep.Universe,
		Quoted:     rep.Quoted,
		DataGaps:   rep.DataGaps,
		Eligible:   rep.Eligible,
		Tracked:    rep.Tracked,
		Alerts:     len(rep.Alerts),
	}
	if rep.FetchErr != nil {
		row.Error = rep.FetchErr.Error()
	}
	_, err := r.db.NamedExec(`INSERT INTO cycles
		(cycle_id, started_at, duration_ms, universe, quoted, data_gaps, eligible, tracked, alerts, error)
		VALUES (:cycle_id, :started_at, :duration_ms, :universe, :quoted, :data_gaps, :eligible, :tracked, :alerts, :error)`,
		row)
	return err
}

// RecentAlerts returns the newest alerts first.
func (r *SQLRecorder) RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	var rows []alertRow
	query := r.db.Rebind(`SELECT cycle_id, fired_at, symbol, kind, percent, first_price, last_price,
		window_len, first_seen, delivered, error
		FROM alerts ORDER BY fired_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("select alerts: %w", err)
	}

	alerts := make([]model.Alert, len(rows))
	for i, row := range rows {
		alerts[i] = model.Alert{
			CycleID: row.CycleID,
			Symbol:  row.Symbol,
			Trend: model.TrendResult{
				Kind:    model.TrendKind(row.Kind),
				Percent: row.Percent,
				First:   row.FirstPrice,
				Last:    row.LastPrice,
				Points:  row.WindowLen,
			},
			WindowLen: row.WindowLen,
			FirstSeen: time.Unix(row.FirstSeen, 0),
			FiredAt:   time.Unix(row.FiredAt, 0),
		}
		if row.Delivered == 0 {
			alerts[i].DeliveryErr = errors.New(row.Error)
		}
	}
	return alerts, nil
}

func (r *SQLRecorder) Close() error {
	log.Println("[INFO] closing recorder")
	return r.db.Close()
}
