// Package sqlite implements the Cadencio Ledger Store on modernc.org/sqlite.
// Every collection is a table; embedded values (cycles, tags, meta, undo
// payloads) are JSON columns. Access is serialized through one connection,
// so an Update is never interleaved with another View or Update.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
	"github.com/cadencio-app/cadencio/internal/logger"
)

// FileName is the database file created inside the store directory.
const FileName = "cadencio.db"

var errReadOnly = errors.New("write attempted inside a read-only view")

// DB is the SQLite-backed Ledger Store.
type DB struct {
	db  *sql.DB
	log *zap.SugaredLogger

	mu      sync.Mutex
	subs    map[uint64]subscriber
	nextSub uint64
}

type subscriber struct {
	collections map[domain.Collection]bool
	fn          func()
}

var _ domain.Store = (*DB)(nil)

// Open opens (creating if needed) the store inside dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{
		db:   sqlDB,
		log:  logger.GetLogger().Named("store"),
		subs: make(map[uint64]subscriber),
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying database handle.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for i, stmt := range LedgerMigrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// LedgerMigrations returns the schema statements, one per entry.
func LedgerMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id           TEXT PRIMARY KEY,
			date         TEXT NOT NULL,
			amount       INTEGER NOT NULL,
			direction    TEXT NOT NULL CHECK (direction IN ('IN', 'OUT')),
			category_id  TEXT NOT NULL,
			note         TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '[]',
			confirmed_at INTEGER,
			created_at   INTEGER NOT NULL,
			meta         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,

		`CREATE TABLE IF NOT EXISTS obligations (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			total_amount INTEGER NOT NULL DEFAULT 0,
			priority     INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 3),
			cycles       TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS quests (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			target_amount   INTEGER NOT NULL,
			kind            TEXT NOT NULL DEFAULT '',
			tier            INTEGER NOT NULL DEFAULT 0,
			baseline_amount INTEGER,
			shadow_debt     INTEGER,
			created_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS zones (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			kind       TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			amount     INTEGER NOT NULL DEFAULT 0,
			direction  TEXT NOT NULL DEFAULT '',
			meta       TEXT NOT NULL DEFAULT '{}',
			undo       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_recent ON activities(created_at DESC, seq DESC)`,

		`CREATE TABLE IF NOT EXISTS settings (
			id                      INTEGER PRIMARY KEY CHECK (id = 1),
			focus_mode              INTEGER NOT NULL DEFAULT 1,
			friction_enabled        INTEGER NOT NULL DEFAULT 1,
			monthly_income          INTEGER,
			hours_per_week          INTEGER NOT NULL DEFAULT 40,
			monthly_cap             INTEGER NOT NULL DEFAULT 0,
			salary_day              INTEGER NOT NULL DEFAULT 15,
			timezone                TEXT NOT NULL DEFAULT 'UTC',
			self_reported_debt      INTEGER,
			active_quest_id         TEXT NOT NULL DEFAULT '',
			onboarding_completed_at INTEGER
		)`,
	}
}

// ─── Transactions ───────────────────────────────────────────────────────────

// View runs fn against a consistent snapshot. Writes inside fn fail.
func (db *DB) View(ctx context.Context, fn func(domain.Tx) error) error {
	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view: %w", err)
	}
	defer sqlTx.Rollback()

	return fn(&ledgerTx{ctx: ctx, tx: sqlTx, readOnly: true})
}

// Update runs fn atomically. Any error from fn rolls back every write;
// on commit, subscribers watching a written collection are notified.
func (db *DB) Update(ctx context.Context, fn func(domain.Tx) error) error {
	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer sqlTx.Rollback()

	lt := &ledgerTx{ctx: ctx, tx: sqlTx, dirty: make(map[domain.Collection]bool)}
	if err := fn(lt); err != nil {
		observability.StoreUpdates.WithLabelValues("rollback").Inc()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		observability.StoreUpdates.WithLabelValues("rollback").Inc()
		return fmt.Errorf("commit: %w", err)
	}
	observability.StoreUpdates.WithLabelValues("commit").Inc()

	db.notify(lt.dirty)
	return nil
}

// ─── Change Feed ────────────────────────────────────────────────────────────

// Subscribe registers fn for commits that write any of collections.
// An empty collection list watches everything.
func (db *DB) Subscribe(collections []domain.Collection, fn func()) func() {
	if len(collections) == 0 {
		collections = domain.AllCollections
	}
	watch := make(map[domain.Collection]bool, len(collections))
	for _, c := range collections {
		watch[c] = true
	}

	db.mu.Lock()
	id := db.nextSub
	db.nextSub++
	db.subs[id] = subscriber{collections: watch, fn: fn}
	db.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			db.mu.Lock()
			delete(db.subs, id)
			db.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of live subscriptions.
func (db *DB) SubscriberCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.subs)
}

func (db *DB) notify(dirty map[domain.Collection]bool) {
	if len(dirty) == 0 {
		return
	}

	db.mu.Lock()
	var fns []func()
	for _, s := range db.subs {
		for c := range dirty {
			if s.collections[c] {
				fns = append(fns, s.fn)
				break
			}
		}
	}
	db.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	db.log.Debugw("change feed", "collections", len(dirty), "notified", len(fns))
}
