package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"foodlog-go/internal/database/migrations"
	"foodlog-go/internal/foodlog"
)

const entryColumns = "id, dt, ts, food, qty, unit, kcal, fat, carbs, protein, method, confidence"

// SQLiteStore implements foodlog.EntryStore on a single SQLite file. Entries
// live in the entries table, indexed on (dt, ts); offsets live in
// calorie_offsets keyed by dt.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and brings
// its schema up to date. path can be ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection. The caller is
// responsible for its configuration and schema.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens a SQLite connection and applies the pragmas the
// store relies on. The pool is limited to one connection: SQLite allows a
// single writer, and every connection to ":memory:" is a separate database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return db, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e *foodlog.Entry) error {
	var confidence sql.NullFloat64
	if e.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *e.Confidence, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Date, e.Timestamp.UnixNano(), e.Food, e.Quantity, string(e.Unit),
		e.Kcal, e.Fat, e.Carbs, e.Protein, string(e.Method), confidence,
	)
	if err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.ID, classify(err))
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*foodlog.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %s: %w", id, foodlog.ErrNotFound)
		}
		return nil, fmt.Errorf("reading entry %s: %w", id, classify(err))
	}
	return e, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting entry %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) QueryByDate(ctx context.Context, dt string) ([]*foodlog.Entry, error) {
	return s.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE dt = ? ORDER BY ts, rowid", dt)
}

func (s *SQLiteStore) QueryByDateRange(ctx context.Context, from, to string) ([]*foodlog.Entry, error) {
	return s.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE dt >= ? AND dt <= ? ORDER BY dt, ts, rowid", from, to)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]*foodlog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", classify(err))
	}
	defer rows.Close()

	entries := []*foodlog.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", classify(err))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", classify(err))
	}
	return entries, nil
}

func (s *SQLiteStore) GetOffset(ctx context.Context, dt string) (float64, error) {
	var kcal float64
	err := s.db.QueryRowContext(ctx, "SELECT kcal FROM calorie_offsets WHERE dt = ?", dt).Scan(&kcal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading offset for %s: %w", dt, classify(err))
	}
	return kcal, nil
}

func (s *SQLiteStore) SetOffset(ctx context.Context, dt string, kcal float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO calorie_offsets (dt, kcal) VALUES (?, ?) ON CONFLICT(dt) DO UPDATE SET kcal = excluded.kcal",
		dt, kcal)
	if err != nil {
		return fmt.Errorf("writing offset for %s: %w", dt, classify(err))
	}
	return nil
}

func (s *SQLiteStore) QueryOffsets(ctx context.Context, from, to string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT dt, kcal FROM calorie_offsets WHERE dt >= ? AND dt <= ? ORDER BY dt", from, to)
	if err != nil {
		return nil, fmt.Errorf("querying offsets: %w", classify(err))
	}
	defer rows.Close()

	offsets := make(map[string]float64)
	for rows.Next() {
		var dt string
		var kcal float64
		if err := rows.Scan(&dt, &kcal); err != nil {
			return nil, fmt.Errorf("scanning offset: %w", classify(err))
		}
		offsets[dt] = kcal
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating offsets: %w", classify(err))
	}
	return offsets, nil
}

// Verify checks the schema version and SQLite's own integrity check, then
// decodes every stored row, reporting each one that fails.
func (s *SQLiteStore) Verify(ctx context.Context) (*foodlog.VerifyReport, error) {
	report := &foodlog.VerifyReport{}

	if err := s.CheckMigrations(); err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("schema: %v", err))
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return nil, fmt.Errorf("running integrity check: %w", classify(err))
	}
	if integrity != "ok" {
		report.Problems = append(report.Problems, "integrity_check: "+integrity)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM entries ORDER BY dt, ts, rowid")
	if err != nil {
		return nil, fmt.Errorf("scanning entries: %w", classify(err))
	}
	defer rows.Close()
	for rows.Next() {
		report.Entries++
		if _, err := scanEntry(rows); err != nil {
			report.Problems = append(report.Problems, err.Error())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning entries: %w", classify(err))
	}
	rows.Close()

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calorie_offsets").Scan(&report.Offsets); err != nil {
		return nil, fmt.Errorf("counting offsets: %w", classify(err))
	}
	return report, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a complete, consistent copy of the database to destPath
// using VACUUM INTO. destPath must not exist.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one row and checks it decodes to a valid Entry. Rows that
// scan but do not decode are reported as foodlog.ErrCorruptRecord.
func scanEntry(row scanner) (*foodlog.Entry, error) {
	var (
		e          foodlog.Entry
		ts         int64
		unit       string
		method     string
		confidence sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.Date, &ts, &e.Food, &e.Quantity, &unit,
		&e.Kcal, &e.Fat, &e.Carbs, &e.Protein, &method, &confidence)
	if err != nil {
		return nil, err
	}
	e.Timestamp = time.Unix(0, ts)
	e.Unit = foodlog.Unit(unit)
	e.Method = foodlog.Method(method)
	if confidence.Valid {
		c := confidence.Float64
		e.Confidence = &c
	}

	if problem := checkEntry(&e); problem != "" {
		return nil, fmt.Errorf("entry %s: %s: %w", e.ID, problem, foodlog.ErrCorruptRecord)
	}
	return &e, nil
}

func checkEntry(e *foodlog.Entry) string {
	switch {
	case foodlog.ValidateDate(e.Date) != nil:
		return fmt.Sprintf("bad date %q", e.Date)
	case e.Food == "":
		return "empty food"
	case e.Quantity <= 0:
		return fmt.Sprintf("non-positive quantity %v", e.Quantity)
	case !e.Unit.Valid():
		return fmt.Sprintf("unknown unit %q", e.Unit)
	case !e.Method.Valid():
		return fmt.Sprintf("unknown method %q", e.Method)
	case e.Kcal < 0 || e.Fat < 0 || e.Carbs < 0 || e.Protein < 0:
		return "negative nutrient"
	case e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1):
		return fmt.Sprintf("confidence %v out of range", *e.Confidence)
	}
	return ""
}

// classify maps SQLite result codes onto the foodlog error taxonomy.
func classify(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", foodlog.ErrTransientIO, err)
	case se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%w: %w", foodlog.ErrDuplicateID, err)
	}
	return err
}

var (
	_ foodlog.EntryStore  = (*SQLiteStore)(nil)
	_ foodlog.Snapshotter = (*SQLiteStore)(nil)
	_ foodlog.Verifier    = (*SQLiteStore)(nil)
)
