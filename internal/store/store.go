// Package store handles SQLite persistence of analysis results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mzashi/moodkey/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoFormula is returned when no induced formula has been saved yet.
var ErrNoFormula = errors.New("no formula stored")

// Store wraps SQLite access for key records and induced formulas.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS key_records (
			id INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			mood INTEGER,
			a INTEGER NOT NULL,
			b INTEGER NOT NULL,
			ioc REAL NOT NULL,
			chi2 REAL NOT NULL,
			plaintext TEXT NOT NULL,
			username TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS formulas (
			id INTEGER PRIMARY KEY,
			ma INTEGER NOT NULL,
			ca INTEGER NOT NULL,
			mb INTEGER NOT NULL,
			cb INTEGER NOT NULL,
			record_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_key_records_mood ON key_records(mood);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertKeyRecords stores accepted key records in one transaction.
func (s *Store) InsertKeyRecords(ctx context.Context, recs []model.KeyRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO key_records (label, mood, a, b, ioc, chi2, plaintext, username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	now := time.Now().Format(time.RFC3339Nano)
	for _, rec := range recs {
		mood := sql.NullInt64{}
		if rec.Mood != nil {
			mood = sql.NullInt64{Int64: int64(*rec.Mood), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			rec.Label, mood, rec.Key.A, rec.Key.B, rec.IoC, rec.ChiSquared,
			rec.Plaintext, rec.Username, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListKeyRecords returns every stored key record, oldest first.
func (s *Store) ListKeyRecords(ctx context.Context) ([]model.KeyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, mood, a, b, ioc, chi2, plaintext, username
		 FROM key_records ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var recs []model.KeyRecord
	for rows.Next() {
		var rec model.KeyRecord
		var mood sql.NullInt64
		if err := rows.Scan(&rec.Label, &mood, &rec.Key.A, &rec.Key.B,
			&rec.IoC, &rec.ChiSquared, &rec.Plaintext, &rec.Username); err != nil {
			return nil, err
		}
		if mood.Valid {
			m := int(mood.Int64)
			rec.Mood = &m
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// InsertFormula stores an induced formula.
func (s *Store) InsertFormula(ctx context.Context, f model.KeyFormula, recordCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO formulas (ma, ca, mb, cb, record_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.MA, f.CA, f.MB, f.CB, recordCount, time.Now().Format(time.RFC3339Nano))
	return err
}

// LatestFormula returns the most recently stored formula.
func (s *Store) LatestFormula(ctx context.Context) (model.KeyFormula, error) {
	var f model.KeyFormula
	err := s.db.QueryRowContext(ctx,
		`SELECT ma, ca, mb, cb FROM formulas ORDER BY id DESC LIMIT 1`).
		Scan(&f.MA, &f.CA, &f.MB, &f.CB)
	if errors.Is(err, sql.ErrNoRows) {
		return model.KeyFormula{}, ErrNoFormula
	}
	if err != nil {
		return model.KeyFormula{}, err
	}
	return f, nil
}
