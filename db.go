package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/glebarez/go-sqlite"

	"batter-scatter/roster"
)

// PlayerStore keeps the loaded roster in an in-memory sqlite database for
// the lifetime of the process.
type PlayerStore struct {
	db *sql.DB
}

func openPlayerStore(ctx context.Context) (*PlayerStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open player store: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS players (
        id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        height REAL,
        weight REAL,
        handedness TEXT NOT NULL,
        avg REAL,
        hr REAL
    );`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create players table: %w", err)
	}
	return &PlayerStore{db: db}, nil
}

// Replace swaps the stored roster for players, keeping their order.
func (s *PlayerStore) Replace(ctx context.Context, players []roster.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO players (id, name, height, weight, handedness, avg, hr)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range players {
		_, err := stmt.ExecContext(ctx, i, p.Name,
			nullable(p.Height), nullable(p.Weight), p.Handedness, nullable(p.Avg), nullable(p.HR))
		if err != nil {
			return fmt.Errorf("insert player %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// All returns the stored roster in load order.
func (s *PlayerStore) All(ctx context.Context) ([]roster.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, height, weight, handedness, avg, hr
        FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []roster.Player
	for rows.Next() {
		var (
			p                       roster.Player
			height, weight, avg, hr sql.NullFloat64
		)
		if err := rows.Scan(&p.Name, &height, &weight, &p.Handedness, &avg, &hr); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Height, p.Weight, p.Avg, p.HR = orNaN(height), orNaN(weight), orNaN(avg), orNaN(hr)
		players = append(players, p)
	}
	return players, rows.Err()
}

// Count returns the number of stored players.
func (s *PlayerStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (s *PlayerStore) Close() error { return s.db.Close() }

// sqlite has no NaN; it is stored as NULL.
func nullable(f float64) interface{} {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

func orNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
