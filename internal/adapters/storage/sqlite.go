package storage

// sqlite.go: backend local del libro de posiciones.
//
// Una sola tabla `kv` (key → value). El PositionStore guarda todo el libro
// serializado bajo una key versionada, así que aquí no hay schema de dominio.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT     NOT NULL,
    updated_at DATETIME NOT NULL
);
`

// SQLiteKV implementa ports.KeyValueStore usando SQLite (pure Go, sin CGo).
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteKV: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteKV: apply schema: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// Get devuelve el valor de key; ok=false si no existe.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage.SQLiteKV.Get %q: %w", key, err)
	}
	return value, true, nil
}

// Set hace upsert de key.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storage.SQLiteKV.Set %q: %w", key, err)
	}
	return nil
}

// Delete borra key. Borrar una key inexistente no es error.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage.SQLiteKV.Delete %q: %w", key, err)
	}
	return nil
}

// GetAll devuelve todas las entradas.
func (s *SQLiteKV) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteKV.GetAll: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("storage.SQLiteKV.GetAll: scan row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
