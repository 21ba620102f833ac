package state

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	dbutil "github.com/llehouerou/tubeq/internal/db"
)

const (
	appName    = "tubeq"
	dbFileName = "tubeq.db"
)

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the database location under the XDG data directory.
func DefaultDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// OpenSQLite opens (or creates) the store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := dbutil.Open(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, data []byte) error {
	return s.SaveBatch(ctx, map[string][]byte{key: data})
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, blobs map[string][]byte) error {
	now := time.Now().Unix()
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for key, data := range blobs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET
					value = excluded.value,
					updated_at = excluded.updated_at
			`, key, data, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
