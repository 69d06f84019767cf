package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/bingoserver/models"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"
)

// PostgresStore persists room documents as a jsonb column and takes a
// row lock for conditional writes, so UpdateIf keeps its
// compare-and-set guarantee across server processes. Snapshot fan-out
// is in-process: every subscriber must share the store instance.
type PostgresStore struct {
	db       *sql.DB
	notifier *notifier
}

func NewPostgresStore(host string, port int, user, password, dbname string) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db, notifier: newNotifier()}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS bingo_rooms (
            id VARCHAR(64) PRIMARY KEY,
            code VARCHAR(6) NOT NULL,
            doc JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_bingo_rooms_code ON bingo_rooms(code);
    `)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, room *models.Room) (string, error) {
	doc := room.Clone()
	doc.ID = uuid.New().String()

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO bingo_rooms (id, code, doc) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, doc.ID, doc.Code, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Room, error) {
	var data []byte
	query := `SELECT doc FROM bingo_rooms WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return unmarshalRoom(data)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	var data []byte
	query := `SELECT doc FROM bingo_rooms WHERE code = $1 ORDER BY created_at DESC LIMIT 1`
	err := s.db.QueryRowContext(ctx, query, code).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return unmarshalRoom(data)
}

func (s *PostgresStore) UpdateIf(ctx context.Context, id string, cond func(*models.Room) error, mutate func(*models.Room)) (*models.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var data []byte
	query := `SELECT doc FROM bingo_rooms WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	room, err := unmarshalRoom(data)
	if err != nil {
		return nil, err
	}

	if cond != nil {
		if err := cond(room); err != nil {
			return nil, err
		}
	}

	mutate(room)

	updated, err := json.Marshal(room)
	if err != nil {
		return nil, err
	}
	update := `UPDATE bingo_rooms SET doc = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, updated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.notifier.publish(id, room)
	return room.Clone(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bingo_rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	s.notifier.publish(id, nil)
	return nil
}

func (s *PostgresStore) Subscribe(id string, fn SnapshotFunc) (Unsubscribe, error) {
	current, err := s.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}

	unsub := s.notifier.add(id, fn)
	fn(current)
	return unsub, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func unmarshalRoom(data []byte) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room doc: %w", err)
	}
	return &room, nil
}
