// Package journal keeps a short history of emitted notifications so the
// back-office can show what went out even when nobody was connected.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Entry is one journaled emit.
type Entry struct {
	bun.BaseModel `bun:"table:relay_journal" json:"-"`

	ID        int64           `bun:",pk,autoincrement" json:"id"`
	Room      string          `bun:",notnull" json:"room"`
	Event     string          `bun:",notnull" json:"event"`
	Payload   json.RawMessage `json:"data"`
	CreatedAt time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Store persists entries in sqlite. The relay treats it as best-effort:
// a broken journal never blocks delivery.
type Store struct {
	db *bun.DB
}

func NewStore(dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	// a single conn keeps in-memory databases alive across queries
	sqldb.SetMaxOpenConns(1)

	return &Store{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

// Init creates the journal table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Store) Record(ctx context.Context, room, event string, payload []byte) error {
	entry := Entry{Room: room, Event: event, Payload: payload, CreatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().Model(&entry).Exec(ctx)
	return err
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	entries := []Entry{}
	err := s.db.NewSelect().
		Model(&entries).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
