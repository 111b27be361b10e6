package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tristanduncombe/DECO3500/internal/fingerprint"
)

// ErrNotFound is returned when a requested resource does not exist,
// including when a concurrent unlock already consumed it.
var ErrNotFound = errors.New("not found")

// Item is an inventory entry bound to a gesture password. Items are
// immutable after creation; the only mutation is consumption, which
// deletes the row.
type Item struct {
	ID           string
	Label        string
	PersonImage  string
	Fingerprints fingerprint.Sequence
	CreatedAt    time.Time
}

// ItemRepository provides persistence for items.
type ItemRepository struct {
	db *sql.DB
}

// Items returns the item repository for this store.
func (s *Store) Items() *ItemRepository {
	return &ItemRepository{db: s.db}
}

// Create inserts a new item into the database.
func (r *ItemRepository) Create(item *Item) error {
	item.CreatedAt = time.Now()

	encoded, err := json.Marshal(item.Fingerprints)
	if err != nil {
		return fmt.Errorf("encode fingerprints: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO items (id, label, person_image, fingerprints, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.Label, item.PersonImage, string(encoded), item.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves an item by its ID.
func (r *ItemRepository) GetByID(id string) (*Item, error) {
	item := &Item{}
	var encoded string

	err := r.db.QueryRow(
		`SELECT id, label, person_image, fingerprints, created_at
		 FROM items WHERE id = ?`,
		id,
	).Scan(&item.ID, &item.Label, &item.PersonImage, &encoded, &item.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(encoded), &item.Fingerprints); err != nil {
		return nil, fmt.Errorf("decode fingerprints: %w", err)
	}

	return item, nil
}

// List retrieves all items, newest first. Fingerprints are decoded
// along with the rest of the row; callers building external projections
// must take care not to expose them.
func (r *ItemRepository) List() ([]*Item, error) {
	rows, err := r.db.Query(
		`SELECT id, label, person_image, fingerprints, created_at
		 FROM items ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		var encoded string

		err := rows.Scan(&item.ID, &item.Label, &item.PersonImage, &encoded, &item.CreatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(encoded), &item.Fingerprints); err != nil {
			return nil, fmt.Errorf("decode fingerprints: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Count returns the number of stored items.
func (r *ItemRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Consume removes an item after a successful unlock. The single
// conditional DELETE is the compare-and-delete primitive guaranteeing
// at-most-one successful consumption: when two correct attempts race,
// exactly one caller sees nil and the other sees ErrNotFound.
func (r *ItemRepository) Consume(id string) error {
	result, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
