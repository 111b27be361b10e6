package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Items table - one row per stored item. fingerprints holds the
		// JSON-encoded three-pose password sequence; person_image is the
		// filename of the owner photo in the image store.
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			person_image TEXT NOT NULL,
			fingerprints TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
