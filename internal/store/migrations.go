package store

// migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func (s *LocalStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id          TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			fields      TEXT NOT NULL,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_entity ON records(entity_type)`,

		`CREATE TABLE IF NOT EXISTS session_history (
			session_id  TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, turn_number)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
