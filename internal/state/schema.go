package state

import "database/sql"

const currentSchemaVersion = 1

// The store is a namespaced key/value table of JSON blobs, one key per
// persisted document. Unknown keys are ignored by readers, so schema changes
// inside a blob never need a migration here.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}

func getValue(db *sql.DB, key string) ([]byte, bool) {
	var value string
	row := db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		return nil, false
	}
	return []byte(value), true
}

func setValue(db *sql.DB, key string, value []byte, now int64) error {
	_, err := db.Exec(`
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(value), now)
	return err
}
