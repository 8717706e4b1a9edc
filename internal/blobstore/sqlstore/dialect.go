package sqlstore

import (
	"io/fs"

	"github.com/dmitrijs2005/chankeys/internal/blobstore/sqlstore/migrations"
)

type dialect struct {
	name       string
	driver     string
	gooseName  string
	migrations fs.FS
	migDir     string

	put    string
	get    string
	list   string
	delete string
}

var postgres = dialect{
	name:       "postgres",
	driver:     "pgx",
	gooseName:  "pgx",
	migrations: migrations.Postgres,
	migDir:     "postgres",

	put: `
		INSERT INTO blobs (collection, blob_key, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, blob_key)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
	get:    `SELECT data FROM blobs WHERE collection = $1 AND blob_key = $2`,
	list:   `SELECT blob_key FROM blobs WHERE collection = $1 ORDER BY blob_key`,
	delete: `DELETE FROM blobs WHERE collection = $1 AND blob_key = $2`,
}

var sqlite = dialect{
	name:       "sqlite",
	driver:     "sqlite",
	gooseName:  "sqlite3",
	migrations: migrations.SQLite,
	migDir:     "sqlite",

	put: `
		INSERT INTO blobs (collection, blob_key, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, blob_key)
		DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
	get:    `SELECT data FROM blobs WHERE collection = ? AND blob_key = ?`,
	list:   `SELECT blob_key FROM blobs WHERE collection = ? ORDER BY blob_key`,
	delete: `DELETE FROM blobs WHERE collection = ? AND blob_key = ?`,
}
