package config

type Storage struct{}

var _ StorageConfig = Storage{}

// GetDatabaseURL returns the Postgres connection string for scan history.
// Empty means history is kept in memory only.
func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
