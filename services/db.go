package services

import "os"

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

// DatabaseDriver selects the backing store. Postgres is the production
// default; sqlite keeps local development and CI dependency-free.
func DatabaseDriver() string {
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		return driver
	}
	return DriverPostgres
}
