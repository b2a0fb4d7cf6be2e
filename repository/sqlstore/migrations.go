package sqlstore

import (
	"embed"
	"io/fs"
)

//go:embed migrations
var migrationFiles embed.FS

// Migrations returns the versioned schema scripts for driver ("sqlite" or
// "postgres") and their directory. They create the same tables as
// AutoMigrate over Models.
func Migrations(driver string) (fs.FS, string) {
	return migrationFiles, "migrations/" + driver
}
