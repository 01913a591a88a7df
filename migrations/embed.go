// Package migrations embeds SQL migration files into the binary.
//
// This allows the bridge to run migrations without needing the SQL files
// present on the filesystem - they're compiled into the executable.
package migrations

import (
	"embed"

	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/store"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the store package.
	// The embed directive above captures all .sql files in this directory.
	store.MigrationsFS = migrationsFS
	store.MigrationsDir = "." // Files are at root of embedded FS
}
