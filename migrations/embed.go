// Package migrations embeds SQL migration files into the binary.
//
// This allows huekeep to migrate its run history database without the
// SQL files being present on the filesystem.
package migrations

import (
	"embed"

	"github.com/greyhollow/huekeep/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
