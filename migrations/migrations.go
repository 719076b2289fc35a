// Package migrations embeds the SQL schema and applies it in file order.
package migrations

import (
	"context"
	"embed"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.up.sql
var files embed.FS

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Up runs every *.up.sql file. Statements are idempotent so Up is safe to
// call on every start.
func Up(ctx context.Context, db execer) error {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return err
	}
	slices.Sort(names)

	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := db.Exec(ctx, string(b)); err != nil {
			return err
		}
	}

	return nil
}
