package schema_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	"github.com/foodgram/edge/internal/testutils/dbmock"
	"github.com/foodgram/edge/pkg/db/postgres/schema"
)

// writeRepo lays out a schema repository:
// keys are "version/file.sql", values are SQL text.
func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, sql := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(sql), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestVersion(t *testing.T) {
	t.Run("it returns the version found in schema_version", func(t *testing.T) {
		pool := &dbmock.Pool{Version: 3}
		testee := schema.New(pool, t.TempDir())

		v, err := testee.Version(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if v != 3 {
			t.Errorf("unmatch version: (actual, expected) = (%d, 3)", v)
		}
	})

	t.Run("a missing schema_version table means version 0", func(t *testing.T) {
		pool := &dbmock.Pool{
			VersionErr: &pgconn.PgError{Code: pgerrcode.UndefinedTable},
		}
		testee := schema.New(pool, t.TempDir())

		v, err := testee.Version(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if v != 0 {
			t.Errorf("unmatch version: (actual, expected) = (%d, 0)", v)
		}
	})

	t.Run("other database errors are passed through", func(t *testing.T) {
		pool := &dbmock.Pool{
			VersionErr: &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
		}
		testee := schema.New(pool, t.TempDir())

		if _, err := testee.Version(context.Background()); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}

func TestUpgrade(t *testing.T) {
	t.Run("it applies only versions newer than the current one, in order", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{
			"1/base.sql":    "CREATE TABLE one ();",
			"2/tags.sql":    "CREATE TABLE tag ();",
			"3/measure.sql": "ALTER TABLE ingredient ADD COLUMN m varchar;",
		})

		pool := &dbmock.Pool{Version: 1}
		testee := schema.New(pool, repo)

		if err := testee.Upgrade(context.Background()); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		applied := []string{}
		for _, c := range pool.Calls {
			if strings.HasPrefix(c.SQL, "CREATE") || strings.HasPrefix(c.SQL, "ALTER") {
				applied = append(applied, c.SQL)
			}
		}

		if len(applied) != 2 {
			t.Fatalf("unexpected statements applied: %v", applied)
		}
		if applied[0] != "CREATE TABLE tag ();" {
			t.Errorf("version 2 is not applied first: %s", applied[0])
		}
		if applied[1] != "ALTER TABLE ingredient ADD COLUMN m varchar;" {
			t.Errorf("version 3 is not applied second: %s", applied[1])
		}

		if pool.Committed != 1 {
			t.Errorf("upgrade is not committed exactly once: %d", pool.Committed)
		}
	})

	t.Run("it records the new version in schema_version", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{
			"1/base.sql": "CREATE TABLE one ();",
		})

		pool := &dbmock.Pool{
			VersionErr: &pgconn.PgError{Code: pgerrcode.UndefinedTable},
		}
		testee := schema.New(pool, repo)

		if err := testee.Upgrade(context.Background()); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		recorded := false
		for _, c := range pool.Calls {
			if strings.Contains(c.SQL, `INSERT INTO "schema_version"`) {
				recorded = true
				if len(c.Args) != 1 || c.Args[0] != 1 {
					t.Errorf("unexpected version recorded: %v", c.Args)
				}
			}
		}
		if !recorded {
			t.Error("schema_version is not updated")
		}
	})

	t.Run("nothing is applied when the schema is up to date", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{
			"1/base.sql": "CREATE TABLE one ();",
		})

		pool := &dbmock.Pool{Version: 1}
		testee := schema.New(pool, repo)

		if err := testee.Upgrade(context.Background()); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		for _, c := range pool.Calls {
			if strings.HasPrefix(c.SQL, "CREATE") {
				t.Errorf("statement applied unexpectedly: %s", c.SQL)
			}
		}
	})

	t.Run("non-numeric entries in the repository are ignored", func(t *testing.T) {
		repo := writeRepo(t, map[string]string{
			"1/base.sql":      "CREATE TABLE one ();",
			"README/note.sql": "CREATE TABLE never ();",
		})

		pool := &dbmock.Pool{Version: 0}
		testee := schema.New(pool, repo)

		if err := testee.Upgrade(context.Background()); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		for _, c := range pool.Calls {
			if c.SQL == "CREATE TABLE never ();" {
				t.Error("non-version directory is applied")
			}
		}
	})
}

func TestNullSchema(t *testing.T) {
	t.Run("upgrading without a repository is an error", func(t *testing.T) {
		if err := schema.Null().Upgrade(context.Background()); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}
