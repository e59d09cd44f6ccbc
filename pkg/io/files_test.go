package io_test

import (
	"os"
	"path/filepath"
	"testing"

	kio "github.com/foodgram/edge/pkg/io"
	"github.com/foodgram/edge/pkg/utils/try"
)

func TestCreateAll(t *testing.T) {
	t.Run("it creates a file together with missing parent directories", func(t *testing.T) {
		root := t.TempDir()
		name := filepath.Join(root, "a", "b", "c.txt")

		f := try.To(kio.CreateAll(name, 0644, 0755)).OrFatal(t)
		defer f.Close()

		if _, err := os.Stat(name); err != nil {
			t.Errorf("file is not created: %s", err)
		}
	})
}

func TestDirCopy(t *testing.T) {
	t.Run("it copies a file tree, keeping relative layout", func(t *testing.T) {
		src := t.TempDir()
		dest := t.TempDir()

		files := map[string]string{
			"index.html":        "<html>frontend</html>",
			"css/app.css":       "body {}",
			"js/vendor/lib.js":  "export {}",
			"admin/widgets.css": ".widget {}",
		}
		for name, content := range files {
			f := try.To(kio.CreateAll(filepath.Join(src, name), 0644, 0755)).OrFatal(t)
			if _, err := f.WriteString(content); err != nil {
				t.Fatal(err)
			}
			f.Close()
		}

		if err := kio.DirCopy(src, dest); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		for name, content := range files {
			got := try.To(os.ReadFile(filepath.Join(dest, name))).OrFatal(t)
			if string(got) != content {
				t.Errorf("unmatch content of %s: (actual, expected) = (%s, %s)", name, got, content)
			}
		}
	})

	t.Run("it overwrites files already in dest", func(t *testing.T) {
		src := t.TempDir()
		dest := t.TempDir()

		f := try.To(kio.CreateAll(filepath.Join(src, "app.css"), 0644, 0755)).OrFatal(t)
		f.WriteString("new")
		f.Close()

		g := try.To(kio.CreateAll(filepath.Join(dest, "app.css"), 0644, 0755)).OrFatal(t)
		g.WriteString("stale content, longer than new one")
		g.Close()

		if err := kio.DirCopy(src, dest); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		got := try.To(os.ReadFile(filepath.Join(dest, "app.css"))).OrFatal(t)
		if string(got) != "new" {
			t.Errorf("not overwritten: %s", got)
		}
	})
}
