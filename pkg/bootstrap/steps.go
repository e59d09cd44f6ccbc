package bootstrap

import (
	"context"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	kdb "github.com/foodgram/edge/pkg/db"
	"github.com/foodgram/edge/pkg/db/postgres/seed"
	kio "github.com/foodgram/edge/pkg/io"
	"github.com/foodgram/edge/pkg/retry"
)

// WaitTCP blocks until addr accepts TCP connections.
//
// "Not reachable yet" is the expected condition here, not an error:
// the probe retries with backoff until the context is cancelled.
// The orchestrator owns the overall deadline.
func WaitTCP(addr string, backoff retry.Backoff, logger *log.Logger) Step {
	return Step{
		Name:  "wait for " + addr,
		After: Unready,
		Run: func(ctx context.Context) error {
			probe := retry.Go(ctx, backoff, func() (struct{}, error) {
				conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
				if err != nil {
					logger.Printf("%s is not reachable yet. waiting...", addr)
					return struct{}{}, retry.ErrRetry
				}
				conn.Close()
				return struct{}{}, nil
			})

			select {
			case <-ctx.Done():
				return ctx.Err()
			case result := <-probe:
				return result.Err
			}
		},
	}
}

// Migrate applies pending schema versions.
func Migrate(schema func() (kdb.SchemaInterface, error)) Step {
	return Step{
		Name:  "migrate schema",
		After: SchemaMigrated,
		Run: func(ctx context.Context) error {
			s, err := schema()
			if err != nil {
				return err
			}
			return s.Upgrade(ctx)
		},
	}
}

// CopyPair is one source tree to publish into the shared asset volume.
type CopyPair struct {
	Src  string
	Dest string
}

// CollectStatic publishes asset trees into the shared volume the
// gateway serves from.
func CollectStatic(pairs ...CopyPair) Step {
	return Step{
		Name:  "collect static assets",
		After: AssetsCollected,
		Run: func(ctx context.Context) error {
			for _, p := range pairs {
				if err := kio.DirCopy(p.Src, p.Dest); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Seed loads the reference data sets (tags, ingredients) from CSV
// fixtures under dataDir. Re-running inserts nothing new.
func Seed(db func() (kdb.EdgeDatabase, error), dataDir string, logger *log.Logger) Step {
	return Step{
		Name:  "load reference data",
		After: AssetsCollected,
		Run: func(ctx context.Context) error {
			database, err := db()
			if err != nil {
				return err
			}

			{
				f, err := os.Open(filepath.Join(dataDir, "tags.csv"))
				if err != nil {
					return err
				}
				tags, err := seed.ReadTags(f)
				f.Close()
				if err != nil {
					return err
				}

				inserted, err := database.Tags().Load(ctx, tags)
				if err != nil {
					return err
				}
				logger.Printf("tags: %d in fixture, %d inserted", len(tags), inserted)
			}

			{
				f, err := os.Open(filepath.Join(dataDir, "ingredients.csv"))
				if err != nil {
					return err
				}
				ingredients, err := seed.ReadIngredients(f)
				f.Close()
				if err != nil {
					return err
				}

				inserted, err := database.Ingredients().Load(ctx, ingredients)
				if err != nil {
					return err
				}
				logger.Printf("ingredients: %d in fixture, %d inserted", len(ingredients), inserted)
			}

			return nil
		},
	}
}
