// Package seed loads fixed reference data (tags, ingredients) into the
// backend's database.
//
// Loading is idempotent: rows already present are skipped, so the
// loaders can run on every container start without duplicating data.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	kdb "github.com/foodgram/edge/pkg/db"
	kpool "github.com/foodgram/edge/pkg/db/postgres/pool"
)

var ErrMalformedRecord = errors.New("seed: malformed record")

// ReadTags parses tag fixtures in CSV: one "name,slug" per line, no header.
func ReadTags(r io.Reader) ([]kdb.Tag, error) {
	records, err := readRecords(r, 2)
	if err != nil {
		return nil, err
	}

	tags := make([]kdb.Tag, 0, len(records))
	for _, rec := range records {
		tags = append(tags, kdb.Tag{Name: rec[0], Slug: rec[1]})
	}
	return tags, nil
}

// ReadIngredients parses ingredient fixtures in CSV:
// one "name,measurement unit" per line, no header.
func ReadIngredients(r io.Reader) ([]kdb.Ingredient, error) {
	records, err := readRecords(r, 2)
	if err != nil {
		return nil, err
	}

	ingredients := make([]kdb.Ingredient, 0, len(records))
	for _, rec := range records {
		ingredients = append(ingredients, kdb.Ingredient{
			Name: rec[0], MeasurementUnit: rec[1],
		})
	}
	return ingredients, nil
}

func readRecords(r io.Reader, fields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // checked per record, to name the row in errors

	records := [][]string{}
	for line := 1; ; line += 1 {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		if len(rec) == 1 && rec[0] == "" {
			continue // blank line
		}
		if len(rec) != fields {
			return nil, fmt.Errorf(
				"%w: line %d has %d fields (expected %d)",
				ErrMalformedRecord, line, len(rec), fields,
			)
		}
		for _, f := range rec {
			if f == "" {
				return nil, fmt.Errorf("%w: line %d has an empty field", ErrMalformedRecord, line)
			}
		}
		records = append(records, rec)
	}
}

type tagStore struct {
	pool kpool.Pool
}

func NewTags(pool kpool.Pool) *tagStore {
	return &tagStore{pool: pool}
}

var _ kdb.TagInterface = &tagStore{}

func (s *tagStore) Load(ctx context.Context, tags []kdb.Tag) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, tag := range tags {
		res, err := tx.Exec(
			ctx,
			`INSERT INTO "tag" ("name", "slug") VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			tag.Name, tag.Slug,
		)
		if err != nil {
			return 0, err
		}
		inserted += int(res.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *tagStore) Count(ctx context.Context) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(
		ctx, `SELECT count(*) FROM "tag"`,
	).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

type ingredientStore struct {
	pool kpool.Pool
}

func NewIngredients(pool kpool.Pool) *ingredientStore {
	return &ingredientStore{pool: pool}
}

var _ kdb.IngredientInterface = &ingredientStore{}

func (s *ingredientStore) Load(ctx context.Context, ingredients []kdb.Ingredient) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, ing := range ingredients {
		res, err := tx.Exec(
			ctx,
			`INSERT INTO "ingredient" ("name", "measurement_unit") VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			ing.Name, ing.MeasurementUnit,
		)
		if err != nil {
			return 0, err
		}
		inserted += int(res.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *ingredientStore) Count(ctx context.Context) (int, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(
		ctx, `SELECT count(*) FROM "ingredient"`,
	).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}
