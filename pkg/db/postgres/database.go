package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	kdb "github.com/foodgram/edge/pkg/db"
	kpool "github.com/foodgram/edge/pkg/db/postgres/pool"
	kpgschema "github.com/foodgram/edge/pkg/db/postgres/schema"
	kpgseed "github.com/foodgram/edge/pkg/db/postgres/seed"
)

type edgeDBPostgres struct {
	pool        *pgxpool.Pool
	wrapped     kpool.Pool
	schema      kdb.SchemaInterface
	tags        kdb.TagInterface
	ingredients kdb.IngredientInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (kdb.EdgeDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kdb.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &edgeDBPostgres{
		pool:        pool,
		wrapped:     p,
		schema:      schema,
		tags:        kpgseed.NewTags(p),
		ingredients: kpgseed.NewIngredients(p),
	}, nil
}

func (k *edgeDBPostgres) Schema() kdb.SchemaInterface {
	return k.schema
}

func (k *edgeDBPostgres) Tags() kdb.TagInterface {
	return k.tags
}

func (k *edgeDBPostgres) Ingredients() kdb.IngredientInterface {
	return k.ingredients
}

func (k *edgeDBPostgres) Ping(ctx context.Context) error {
	return k.wrapped.Ping(ctx)
}

func (k *edgeDBPostgres) Close() error {
	k.pool.Close()
	return nil
}
