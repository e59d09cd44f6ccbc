package db

import "context"

// EdgeDatabase is what preflight needs from the backend's database:
// the schema version ledger and the reference-data stores.
//
// Recipe/user tables belong to the application server and are not
// modelled here.
type EdgeDatabase interface {
	Schema() SchemaInterface
	Tags() TagInterface
	Ingredients() IngredientInterface

	// Ping checks the database accepts connections.
	Ping(ctx context.Context) error

	Close() error
}

type SchemaInterface interface {
	// Version returns the schema version currently applied.
	// 0 means "no schema yet".
	Version(ctx context.Context) (int, error)

	// Upgrade applies all schema versions newer than Version,
	// in ascending order, within one transaction.
	Upgrade(ctx context.Context) error
}

// Tag is a fixed recipe category ("breakfast", "lunch", ...).
type Tag struct {
	Name string
	Slug string
}

// Ingredient is a fixed reference row ("salt", "g").
type Ingredient struct {
	Name            string
	MeasurementUnit string
}

type TagInterface interface {
	// Load inserts tags which are not there yet.
	// Rows already present are left as they are.
	//
	// # Returns
	//
	// - int: the number of rows actually inserted.
	Load(ctx context.Context, tags []Tag) (int, error)

	Count(ctx context.Context) (int, error)
}

type IngredientInterface interface {
	// Load inserts ingredients which are not there yet.
	// Rows already present are left as they are.
	//
	// # Returns
	//
	// - int: the number of rows actually inserted.
	Load(ctx context.Context, ingredients []Ingredient) (int, error)

	Count(ctx context.Context) (int, error)
}
