// Package dataset implements ingestion, normalization and aggregation of the
// Chavost sales file. It is the core of the service: everything above it
// (store, services, transport) is plumbing around these transformations.
//
// # Architecture
//
// The package is organized into stateless stages:
//
// 1. Parser: sniffs the delimiter/number convention and produces a raw Table
// 2. Normalize: validates the schema, coerces types, derives computed fields
// 3. Resolve: matches free-text client queries against the normalized rows
// 4. Filter / Summarizer: select and aggregate rows for the dashboard
//
// # Usage
//
//	table, err := dataset.ParseTable(raw)
//	if err != nil {
//	    return err
//	}
//	records, stats, err := dataset.Normalize(table, dataset.Options{PriceIsUnit: true})
//
// # Error Handling
//
// Load failures are typed: MissingFileError, SchemaError (listing exactly the
// absent columns) and ParseError. Row-level coercion failures are not errors;
// affected rows are dropped and counted in LoadStats.
package dataset
