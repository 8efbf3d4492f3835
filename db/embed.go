// Package db embeds the schema of the insights read model.
package db

import _ "embed"

// Schema creates the products and orders tables. Every statement is
// idempotent, so it is safe to apply on each start.
//
//go:embed migrations/001_schema.sql
var Schema string
