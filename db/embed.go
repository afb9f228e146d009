// Package db provides the embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the idempotent DDL for the menu and receipt tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedMenu is the default catalog in JSON form.
//
//go:embed seed/menu.json
var SeedMenu []byte
