// Package db provides the embedded migrations and seed data.
package db

import "embed"

// Migrations holds the golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Seed holds the demo data loaded by the seed tool.
//
//go:embed seed/*.json
var Seed embed.FS
