// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rubenv/sql-migrate"
)

// This file maintains the database migration code.  See
// https://github.com/rubenv/sql-migrate for details of what goes in
// here.  This runs "outside" the normal store flow, either at
// initial startup or from an external tool.

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-quads",
			Up: []string{
				`CREATE TABLE named_graph(
					graph TEXT PRIMARY KEY
				)`,
				`CREATE TABLE quad(
					graph TEXT NOT NULL,
					subject TEXT NOT NULL,
					predicate TEXT NOT NULL,
					object TEXT NOT NULL,
					PRIMARY KEY(graph, subject, predicate, object)
				)`,
				`CREATE INDEX quad_subject ON quad(subject)`,
				`CREATE INDEX quad_object ON quad(object)`,
			},
			Down: []string{
				`DROP TABLE quad`,
				`DROP TABLE named_graph`,
			},
		},
	},
}

// Upgrade upgrades a database to the latest database schema version.
func Upgrade(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Up)
	return errors.Wrap(err, "upgrading database schema")
}

// Drop clears a database by running all of the migrations in reverse,
// ultimately resulting in dropping all of the tables.
func Drop(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Down)
	return errors.Wrap(err, "dropping database schema")
}
