/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/mitrahub/mitra"
	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/database"
)

const migrationTable = "mitra_migrations"

// migrateCommands creates the root command for migration-related operations.
func migrateCommands(m *mitraInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "run mitra database migrations",
	}

	cmd.AddCommand(migrateDirectionCommand(m, "up", migrate.Up))
	cmd.AddCommand(migrateDirectionCommand(m, "down", migrate.Down))

	return cmd
}

func migrateDirectionCommand(m *mitraInstance, use string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, args []string) {
			n, err := runMigrations(m.cnf, direction)
			if err != nil {
				log.Printf("Error migrating %s: %v", use, err)
				return
			}
			if direction == migrate.Up {
				fmt.Printf("Applied %d migrations!\n", n)
			} else {
				fmt.Printf("Rolled back %d migrations!\n", n)
			}
		},
	}
}

func runMigrations(cnf *config.Configuration, direction migrate.MigrationDirection) (int, error) {
	migrations := migrate.EmbedFileSystemMigrationSource{
		FileSystem: mitra.SQLFiles,
		Root:       "sql",
	}

	db, err := database.ConnectDB(cnf.DataSource.Dns, time.Duration(cnf.DataSource.MaxConnectWaitSec)*time.Second)
	if err != nil {
		return 0, fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	migrate.SetTable(migrationTable)
	return migrate.Exec(db, "postgres", migrations, direction)
}
