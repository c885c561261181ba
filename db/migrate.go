// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the item, ohlcv and fundamental tables up to the latest
// schema version. databaseURL may use either the postgres:// or pgx5://
// scheme.
func Migrate(databaseURL string) error {
	migrationDir, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}

	migration, err := migrate.NewWithSourceInstance("iofs", migrationDir, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("open migration target: %w", err)
	}

	defer func() {
		if srcErr, dbErr := migration.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("SourceError", srcErr).AnErr("DatabaseError", dbErr).Msg("close migration failed")
		}
	}()

	err = migration.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("database schema is up to date")
		return nil
	}

	if err == nil {
		version, dirty, _ := migration.Version()
		log.Info().Uint("Version", version).Bool("Dirty", dirty).Msg("migrated database schema")
	}

	return err
}

// migrateURL rewrites a postgres connection string to the scheme registered
// by the pgx/v5 migrate driver
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
