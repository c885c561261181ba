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
package library

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoDatabase = errors.New("no database configured")
)

// Config holds the connection settings for the PostgreSQL database that
// stores items, bars and fundamentals
type Config struct {
	URL      string `mapstructure:"url" toml:"url,omitempty"`
	Host     string `mapstructure:"host" toml:"host"`
	Port     int    `mapstructure:"port" toml:"port"`
	User     string `mapstructure:"user" toml:"user"`
	Password string `mapstructure:"password" toml:"password"`
	Database string `mapstructure:"database" toml:"database"`
	Schema   string `mapstructure:"schema" toml:"schema,omitempty"`
	SSLMode  string `mapstructure:"sslmode" toml:"sslmode,omitempty"`
}

// ConnString returns a postgres:// connection URL. An explicit URL takes
// precedence over the individual settings.
func (cfg Config) ConnString() (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}

	if cfg.Host == "" || cfg.Database == "" {
		return "", ErrNoDatabase
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}

	if cfg.User != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			connURL.User = url.User(cfg.User)
		}
	}

	query := url.Values{}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Schema != "" {
		query.Set("search_path", cfg.Schema)
	}
	connURL.RawQuery = query.Encode()

	return connURL.String(), nil
}

// PoolConfig parses the connection settings into a pgxpool configuration
func (cfg Config) PoolConfig() (*pgxpool.Config, error) {
	connStr, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}

	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	return poolCfg, nil
}
