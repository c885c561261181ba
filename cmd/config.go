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
package cmd

import (
	"github.com/penny-vault/import-nasdaq/backblaze"
	"github.com/penny-vault/import-nasdaq/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// configFile is the layout of $HOME/.import-nasdaq.toml
type configFile struct {
	DB     library.Config `toml:"db"`
	Nasdaq struct {
		URL            string `toml:"url"`
		SkipTestIssues bool   `toml:"skip_test_issues"`
	} `toml:"nasdaq"`
	Output struct {
		File string `toml:"file"`
	} `toml:"output"`
}

func libraryConfig() library.Config {
	var cfg library.Config
	if err := viper.UnmarshalKey("db", &cfg); err != nil {
		log.Fatal().Err(err).Msg("could not parse database configuration")
	}

	// AutomaticEnv is not consulted by UnmarshalKey
	for key, field := range map[string]*string{
		"db.url":      &cfg.URL,
		"db.host":     &cfg.Host,
		"db.user":     &cfg.User,
		"db.password": &cfg.Password,
		"db.database": &cfg.Database,
		"db.schema":   &cfg.Schema,
		"db.sslmode":  &cfg.SSLMode,
	} {
		if val := viper.GetString(key); val != "" {
			*field = val
		}
	}

	if port := viper.GetInt("db.port"); port != 0 {
		cfg.Port = port
	}

	return cfg
}

func backblazeConfig() backblaze.Config {
	return backblaze.Config{
		ApplicationID:  viper.GetString("backblaze.application_id"),
		ApplicationKey: viper.GetString("backblaze.application_key"),
		Bucket:         viper.GetString("backblaze.bucket"),
	}
}
