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
package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNotConfigured  = errors.New("backblaze credentials or bucket not configured")
)

type Config struct {
	ApplicationID  string `mapstructure:"application_id" toml:"application_id"`
	ApplicationKey string `mapstructure:"application_key" toml:"application_key"`
	Bucket         string `mapstructure:"bucket" toml:"bucket"`
}

// ObjectName returns the name fn is stored under; uploads are grouped in a
// directory per day
func ObjectName(fn string, day time.Time) string {
	return fmt.Sprintf("%s/%s", day.Format("2006-01-02"), filepath.Base(fn))
}

// Upload copies the file fn into the configured bucket
func Upload(cfg Config, fn string) error {
	if cfg.ApplicationID == "" || cfg.ApplicationKey == "" || cfg.Bucket == "" {
		return ErrNotConfigured
	}

	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          cfg.ApplicationID,
		ApplicationKey: cfg.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(cfg.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", cfg.Bucket).Msg("bucket does not exist")
		return ErrBucketNotFound
	}

	outName := ObjectName(fn, time.Now())
	metadata := map[string]string{"content": "nasdaq-ticker-data"}

	file, err := bucket.UploadFile(outName, metadata, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", cfg.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
