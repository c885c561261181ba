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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	PingURL = "https://hc-ping.com"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Check reports the lifecycle of an import run to a healthchecks.io check.
// A check without an ID does nothing.
type Check struct {
	ID      string
	BaseURL string

	client *resty.Client
}

func New(id string) *Check {
	return &Check{
		ID:      id,
		BaseURL: PingURL,
		client:  resty.New(),
	}
}

// Start signals that the run has begun
func (check *Check) Start(ctx context.Context) error {
	return check.ping(ctx, "/start", "")
}

// Success signals that the run completed; msg is shown in the check log
func (check *Check) Success(ctx context.Context, msg string) error {
	return check.ping(ctx, "", msg)
}

// Fail signals that the run did not complete
func (check *Check) Fail(ctx context.Context, msg string) error {
	return check.ping(ctx, "/fail", msg)
}

func (check *Check) ping(ctx context.Context, suffix, msg string) error {
	if check == nil || check.ID == "" {
		return nil
	}

	pingURL := fmt.Sprintf("%s/%s%s", strings.TrimSuffix(check.BaseURL, "/"), check.ID, suffix)
	resp, err := check.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(msg).
		Post(pingURL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("CheckID", check.ID).Msg("healthcheck ping failed")
		return err
	}

	if resp.StatusCode() != 200 {
		zerolog.Ctx(ctx).Warn().Int("StatusCode", resp.StatusCode()).Str("CheckID", check.ID).Msg("healthcheck ping returned invalid status code")
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
