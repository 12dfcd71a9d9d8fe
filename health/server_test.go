// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerHandleHealth(t *testing.T) {
	checker := NewHealthChecker(0)
	checker.RegisterCheck("ok", func(ctx context.Context) error { return nil })
	server := NewServer(checker, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestServerHandleHealthUnhealthy(t *testing.T) {
	checker := NewHealthChecker(0)
	checker.RegisterCheck("broken", func(ctx context.Context) error { return errors.New("down") })
	server := NewServer(checker, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServerHandleLiveness(t *testing.T) {
	server := NewServer(NewHealthChecker(0), 0)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	server.handleLiveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)
}

func TestServerHandleReadiness(t *testing.T) {
	checker := NewHealthChecker(0)
	checker.RegisterCheck("ok", func(ctx context.Context) error { return nil })
	server := NewServer(checker, 0)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	server.handleReadiness(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.RegisterCheck("broken", func(ctx context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	server.handleReadiness(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStartHealthServerAndStop(t *testing.T) {
	server, err := StartHealthServer(0, map[string]HealthCheck{
		"ok": func(ctx context.Context) error { return nil },
	})
	require.NoError(t, err)
	require.NotNil(t, server)

	require.NoError(t, server.Stop(context.Background()))
}
