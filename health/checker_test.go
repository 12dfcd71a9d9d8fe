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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	t.Run("RegisterAndCheck", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)

		checker.RegisterCheck("test_healthy", func(ctx context.Context) error {
			return nil
		})
		checker.RegisterCheck("test_unhealthy", func(ctx context.Context) error {
			return errors.New("service unavailable")
		})

		result, err := checker.Check(context.Background(), "test_healthy")
		require.NoError(t, err)
		assert.Equal(t, StatusHealthy, result.Status)
		assert.Equal(t, "test_healthy", result.Name)

		result, err = checker.Check(context.Background(), "test_unhealthy")
		require.NoError(t, err)
		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Equal(t, "service unavailable", result.Message)
	})

	t.Run("CheckNonExistent", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)

		_, err := checker.Check(context.Background(), "non_existent")
		assert.Error(t, err)
	})

	t.Run("CheckAll", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)

		checker.RegisterCheck("check1", func(ctx context.Context) error { return nil })
		checker.RegisterCheck("check2", func(ctx context.Context) error { return errors.New("failed") })

		results := checker.CheckAll(context.Background())

		assert.Len(t, results, 2)
		assert.Equal(t, StatusHealthy, results["check1"].Status)
		assert.Equal(t, StatusUnhealthy, results["check2"].Status)
	})

	t.Run("GetOverallStatus", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)

		checker.RegisterCheck("healthy1", func(ctx context.Context) error { return nil })
		assert.Equal(t, StatusHealthy, checker.GetOverallStatus(context.Background()))

		checker.RegisterCheck("unhealthy", func(ctx context.Context) error { return errors.New("error") })
		assert.Equal(t, StatusUnhealthy, checker.GetOverallStatus(context.Background()))

		checker.UnregisterCheck("unhealthy")
		assert.Equal(t, StatusHealthy, checker.GetOverallStatus(context.Background()))
	})

	t.Run("Caching", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)
		checker.SetCacheTTL(100 * time.Millisecond)

		callCount := 0
		checker.RegisterCheck("cached_check", func(ctx context.Context) error {
			callCount++
			return nil
		})

		_, err := checker.Check(context.Background(), "cached_check")
		require.NoError(t, err)
		assert.Equal(t, 1, callCount)

		_, err = checker.Check(context.Background(), "cached_check")
		require.NoError(t, err)
		assert.Equal(t, 1, callCount)

		time.Sleep(150 * time.Millisecond)

		_, err = checker.Check(context.Background(), "cached_check")
		require.NoError(t, err)
		assert.Equal(t, 2, callCount)
	})

	t.Run("GetSystemHealth", func(t *testing.T) {
		checker := NewHealthChecker(1 * time.Second)

		checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })
		checker.RegisterCheck("resolver", func(ctx context.Context) error { return errors.New("connection failed") })

		sys := checker.GetSystemHealth(context.Background())

		assert.Equal(t, StatusUnhealthy, sys.Status)
		assert.Len(t, sys.Checks, 2)
		assert.Equal(t, StatusHealthy, sys.Checks["storage"].Status)
		assert.Equal(t, StatusUnhealthy, sys.Checks["resolver"].Status)
		assert.NotZero(t, sys.Timestamp)
	})
}

func TestCommonHealthChecks(t *testing.T) {
	t.Run("DatabaseHealthCheck", func(t *testing.T) {
		check := DatabaseHealthCheck(func(ctx context.Context) error { return nil })
		assert.NoError(t, check(context.Background()))

		check = DatabaseHealthCheck(func(ctx context.Context) error { return errors.New("connection refused") })
		assert.ErrorContains(t, check(context.Background()), "connection refused")
	})

	t.Run("KeyStoreHealthCheck", func(t *testing.T) {
		check := KeyStoreHealthCheck(func() error { return nil })
		assert.NoError(t, check(context.Background()))

		check = KeyStoreHealthCheck(func() error { return errors.New("keystore error") })
		assert.ErrorContains(t, check(context.Background()), "keystore error")
	})

	t.Run("ServiceHealthCheck", func(t *testing.T) {
		check := ServiceHealthCheck("https://resolver.example.com", func(ctx context.Context, url string) error {
			assert.Equal(t, "https://resolver.example.com", url)
			return nil
		})
		assert.NoError(t, check(context.Background()))
	})
}
