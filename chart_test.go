package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChartFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, chartFileName), []byte(content), 0644))
	return dir
}

func TestLoadChart(t *testing.T) {
	t.Run("loads nested tree", func(t *testing.T) {
		dir := writeChartFile(t, `
accounts:
  - code: "1000"
    name: "Assets"
    type: "main"
    children:
      - code: "1011"
        name: "Cash"
        type: "cash"
`)
		cfg, err := LoadChart(dir)
		require.NoError(t, err)
		require.Len(t, cfg.Accounts, 1)
		require.Len(t, cfg.Accounts[0].Children, 1)
		assert.Equal(t, "1011", cfg.Accounts[0].Children[0].Code)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		cfg, err := LoadChart(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Accounts)
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		dir := writeChartFile(t, `
accounts:
  - code: "1000"
    name: "Assets"
    type: "main"
  - code: "1000"
    name: "Assets Again"
    type: "main"
`)
		_, err := LoadChart(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		dir := writeChartFile(t, `
accounts:
  - code: "1000"
    name: "Assets"
    type: "weird"
`)
		_, err := LoadChart(dir)
		require.Error(t, err)
	})

	t.Run("rejects children under postable account", func(t *testing.T) {
		dir := writeChartFile(t, `
accounts:
  - code: "1011"
    name: "Cash"
    type: "cash"
    children:
      - code: "1012"
        name: "More Cash"
        type: "cash"
`)
		_, err := LoadChart(dir)
		require.Error(t, err)
	})

	t.Run("rejects non-numeric code", func(t *testing.T) {
		dir := writeChartFile(t, `
accounts:
  - code: "CASH"
    name: "Cash"
    type: "cash"
`)
		_, err := LoadChart(dir)
		require.Error(t, err)
	})
}

func TestSeedChart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	logger := NewLoggerIPFS("chart.test")

	cfg := ChartConfig{Accounts: []ChartAccountConfig{
		{Code: "1000", Name: "Assets", Type: "main", Children: []ChartAccountConfig{
			{Code: "1011", Name: "Cash", Type: "cash"},
		}},
	}}
	require.NoError(t, cfg.verifyVariables())

	require.NoError(t, SeedChart(db, cfg, logger))

	var child Account
	require.NoError(t, db.First(&child, "id = ?", "1011").Error)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, "1000", *child.ParentID)
	assert.True(t, child.Balance.IsZero())

	t.Run("rerun is idempotent", func(t *testing.T) {
		require.NoError(t, SeedChart(db, cfg, logger))

		var count int64
		require.NoError(t, db.Model(&Account{}).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	})
}
