package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsStartupErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "oracle")

	err := run([]string{"-env", filepath.Join(dir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRun_ReturnsImportErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "data", "codequiz.db"))
	t.Setenv("REDIS_ADDR", "")

	err := run([]string{"-env", filepath.Join(dir, "missing.env"), "-import", filepath.Join(dir, "missing.xlsx")})
	require.Error(t, err)
	if strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 driver requires cgo")
	}
	assert.Contains(t, err.Error(), "import failed")
	assert.FileExists(t, filepath.Join(dir, "data", "codequiz.db"))
}

func TestRun_RejectsUnknownFlags(t *testing.T) {
	assert.Error(t, run([]string{"-nope"}))
}
