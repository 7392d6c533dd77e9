// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	fileNames := make(map[string]bool)
	for _, entry := range entries {
		fileNames[entry.Name()] = true
	}
	for _, expected := range []string{"000001_create_users.up.sql", "000001_create_users.down.sql"} {
		assert.True(t, fileNames[expected], "should contain %s", expected)
	}

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		assert.True(t, pattern.MatchString(entry.Name()),
			"file %s should match pattern NNNNNN_name.(up|down).sql", entry.Name())
	}
}

func TestMigrationsFS_UsersSchema(t *testing.T) {
	up, err := migrationsFS.ReadFile("migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	sql := string(up)

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, sql, "users_role_check")
	assert.True(t, strings.Contains(sql, "LOWER(email)"), "email must be unique case-insensitively")
}
