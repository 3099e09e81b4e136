package main

import (
	"testing"

	"github.com/linemk/gamekeys-shop/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildMigrateDSN(t *testing.T) {
	dsn := buildMigrateDSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "gamekeys"}, "migrations")
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/gamekeys?sslmode=disable&x-migrations-table=migrations", dsn)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GAMEKEYS_TEST_VAR", "value")
	assert.Equal(t, "value", GetEnv("GAMEKEYS_TEST_VAR", "default"))
	assert.Equal(t, "default", GetEnv("GAMEKEYS_TEST_VAR_MISSING", "default"))
}
