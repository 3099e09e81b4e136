package app

import (
	"testing"

	"github.com/linemk/gamekeys-shop/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "shop", Password: "secret", Name: "gamekeys"})
	assert.Equal(t, "postgres://shop:secret@db:5433/gamekeys?sslmode=disable", dsn)
}

func TestNewApp_RequiresPassword(t *testing.T) {
	_, err := NewApp(nil, &config.Config{Database: config.DatabaseConfig{Host: "db", User: "shop", Name: "gamekeys"}})
	assert.Error(t, err)
}
