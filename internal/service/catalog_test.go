package service_test

import (
	"context"
	"testing"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/linemk/gamekeys-shop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Reads(t *testing.T) {
	repo := newFakeGameRepo()
	repo.games[1] = &models.Game{ID: 1, Title: "Elden Ring", Price: dec("499"), CategoryID: 1}
	repo.games[2] = &models.Game{ID: 2, Title: "Hades", Price: dec("300"), CategoryID: 2}

	svc := service.NewCatalogService(testLogger(), repo)
	ctx := context.Background()

	cat := int64(2)
	games, err := svc.ListGames(ctx, storage.GameFilter{CategoryID: &cat})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0].Title)

	game, err := svc.GetGame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Elden Ring", game.Title)

	_, err = svc.GetGame(ctx, 42)
	assert.ErrorIs(t, err, service.ErrNotFound)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCatalogService_AdminWrites(t *testing.T) {
	repo := newFakeGameRepo()
	svc := service.NewCatalogService(testLogger(), repo)
	ctx := context.Background()

	_, err := svc.CreateGame(ctx, buyer, &models.Game{Title: "Hades", Price: dec("300")})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.CreateGame(ctx, admin, &models.Game{Title: "Broken", Price: dec("-1")})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.CreateGame(ctx, admin, &models.Game{Title: "Broken", Price: dec("10"), ReferencePrice: decPtr("-5")})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	created, err := svc.CreateGame(ctx, admin, &models.Game{Title: "Hades", Price: dec("300"), ReferencePrice: decPtr("1200")})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	created.Price = dec("250")
	_, err = svc.UpdateGame(ctx, admin, created)
	require.NoError(t, err)
	assert.True(t, dec("250").Equal(repo.games[created.ID].Price))

	_, err = svc.UpdateGame(ctx, admin, &models.Game{ID: 999, Price: dec("1")})
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, svc.DeleteGame(ctx, admin, created.ID))
	assert.ErrorIs(t, svc.DeleteGame(ctx, admin, created.ID), service.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteGame(ctx, nil, created.ID), service.ErrUnauthenticated)
}
