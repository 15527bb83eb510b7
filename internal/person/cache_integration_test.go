//go:build integration

package person_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"minesykmeldte/internal/person"
	"minesykmeldte/internal/person/mocks"
	"minesykmeldte/internal/platform/redis"
	"minesykmeldte/pkg/testutil/containers"
)

func TestCachedResolver(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	client, err := redis.New(rc.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockResolver(ctrl)
	inner.EXPECT().
		Resolve(gomock.Any(), "12345678910").
		Return(&person.Person{Navn: "Test Testersen"}, nil).
		Times(1)

	cached := person.NewCachedResolver(inner, client, time.Minute, slog.Default())

	ctx := context.Background()
	first, err := cached.Resolve(ctx, "12345678910")
	require.NoError(t, err)
	require.Equal(t, "Test Testersen", first.Navn)

	// second lookup is served from the cache, the inner resolver allows one call
	second, err := cached.Resolve(ctx, "12345678910")
	require.NoError(t, err)
	require.Equal(t, "Test Testersen", second.Navn)

	// the fnr must not appear in any cache key
	keys, err := client.Keys(ctx, "person:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NotContains(t, keys[0], "12345678910")
	require.True(t, strings.HasPrefix(keys[0], "person:"))
}

func TestCachedResolverNotFoundIsNotCached(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	client, err := redis.New(rc.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockResolver(ctrl)
	inner.EXPECT().
		Resolve(gomock.Any(), "10987654321").
		Return(nil, person.ErrNotFound).
		Times(2)

	cached := person.NewCachedResolver(inner, client, time.Minute, slog.Default())

	ctx := context.Background()
	_, err = cached.Resolve(ctx, "10987654321")
	require.ErrorIs(t, err, person.ErrNotFound)

	_, err = cached.Resolve(ctx, "10987654321")
	require.ErrorIs(t, err, person.ErrNotFound)
}
