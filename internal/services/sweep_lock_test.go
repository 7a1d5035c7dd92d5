package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/services"
)

func TestSweepLock_AcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := services.NewSweepLock(client)
	ctx := context.Background()

	mock.Regexp().ExpectSetNX("sweep_lock:cash-holds", `.+`, 4*time.Minute).SetVal(true)

	token, ok, err := lock.Acquire(ctx, "cash-holds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	mock.ExpectGet("sweep_lock:cash-holds").SetVal(token)
	mock.ExpectDel("sweep_lock:cash-holds").SetVal(1)

	require.NoError(t, lock.Release(ctx, "cash-holds", token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLock_AcquireHeldElsewhere(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := services.NewSweepLock(client)

	mock.Regexp().ExpectSetNX("sweep_lock:abandoned-checkouts", `.+`, 4*time.Minute).SetVal(false)

	_, ok, err := lock.Acquire(context.Background(), "abandoned-checkouts")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLock_ReleaseSkipsExpiredLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := services.NewSweepLock(client)

	// Key already expired; release must not delete anything.
	mock.ExpectGet("sweep_lock:cash-holds").RedisNil()

	require.NoError(t, lock.Release(context.Background(), "cash-holds", "stale-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLock_ReleaseRefusesForeignToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := services.NewSweepLock(client)

	// The lock was taken over after our TTL lapsed; we must not delete it.
	mock.ExpectGet("sweep_lock:cash-holds").SetVal("someone-elses-token")

	require.NoError(t, lock.Release(context.Background(), "cash-holds", "our-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
