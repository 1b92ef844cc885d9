package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookingID = "6f1c2a8e-0000-4000-8000-000000000001"

func newMockCache(t *testing.T) (*RedisCache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	return newRedisCache(client, 5*time.Minute), mock
}

func TestRedisCache_StoreConfirmationCode(t *testing.T) {
	c, mock := newMockCache(t)
	ctx := context.Background()

	// новый код сбрасывает счётчик ошибок
	mock.ExpectTxPipeline()
	mock.ExpectSet("booking:"+bookingID+":code", "hash", 15*time.Minute).SetVal("OK")
	mock.ExpectDel("booking:" + bookingID + ":attempts").SetVal(1)
	mock.ExpectTxPipelineExec()

	require.NoError(t, c.StoreConfirmationCode(ctx, bookingID, "hash", 15*time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetConfirmationCode(t *testing.T) {
	c, mock := newMockCache(t)
	ctx := context.Background()

	mock.ExpectGet("booking:" + bookingID + ":code").SetVal("hash")
	hash, ok, err := c.GetConfirmationCode(ctx, bookingID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash", hash)

	mock.ExpectGet("booking:" + bookingID + ":code").RedisNil()
	_, ok, err = c.GetConfirmationCode(ctx, bookingID)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("booking:" + bookingID + ":code").SetErr(errors.New("connection reset"))
	_, _, err = c.GetConfirmationCode(ctx, bookingID)
	assert.EqualError(t, err, "connection reset")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_DeleteConfirmationCode(t *testing.T) {
	c, mock := newMockCache(t)

	mock.ExpectDel("booking:"+bookingID+":code", "booking:"+bookingID+":attempts").SetVal(2)

	require.NoError(t, c.DeleteConfirmationCode(context.Background(), bookingID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_RecordFailedAttempt(t *testing.T) {
	c, mock := newMockCache(t)
	ctx := context.Background()
	key := "booking:" + bookingID + ":attempts"

	for want := int64(1); want <= 3; want++ {
		mock.ExpectTxPipeline()
		mock.ExpectIncr(key).SetVal(want)
		mock.ExpectExpire(key, 15*time.Minute).SetVal(true)
		mock.ExpectTxPipelineExec()

		got, err := c.RecordFailedAttempt(ctx, bookingID, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_ResendCooldown(t *testing.T) {
	c, mock := newMockCache(t)
	ctx := context.Background()
	key := "booking:" + bookingID + ":resend"

	mock.ExpectSetNX(key, "1", time.Minute).SetVal(true)
	ok, err := c.AcquireResendCooldown(ctx, bookingID, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// второй запрос в том же окне
	mock.ExpectSetNX(key, "1", time.Minute).SetVal(false)
	ok, err = c.AcquireResendCooldown(ctx, bookingID, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, c.ReleaseResendCooldown(ctx, bookingID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Rooms(t *testing.T) {
	c, mock := newMockCache(t)
	ctx := context.Background()
	rooms := []domain.Room{{ID: "R1", Name: "Deluxe", Capacity: 2, PricePerNight: 100}}
	payload, err := json.Marshal(rooms)
	require.NoError(t, err)

	mock.ExpectGet("cache:rooms").RedisNil()
	got, err := c.GetRooms(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectSet("cache:rooms", payload, 5*time.Minute).SetVal("OK")
	require.NoError(t, c.SetRooms(ctx, rooms))

	mock.ExpectGet("cache:rooms").SetVal(string(payload))
	got, err = c.GetRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, rooms, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}
