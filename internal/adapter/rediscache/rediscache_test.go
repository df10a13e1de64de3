package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"healthdash/internal/app"
	"healthdash/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDashboard() *app.Dashboard {
	day := time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC)
	return &app.Dashboard{
		Days:  7,
		Unit:  "kg",
		Today: "2026-02-10",
		Steps: app.Panel{
			Kind:            domain.MetricSteps,
			Title:           "Steps",
			Samples:         []domain.Sample{{Date: day, Value: 3000}},
			Average:         3000,
			WeekdayAverages: []domain.WeekdayBucket{{Date: day, Value: 3000}},
		},
	}
}

func TestCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	mock.ExpectHGet(keyPrefix+"1", "2026-02-10:7:kg").SetErr(redis.Nil)

	d, ok, err := c.Get(context.Background(), 1, "2026-02-10:7:kg")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, d)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	raw, err := json.Marshal(testDashboard())
	require.NoError(t, err)
	mock.ExpectHGet(keyPrefix+"1", "k").SetVal(string(raw))

	d, ok, err := c.Get(context.Background(), 1, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, d.Days)
	assert.Equal(t, "Steps", d.Steps.Title)
	assert.Equal(t, testDashboard().Steps.WeekdayAverages, d.Steps.WeekdayAverages)
}

func TestCache_GetErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	mock.ExpectHGet(keyPrefix+"1", "k").SetErr(errors.New("connection refused"))
	_, _, err := c.Get(context.Background(), 1, "k")
	assert.Error(t, err)

	mock.ExpectHGet(keyPrefix+"1", "k").SetVal("{not json")
	_, ok, err := c.Get(context.Background(), 1, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, 10*time.Minute)

	raw, err := json.Marshal(testDashboard())
	require.NoError(t, err)
	mock.ExpectHSet(keyPrefix+"2", "k", string(raw)).SetVal(1)
	mock.ExpectExpire(keyPrefix+"2", 10*time.Minute).SetVal(true)

	require.NoError(t, c.Set(context.Background(), 2, "k", testDashboard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_SetWithoutTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, 0)

	raw, err := json.Marshal(testDashboard())
	require.NoError(t, err)
	mock.ExpectHSet(keyPrefix+"2", "k", string(raw)).SetVal(1)

	require.NoError(t, c.Set(context.Background(), 2, "k", testDashboard()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	mock.ExpectIncr(genPrefix + "3").SetVal(1)
	mock.ExpectDel(keyPrefix + "3").SetVal(1)
	require.NoError(t, c.Invalidate(context.Background(), 3))

	mock.ExpectIncr(genPrefix + "3").SetVal(2)
	mock.ExpectDel(keyPrefix + "3").SetErr(errors.New("readonly"))
	assert.Error(t, c.Invalidate(context.Background(), 3))

	mock.ExpectIncr(genPrefix + "3").SetErr(errors.New("readonly"))
	assert.Error(t, c.Invalidate(context.Background(), 3))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Generation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet(genPrefix + "4").SetErr(redis.Nil)
	gen, err := c.Generation(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	mock.ExpectGet(genPrefix + "4").SetVal("7")
	gen, err = c.Generation(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), gen)

	mock.ExpectGet(genPrefix + "4").SetErr(errors.New("connection refused"))
	_, err = c.Generation(ctx, 4)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
