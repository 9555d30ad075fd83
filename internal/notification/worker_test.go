package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labpower-backend/internal/db"
	"labpower-backend/internal/model"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func seedSubscription(t *testing.T, gormDB *gorm.DB, labID int64, labName, endpoint string) {
	t.Helper()
	lab := model.Laboratory{ID: labID, Name: labName}
	require.NoError(t, gormDB.Create(&lab).Error)
	sub := model.PushSubscription{
		Endpoint:     endpoint,
		P256DH:       "test_p256dh",
		Auth:         "test_auth",
		Laboratories: []*model.Laboratory{&lab},
	}
	require.NoError(t, gormDB.Create(&sub).Error)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestDB(t), &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		seedSubscription(t, gormDB, 1, "Laboratorio Central", "https://example.com/push")

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Equal(t, "Se liberó un horario en el laboratorio Laboratorio Central", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(1)
		wg.Wait()
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		seedSubscription(t, gormDB, 2, "Laboratorio Norte", "https://example.com/expired")

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(2)

		// The delete happens after the send returns; poll briefly.
		deadline := time.Now().Add(2 * time.Second)
		for {
			var count int64
			require.NoError(t, gormDB.Model(&model.PushSubscription{}).
				Where("endpoint = ?", "https://example.com/expired").
				Count(&count).Error)
			if count == 0 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("expired subscription was not deleted")
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("falls back to laboratory ID when name is empty", func(t *testing.T) {
		seedSubscription(t, gormDB, 3, "", "https://example.com/fallback")

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "Se liberó un horario en el laboratorio 3", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(3)
		wg.Wait()
	})
}
