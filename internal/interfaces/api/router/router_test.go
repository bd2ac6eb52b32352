package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"duesreminder/internal/application/service"
	"duesreminder/internal/domain/entity"
	"duesreminder/internal/infrastructure/database/memory"
	"duesreminder/internal/interfaces/api/handler"
	"duesreminder/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardMessenger struct{}

func (discardMessenger) SendMessage(ctx context.Context, recipientID, text string) error { return nil }

func newTestRouter(t *testing.T) (*memory.Store, http.Handler) {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	commands := handler.NewCommandHandler("1000", nil, service.Messages{Community: "Ride Marches"}, log)
	e := NewRouter(&Config{
		TelegramHandler: handler.NewTelegramHandler(commands, discardMessenger{}, "s3cret", log),
		HealthHandler:   handler.NewHealthHandler(store, log),
		Logger:          log,
	})
	return store, e
}

func TestRouter_Health(t *testing.T) {
	store, e := newTestRouter(t)
	m := entity.NewMembership("123", []string{"-1001"}, entity.NewDate(2024, time.January, 1), 7)
	require.NoError(t, store.Save(context.Background(), entity.Snapshot{"123": m}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","members":1}`, rec.Body.String())
}

func TestRouter_HealthListsInvalidRecords(t *testing.T) {
	store, e := newTestRouter(t)
	bad := entity.NewMembership("123", []string{"-1001"}, entity.NewDate(2024, time.January, 1), 7)
	bad.Status = "banana"
	require.NoError(t, store.Save(context.Background(), entity.Snapshot{"123": bad}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","members":1,"invalid":["123"]}`, rec.Body.String())
}

func TestRouter_WebhookRequiresSecret(t *testing.T) {
	_, e := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.SecretTokenHeader, "s3cret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_WebhookIsPostOnly(t *testing.T) {
	_, e := newTestRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, WebhookPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
