package handler

import (
	"errors"
	"fmt"
	"net/http"

	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the membership store can be read.
type HealthHandler struct {
	store repository.MembershipStore
	log   logger.Logger
}

func NewHealthHandler(store repository.MembershipStore, log logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

type healthResponse struct {
	Status  string   `json:"status"`
	Members int      `json:"members"`
	Invalid []string `json:"invalid,omitempty"`
}

// HandleHealth answers 503 while the store is unreadable. Records that can
// never be scheduled are listed under a "degraded" status.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	snapshot, err := h.store.Load(c.Request().Context())
	if errors.Is(err, appErrors.ErrInvalidRecord) {
		h.log.Warn(fmt.Sprintf("Health check: invalid records %v", snapshot.Invalid()))
		return c.JSON(http.StatusOK, healthResponse{Status: "degraded", Members: len(snapshot), Invalid: snapshot.Invalid()})
	}
	if err != nil {
		h.log.Error("Health check failed", err)
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "store unavailable"})
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Members: len(snapshot)})
}
