package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceledger/internal/handler"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(pingerFunc(func(context.Context) error { return nil }))

	c, w := newJSONContext(http.MethodGet, "/healthz", nil)
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newJSONContext(http.MethodGet, "/readyz", nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	h := handler.NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("refused") }))

	c, w := newJSONContext(http.MethodGet, "/readyz", nil)
	h.Readiness(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database not reachable")
}
