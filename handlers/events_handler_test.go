package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/subscribe"
)

func TestSubscribeRejectsMissingToken(t *testing.T) {
	h := NewEventsHandler(subscribe.NewBroker())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/ws?collections=messages", nil)
	rec := httptest.NewRecorder()

	h.Subscribe(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Header().Get("Upgrade") != "" {
		t.Error("connection should not be upgraded without a token")
	}
}

func TestRespondWithServiceErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: hours must be positive", apperr.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: user", apperr.ErrNotFound), http.StatusNotFound},
		{"auth", fmt.Errorf("%w: only the author can delete a post", apperr.ErrAuth), http.StatusForbidden},
		{"storage", fmt.Errorf("%w: query failed", apperr.ErrStorage), http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, c.err)
			if rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}
}
