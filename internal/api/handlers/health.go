package handlers

import (
	"net/http"
	"time"

	"github.com/finglow/finglow/internal/api/middleware"
)

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
