package http

import (
	"net/http"
	"strings"

	"finsight/internal/core"
	applog "finsight/internal/log"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.Settings(r.Context())
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Load settings failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not load settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings core.Settings
		if err := readJSON(r, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(settings.CurrencySymbol) == "" {
			settings.CurrencySymbol = core.DefaultSettings().CurrencySymbol
		}

		if err := s.settings.SaveSettings(r.Context(), settings); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Save settings failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not save settings")
			return
		}
		s.invalidateInsights()
		writeJSON(w, http.StatusOK, settings)

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
