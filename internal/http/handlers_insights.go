package http

import (
	"net/http"
	"strings"

	"finsight/internal/core"
	applog "finsight/internal/log"
)

type insightsResponse struct {
	Insights []core.Insight `json:"insights"`
	Count    int            `json:"count"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cached, ok := s.insightCache.Get(insightCacheKey); ok {
		writeJSON(w, http.StatusOK, insightsResponse{Insights: cached, Count: len(cached)})
		return
	}

	visible, err := s.insightSvc.List(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Insight generation failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not generate insights")
		return
	}
	if visible == nil {
		visible = []core.Insight{}
	}

	s.insightCache.Set(insightCacheKey, visible)
	writeJSON(w, http.StatusOK, insightsResponse{Insights: visible, Count: len(visible)})
}

func (s *Server) handleInsightCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The badge never fails: errors inside degrade to zero.
	count := s.insightSvc.BadgeCount(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing insight id")
		return
	}

	s.insightSvc.Dismiss(r.Context(), req.ID)
	s.invalidateInsights()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Insight dismissed", applog.FieldInsightID, req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceDismissals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ids []string
	if err := readJSON(r, &ids); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.insightSvc.ReplaceDismissals(r.Context(), ids)
	s.invalidateInsights()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetDismissals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.insightSvc.ResetDismissals(r.Context())
	s.invalidateInsights()
	w.WriteHeader(http.StatusNoContent)
}
