package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/visualize"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	focus := -1
	if v := r.URL.Query().Get("focus"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			focus = n
		}
	}
	view, err := s.buildPage(s.ctrl.Snapshot(), focus)
	if err != nil {
		s.logger.Error("build page failed", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) handleSampleXML(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if !strings.HasSuffix(file, ".xml") {
		s.respondError(w, http.StatusNotFound, "sample not found")
		return
	}
	sample, err := s.library.Get(r.Context(), file)
	if errors.Is(err, samples.ErrUnknownSample) {
		s.respondError(w, http.StatusNotFound, "sample not found")
		return
	}
	if err != nil {
		s.logger.Error("read sample failed", zap.String("file", file), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sample.XML))
}

func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.logger.Debug("load sample request", zap.String("sample", name))
	if _, err := s.ctrl.LoadSample(r.Context(), name); err != nil {
		s.logger.Warn("load sample failed", zap.String("sample", name), zap.Error(err))
	}
	s.redirectHome(w, r)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	req := models.SubmitRequest{
		Elements:  r.PostForm.Get("elements"),
		Threshold: parseThreshold(r.PostForm.Get("threshold")),
	}
	s.logger.Debug("submit request", zap.String("elements", req.Elements), zap.Float64("threshold", req.Threshold))
	s.ctrl.Submit(r.Context(), req)
	s.redirectHome(w, r)
}

// parseThreshold returns NaN for anything that is not a number so validation rejects it.
func parseThreshold(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if r.PostForm.Get("wait") != "" {
		s.ctrl.AwaitResults(r.Context(), s.pollOptions())
	} else {
		s.ctrl.FetchResults(r.Context())
	}
	s.redirectHome(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	ctx := r.Context()
	runs, err := s.storage.ListRuns(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountRuns(ctx)
	if err != nil {
		s.logger.Error("count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

type visualizationResponse struct {
	Status  models.Status      `json:"status"`
	Layout  *visualize.Layout  `json:"layout"`
	Details []visualize.Detail `json:"details"`
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	resp := visualizationResponse{Status: snap.ResultsStatus, Details: []visualize.Detail{}}
	if v := snap.Visualization; v != nil {
		layout := v.Layout
		resp.Layout = &layout
		for i := range v.Groups() {
			d, _ := v.Detail(i)
			resp.Details = append(resp.Details, d)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
