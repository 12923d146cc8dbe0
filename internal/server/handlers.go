package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/pkg/utils"
)

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cleaned := s.cleaner.Clean(req.Utterance)
	if cleaned == "" {
		s.respondError(w, http.StatusBadRequest, "utterance is empty after cleaning")
		return
	}
	s.logger.Debug("predict request", zap.String("utterance", utils.Truncate(cleaned, 60)))

	feats := s.extractor.Extract(cleaned)
	pred, err := s.model.ApplyEvent(models.Event{Tokens: feats}, s.smoothing)
	if err != nil {
		s.logger.Error("prediction failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scores := make(map[string]float64, len(pred.Scores))
	for i, label := range s.model.Labels {
		scores[label] = pred.Scores[i]
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"label":    pred.Label,
		"scores":   scores,
		"features": feats,
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":         s.model.ID,
		"labels":     s.model.Labels,
		"dimensions": s.model.Dim(),
		"vocabulary": s.model.Vocab.Size(),
		"options":    s.model.Options,
		"hyper":      s.model.Hyper,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := models.SearchQuery{
		Query:  r.URL.Query().Get("q"),
		Corpus: r.URL.Query().Get("corpus"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = n
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.corpus.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.corpus.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
