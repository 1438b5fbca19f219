package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
)

// Request bodies are small idea descriptions and chat turns.
const maxBodyBytes = 256 << 10

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var input analysis.IdeaInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), input)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyIdea) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithContext(r.Context()).WithError(err).Error("analysis failed")
		writeError(w, r, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := s.analyzer.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "report not found")
			return
		}
		s.logger.WithContext(r.Context()).WithError(err).Error("report lookup failed")
		writeError(w, r, http.StatusInternalServerError, "report lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := s.analyzer.Recent(r.Context(), limit)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("recent reports lookup failed")
		writeError(w, r, http.StatusInternalServerError, "recent reports lookup failed")
		return
	}
	if reports == nil {
		reports = []*analysis.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	var input analysis.IdeaInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.analyzer.Prefetch(r.Context(), input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	name := r.PathValue("name")
	result, err := s.functions.Function(r.Context(), name, payload)
	if err != nil {
		switch {
		case errors.Is(err, sources.ErrUnknownFunction):
			writeError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, sources.ErrBadPayload), errors.Is(err, sources.ErrNoKeywords):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			s.logger.WithContext(r.Context()).WithSource(name).WithError(err).Error("function invocation failed")
			writeError(w, r, http.StatusBadGateway, "function invocation failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []sources.ChatMessage `json:"messages"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, r, http.StatusBadRequest, "messages is required")
		return
	}

	reply, err := s.analyzer.Chat(r.Context(), body.Messages)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("chat failed")
		writeError(w, r, http.StatusBadGateway, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("request body must be valid JSON")
	}
	return nil
}
