// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/pdiddy/unimatch/internal/catalog"
	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

// retryAfterSeconds is returned to clients while the cache is warming.
const retryAfterSeconds = 60

const maxRequestBody = 1 << 20

type recommendationsResponse struct {
	Recommendations  []types.RecommendationResult `json:"recommendations"`
	SearchDurationMS int64                        `json:"search_duration_ms"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// Health always responds, whatever state the cache is in.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.reporter.Status()
	code := http.StatusOK
	if status.Status == types.StatusError {
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(w, r, code, status)
}

// Recommendations matches the submitted preferences against the ready
// catalog index.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.notReady(w, r)
	if !ok {
		return
	}

	var q types.Query
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "could not read request body",
		})
		return
	}
	if err := json.Unmarshal(body, &q); err != nil {
		h.respondError(w, r, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "request body is not valid JSON",
		})
		return
	}
	if err := h.validate.Struct(&q); err != nil {
		h.respondError(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: "preferences failed validation",
			Details: validationDetails(err),
		})
		return
	}

	start := time.Now()

	// Overfetch so post-filtering still has enough candidates to fill
	// the page.
	candidates, err := h.matcher.Search(r.Context(), ix, q, h.topK*2)
	if err != nil {
		h.log.Error().Err(err).Msg("search failed")
		h.respondError(w, r, http.StatusInternalServerError, errorResponse{
			Error:   "search_failed",
			Message: "could not match preferences against the catalog",
		})
		return
	}

	results := h.composer.Compose(r.Context(), ix, candidates, q, h.topK)
	elapsed := time.Since(start)
	h.metrics.SearchSeconds.Observe(elapsed.Seconds())

	h.respondJSON(w, r, http.StatusOK, recommendationsResponse{
		Recommendations:  results,
		SearchDurationMS: elapsed.Milliseconds(),
	})
}

// Options serves the distinct filter values derived from the ready
// catalog.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	ix, ok := h.notReady(w, r)
	if !ok {
		return
	}
	opts := catalog.DeriveOptions(ix.Records())
	h.respondJSON(w, r, http.StatusOK, opts)
}

// notReady re-validates cache readiness per request and writes the 503
// envelope when the index is unavailable. Returns the index and true
// when the request may proceed.
func (h *Handler) notReady(w http.ResponseWriter, r *http.Request) (*index.EmbeddingIndex, bool) {
	idx, ready := h.source.IndexIfReady()
	if !ready || idx == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, errorResponse{
			Error:      "cache_not_ready",
			Message:    "the recommendation cache is still being prepared, please retry shortly",
			Retryable:  true,
			RetryAfter: retryAfterSeconds,
		})
		return nil, false
	}
	return idx, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("encoding response failed")
		w.WriteHeader(http.StatusInternalServerError)
		h.observe(r, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		h.log.Debug().Err(err).Msg("writing response failed")
	}
	h.observe(r, code)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, code int, body errorResponse) {
	h.respondJSON(w, r, code, body)
}

func (h *Handler) observe(r *http.Request, code int) {
	h.metrics.Requests.WithLabelValues(r.URL.Path, strconv.Itoa(code)).Inc()
}

func validationDetails(err error) any {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
