package api

import (
	"log/slog"
	"net/http"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// generateReviewsHandler drafts the first candidate set for a completed
// survey (POST /api/reviews/generate).
func (s *Server) generateReviewsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.generateReviewsHandler: processing generate request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.generateReviewsHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.generateReviewsHandler")
	if !ok {
		return
	}

	snap, err := c.Reviews().Generate(r.Context())
	if err != nil {
		writeFlowError(w, "Server.generateReviewsHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.generateReviewsHandler: candidates generated", "flowID", req.FlowID, "candidates", len(snap.Reviews.Options), "band", snap.Reviews.SentimentBand)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// regenerateReviewsHandler discards the candidate set for a fresh one
// (POST /api/reviews/regenerate).
func (s *Server) regenerateReviewsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.regenerateReviewsHandler: processing regenerate request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.regenerateReviewsHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.regenerateReviewsHandler")
	if !ok {
		return
	}

	snap, err := c.Reviews().Regenerate(r.Context())
	if err != nil {
		writeFlowError(w, "Server.regenerateReviewsHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.regenerateReviewsHandler: candidates regenerated", "flowID", req.FlowID, "candidates", len(snap.Reviews.Options))
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// selectReviewHandler marks a candidate as the shopper's choice
// (POST /api/reviews/select).
func (s *Server) selectReviewHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.selectReviewHandler: processing select request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.selectReviewHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		slog.Warn("Server.selectReviewHandler: missing option_index", "flowID", req.FlowID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("option_index is required"))
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.selectReviewHandler")
	if !ok {
		return
	}

	snap, err := c.Reviews().Select(*req.OptionIndex)
	if err != nil {
		writeFlowError(w, "Server.selectReviewHandler", req.FlowID, err)
		return
	}

	slog.Debug("Server.selectReviewHandler: candidate selected", "flowID", req.FlowID, "optionIndex", *req.OptionIndex)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// submitReviewHandler publishes the chosen candidate and completes the flow
// (POST /api/survey/review).
func (s *Server) submitReviewHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.submitReviewHandler: processing submit request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.submitReviewHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		slog.Warn("Server.submitReviewHandler: missing option_index", "flowID", req.FlowID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("option_index is required"))
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.submitReviewHandler")
	if !ok {
		return
	}

	snap, err := c.Reviews().Submit(r.Context(), *req.OptionIndex)
	if err != nil {
		writeFlowError(w, "Server.submitReviewHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.submitReviewHandler: review submitted", "flowID", req.FlowID, "optionIndex", *req.OptionIndex, "status", snap.Status)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Review submitted", snap))
}
