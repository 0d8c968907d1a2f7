package api

import (
	"log/slog"
	"net/http"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// startHandler opens the survey for a flow (POST /api/survey/start).
func (s *Server) startHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.startHandler: processing start request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.startHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.startHandler")
	if !ok {
		return
	}

	snap, err := c.Start(r.Context())
	if err != nil {
		writeFlowError(w, "Server.startHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.startHandler: survey started", "flowID", req.FlowID, "sessionID", snap.SessionID, "totalQuestions", snap.TotalQuestions)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// answerHandler submits the selection for the displayed question
// (POST /api/survey/answer).
func (s *Server) answerHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.answerHandler: processing answer request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.answerHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.answerHandler")
	if !ok {
		return
	}

	snap, err := c.SubmitAnswer(r.Context(), req.Selection)
	if err != nil {
		writeFlowError(w, "Server.answerHandler", req.FlowID, err)
		return
	}

	slog.Debug("Server.answerHandler: answer accepted", "flowID", req.FlowID, "status", snap.Status, "questionNumber", snap.QuestionNumber)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// skipHandler skips the displayed question (POST /api/survey/skip). A skip
// that would exceed the configured limits comes back as 400 with the
// user-facing message.
func (s *Server) skipHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.skipHandler: processing skip request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.skipHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.skipHandler")
	if !ok {
		return
	}

	snap, err := c.Skip(r.Context())
	if err != nil {
		writeFlowError(w, "Server.skipHandler", req.FlowID, err)
		return
	}

	slog.Debug("Server.skipHandler: question skipped", "flowID", req.FlowID, "status", snap.Status, "questionNumber", snap.QuestionNumber)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// editLoadHandler loads a previously answered question for editing
// (POST /api/survey/edit/load).
func (s *Server) editLoadHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.editLoadHandler: processing edit load request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.editLoadHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.editLoadHandler")
	if !ok {
		return
	}

	snap, err := c.LoadForEdit(r.Context(), req.QuestionNumber)
	if err != nil {
		writeFlowError(w, "Server.editLoadHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.editLoadHandler: question loaded for edit", "flowID", req.FlowID, "questionNumber", req.QuestionNumber)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// editCancelHandler abandons an in-progress edit (POST /api/survey/edit/cancel).
func (s *Server) editCancelHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.editCancelHandler: processing edit cancel request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.editCancelHandler") {
		return
	}

	var req flowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := s.lookupFlow(w, req.FlowID, "Server.editCancelHandler")
	if !ok {
		return
	}

	snap, err := c.CancelEdit()
	if err != nil {
		writeFlowError(w, "Server.editCancelHandler", req.FlowID, err)
		return
	}

	slog.Info("Server.editCancelHandler: edit cancelled", "flowID", req.FlowID, "questionNumber", snap.QuestionNumber)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}
