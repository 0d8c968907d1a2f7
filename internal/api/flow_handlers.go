package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/flow"
	"github.com/shvbsle/survey-sensei/internal/models"
)

// flowRequest is the common request body for flow-scoped survey operations.
type flowRequest struct {
	FlowID         string            `json:"flow_id"`
	Selection      flow.RawSelection `json:"selection"`
	QuestionNumber int               `json:"question_number"`
	OptionIndex    *int              `json:"option_index"`
}

// decodeJSON decodes a JSON request body into dst, writing a 400 response on
// malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Warn("Server.decodeJSON: failed to decode request body", "path", r.URL.Path, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return false
	}
	return true
}

// requirePost gates a handler to POST, answering with Allow on anything else.
func requirePost(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn(op+": method not allowed", "method", r.Method)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return false
	}
	return true
}

// lookupFlow resolves a flow ID to its controller, writing the error response
// when the ID is blank or unknown.
func (s *Server) lookupFlow(w http.ResponseWriter, flowID, op string) (*flow.Controller, bool) {
	if strings.TrimSpace(flowID) == "" {
		slog.Warn(op + ": missing flow_id")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("flow_id is required"))
		return nil, false
	}
	c, err := s.registry.Get(flowID)
	if err != nil {
		slog.Warn(op+": flow not found", "flowID", flowID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found: "+flowID))
		return nil, false
	}
	return c, true
}

// createFlowHandler creates a fresh flow controller (POST /api/flows).
func (s *Server) createFlowHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.createFlowHandler: processing create request", "method", r.Method, "path", r.URL.Path)
	if !requirePost(w, r, "Server.createFlowHandler") {
		return
	}

	c := s.registry.Create()
	snap := c.Snapshot()

	slog.Info("Server.createFlowHandler: flow created", "flowID", c.ID())
	writeJSONResponse(w, http.StatusCreated, models.Success(map[string]interface{}{
		"flow_id": c.ID(),
		"layout":  snap.Panes,
	}))
}

// flowsHandler routes flow-scoped subresources (/api/flows/{id}/...).
func (s *Server) flowsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.flowsHandler: routing flow request", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/api/flows")

	// Remove leading slash if present
	path = strings.TrimPrefix(path, "/")

	// Split path into segments
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown flow endpoint"))
		return
	}

	flowID := segments[0]

	if len(segments) == 1 {
		// /api/flows/{id}
		switch r.Method {
		case http.MethodGet:
			s.getFlowHandler(w, r, flowID)
		case http.MethodDelete:
			s.deleteFlowHandler(w, r, flowID)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	if len(segments) == 2 && segments[1] == "intake" {
		// /api/flows/{id}/intake
		s.intakeHandler(w, r, flowID)
		return
	}

	if segments[1] == "panes" {
		if len(segments) == 2 {
			// /api/flows/{id}/panes
			switch r.Method {
			case http.MethodGet:
				s.getPanesHandler(w, r, flowID)
			default:
				w.Header().Set("Allow", http.MethodGet)
				writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
			}
			return
		}
		if len(segments) == 3 && segments[2] == "expand" {
			// /api/flows/{id}/panes/expand
			s.expandPaneHandler(w, r, flowID)
			return
		}
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown flow endpoint"))
}

// getFlowHandler returns the read-only snapshot (GET /api/flows/{id}).
func (s *Server) getFlowHandler(w http.ResponseWriter, r *http.Request, flowID string) {
	c, ok := s.lookupFlow(w, flowID, "Server.getFlowHandler")
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(c.Snapshot()))
}

// deleteFlowHandler discards a controller so the shopper can start over
// (DELETE /api/flows/{id}). The survey session record stays in the store.
func (s *Server) deleteFlowHandler(w http.ResponseWriter, r *http.Request, flowID string) {
	if err := s.registry.Remove(flowID); err != nil {
		slog.Warn("Server.deleteFlowHandler: flow not found", "flowID", flowID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found: "+flowID))
		return
	}

	slog.Info("Server.deleteFlowHandler: flow discarded", "flowID", flowID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow discarded", map[string]interface{}{
		"flow_id": flowID,
	}))
}

// intakeHandler submits the intake form (POST /api/flows/{id}/intake).
func (s *Server) intakeHandler(w http.ResponseWriter, r *http.Request, flowID string) {
	if !requirePost(w, r, "Server.intakeHandler") {
		return
	}

	var subject models.IntakeSubject
	if !decodeJSON(w, r, &subject) {
		return
	}

	c, ok := s.lookupFlow(w, flowID, "Server.intakeHandler")
	if !ok {
		return
	}

	snap, err := c.SubmitIntake(r.Context(), subject)
	if err != nil {
		writeFlowError(w, "Server.intakeHandler", flowID, err)
		return
	}

	slog.Info("Server.intakeHandler: intake accepted", "flowID", flowID, "shopperID", subject.ShopperID, "productID", subject.ProductID)
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// getPanesHandler returns the pane layout (GET /api/flows/{id}/panes).
func (s *Server) getPanesHandler(w http.ResponseWriter, r *http.Request, flowID string) {
	c, ok := s.lookupFlow(w, flowID, "Server.getPanesHandler")
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(c.Snapshot().Panes))
}

// expandPaneHandler expands a pane region (POST /api/flows/{id}/panes/expand).
func (s *Server) expandPaneHandler(w http.ResponseWriter, r *http.Request, flowID string) {
	if !requirePost(w, r, "Server.expandPaneHandler") {
		return
	}

	var req struct {
		Region string `json:"region"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	c, ok := s.lookupFlow(w, flowID, "Server.expandPaneHandler")
	if !ok {
		return
	}

	snap, err := c.ExpandPane(models.PaneRegion(req.Region))
	if err != nil {
		writeFlowError(w, "Server.expandPaneHandler", flowID, err)
		return
	}

	slog.Debug("Server.expandPaneHandler: pane expanded", "flowID", flowID, "region", req.Region)
	writeJSONResponse(w, http.StatusOK, models.Success(snap.Panes))
}
