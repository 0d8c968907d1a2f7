// Package api provides HTTP response utilities for survey-sensei.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shvbsle/survey-sensei/internal/catalog"
	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/flow"
	"github.com/shvbsle/survey-sensei/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal the response to JSON first to catch encoding errors before writing headers
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		// Use pre-marshaled fallback response - if this fails, we have bigger problems
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	// Write headers and response only after successful JSON marshaling
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// validationErrors are controller guard and input rejections that map to 400.
var validationErrors = []error{
	flow.ErrIntakeSubmitted,
	flow.ErrIntakeRequired,
	flow.ErrAlreadyStarted,
	flow.ErrNotInProgress,
	flow.ErrNoQuestion,
	flow.ErrNotEditing,
	flow.ErrEditingLocked,
	flow.ErrSkipWhileEditing,
	flow.ErrEditUnresolved,
	flow.ErrUnknownOption,
	flow.ErrMissingFreeText,
	flow.ErrSurveyNotCompleted,
	flow.ErrNoReviewSet,
	models.ErrEmptyAnswer,
	models.ErrFreeTextTooLong,
	models.ErrEmptyEmail,
	models.ErrEmptyShopperID,
	models.ErrEmptyProductID,
	models.ErrQuestionNumber,
	models.ErrReviewIndexRange,
	models.ErrUnknownPaneRegion,
	models.ErrRegionNotInLayout,
}

// statusForError maps a flow or catalog error to an HTTP status code.
//
// Contention and duplicate edits are conflicts; skip-limit rejections and
// guard violations are bad requests; missing flows and catalog entities are
// not found; failures of the upstream content service are bad gateways.
func statusForError(err error) int {
	var skipLimit *content.SkipLimitError
	var startErr *flow.StartError
	var stepErr *flow.StepError
	var reviewErr *flow.ReviewError

	switch {
	case errors.Is(err, flow.ErrBusy), errors.Is(err, flow.ErrDuplicateAnswer):
		return http.StatusConflict
	case errors.As(err, &skipLimit):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrFlowNotFound),
		errors.Is(err, catalog.ErrUnknownProduct),
		errors.Is(err, catalog.ErrUnknownShopper):
		return http.StatusNotFound
	}

	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest
		}
	}

	if errors.As(err, &startErr) || errors.As(err, &stepErr) || errors.As(err, &reviewErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeFlowError logs a failed flow operation and writes the mapped error
// response. Rejections log at Warn, server-side failures at Error.
func writeFlowError(w http.ResponseWriter, op, flowID string, err error) {
	statusCode := statusForError(err)
	if statusCode >= http.StatusInternalServerError {
		slog.Error(op+": operation failed", "flowID", flowID, "error", err)
	} else {
		slog.Warn(op+": operation rejected", "flowID", flowID, "status", statusCode, "error", err)
	}
	writeJSONResponse(w, statusCode, models.Error(err.Error()))
}
