package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// requireGet gates a handler to GET, answering with Allow on anything else.
func requireGet(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn(op+": method not allowed", "method", r.Method)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return false
	}
	return true
}

// listProductsHandler returns every catalog product (GET /api/products).
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listProductsHandler: processing list request", "method", r.Method, "path", r.URL.Path)
	if !requireGet(w, r, "Server.listProductsHandler") {
		return
	}

	products, err := s.catalog.Products()
	if err != nil {
		slog.Error("Server.listProductsHandler: failed to list products", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch products"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"products": products,
		"count":    len(products),
	}))
}

// productsHandler returns a single catalog product (GET /api/products/{id}).
func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.productsHandler: processing product request", "method", r.Method, "path", r.URL.Path)
	if !requireGet(w, r, "Server.productsHandler") {
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/products"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown product endpoint"))
		return
	}

	product, err := s.catalog.Product(id)
	if err != nil {
		slog.Warn("Server.productsHandler: product lookup failed", "productID", id, "error", err)
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(product))
}

// shoppersHandler returns a shopper profile or their past reviews
// (GET /api/shoppers/{id}, GET /api/shoppers/{id}/reviews).
func (s *Server) shoppersHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.shoppersHandler: processing shopper request", "method", r.Method, "path", r.URL.Path)
	if !requireGet(w, r, "Server.shoppersHandler") {
		return
	}

	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/shoppers"), "/")
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown shopper endpoint"))
		return
	}
	shopperID := segments[0]

	if len(segments) == 1 {
		shopper, err := s.catalog.Shopper(shopperID)
		if err != nil {
			slog.Warn("Server.shoppersHandler: shopper lookup failed", "shopperID", shopperID, "error", err)
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(shopper))
		return
	}

	if len(segments) == 2 && segments[1] == "reviews" {
		reviews, err := s.catalog.PastReviews(shopperID)
		if err != nil {
			slog.Warn("Server.shoppersHandler: review lookup failed", "shopperID", shopperID, "error", err)
			writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
			"reviews": reviews,
			"count":   len(reviews),
		}))
		return
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown shopper endpoint"))
}

// sessionsHandler returns the questions a survey session has asked so far
// (GET /api/sessions/{id}/questions).
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionsHandler: processing session request", "method", r.Method, "path", r.URL.Path)
	if !requireGet(w, r, "Server.sessionsHandler") {
		return
	}

	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/sessions"), "/")
	segments := strings.Split(path, "/")

	if len(segments) != 2 || segments[0] == "" || segments[1] != "questions" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
		return
	}
	sessionID := segments[0]

	sess, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("Server.sessionsHandler: failed to load session", "sessionID", sessionID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch session"))
		return
	}
	if sess == nil {
		slog.Warn("Server.sessionsHandler: session not found", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found: "+sessionID))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id": sess.ID,
		"status":     sess.Status,
		"questions":  sess.Questions,
		"count":      len(sess.Questions),
	}))
}
