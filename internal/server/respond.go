package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithServiceError maps service errors to status codes. fallback is
// the message for unexpected failures; their detail is never sent.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *service.ValidationError
	var ferr *repository.FilterError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.As(err, &ferr):
		respondWithError(w, http.StatusBadRequest, ferr.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrCategoryInUse):
		respondWithError(w, http.StatusConflict, "Cannot delete category that is used by todos")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrUnauthenticated):
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
	default:
		log.Printf("Unexpected error: %v", err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown
// fields. On failure it has already written the response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &syntaxError) {
			msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
			respondWithError(w, http.StatusBadRequest, msg)
		} else if errors.Is(err, io.ErrUnexpectedEOF) {
			msg := "Request body contains badly-formed JSON"
			respondWithError(w, http.StatusBadRequest, msg)
		} else if errors.As(err, &unmarshalTypeError) {
			msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
			respondWithError(w, http.StatusBadRequest, msg)
		} else if strings.HasPrefix(err.Error(), "json: unknown field ") {
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			msg := fmt.Sprintf("Request body contains unknown field %s", fieldName)
			respondWithError(w, http.StatusBadRequest, msg)
		} else if errors.Is(err, io.EOF) {
			msg := "Request body must not be empty"
			respondWithError(w, http.StatusBadRequest, msg)
		} else if errors.As(err, &maxBytesError) {
			msg := fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit)
			respondWithError(w, http.StatusRequestEntityTooLarge, msg)
		} else {
			log.Printf("Error decoding request body: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Error processing request")
		}
		return false
	}
	if decoder.More() {
		respondWithError(w, http.StatusBadRequest, "Request body must only contain a single JSON object")
		return false
	}
	return true
}

// idParam parses the {id} URL parameter. Zero and non-numeric ids are
// reported as not ok.
func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
