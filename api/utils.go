package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ukane-philemon/srms/internal/db"
)

type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// sendError maps store and parser errors to HTTP status codes. User facing
// sentinel errors keep their message; anything else is a server error that is
// logged and masked.
func sendError(res http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, db.ErrorInvalidRequest), errors.Is(err, db.ErrorBadFile), errors.Is(err, db.ErrorBadSchema):
		statusCode = http.StatusBadRequest
	case errors.Is(err, db.ErrorDuplicateRecord):
		statusCode = http.StatusConflict
	case errors.Is(err, db.ErrorNotFound):
		statusCode = http.StatusNotFound
	default:
		log.Printf("SERVER ERROR: %v", err.Error())
		sendJSON(res, http.StatusInternalServerError, &errorResponse{Message: "something unexpected happened, please try again later"})
		return
	}

	sendJSON(res, statusCode, &errorResponse{Message: err.Error()})
}

// sendJSON writes v to res as a JSON body with the provided status code.
func sendJSON(res http.ResponseWriter, statusCode int, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	err := json.NewEncoder(res).Encode(v)
	if err != nil {
		log.Printf("SERVER ERROR: json.Encoder.Encode error: %v", err)
	}
}
