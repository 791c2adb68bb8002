// Package respond ghi response JSON theo envelope chung {success, message, data}
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/pkg/log"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err to its status; internal causes are logged and hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, logger log.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error(r.Context(), "%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	Fail(w, status, apperr.Message(err))
}
