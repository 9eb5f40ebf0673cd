package core

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse is the envelope of every successful JSON response.
type SuccessResponse struct {
	Data interface{}       `json:"data"`
	Meta map[string]string `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every failed JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// RespondSuccess writes data with status 200 unless a status was already set.
func RespondSuccess(w http.ResponseWriter, data interface{}) {
	Respond(w, http.StatusOK, SuccessResponse{Data: data})
}

func RespondCreated(w http.ResponseWriter, data interface{}) {
	Respond(w, http.StatusCreated, SuccessResponse{Data: data})
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorCode(w, status, "", message)
}

// RespondErrorCode adds a machine readable code next to the message.
func RespondErrorCode(w http.ResponseWriter, status int, code, message string) {
	Respond(w, status, ErrorResponse{Error: ErrorBody{Status: status, Message: message, Code: code}})
}
