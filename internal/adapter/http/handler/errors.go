package handler

import (
	"net/http"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	// Fall back to an empty 500 if the envelope itself cannot be written.
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// transitionErrorResponse renders a domain error, attaching the ride's
// conflicting current status on state-machine rejections so the client can
// decide whether to retry or refresh.
func transitionErrorResponse(w http.ResponseWriter, err error) {
	if current, ok := types.CurrentStatus(err); ok {
		env := envelope{
			"error":          err.Error(),
			"current_status": current,
		}
		if werr := writeJSON(w, http.StatusConflict, env, nil); werr != nil {
			w.WriteHeader(500)
		}
		return
	}

	errorResponse(w, GetCode(err), err.Error())
}

// failedValidationResponse returns 422: the request was syntactically fine
// but semantically unprocessable, and retrying unchanged will fail again.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}
