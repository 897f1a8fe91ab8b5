package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"scouthub/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var validation *domain.ValidationError
	var notFound *domain.NotFoundError
	var gate *domain.GateError
	var exec *domain.ExecError
	var service *domain.ServiceError
	var unavailable *domain.UnavailableError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &gate):
		return http.StatusUnprocessableEntity
	case errors.As(err, &exec):
		return http.StatusInternalServerError
	case errors.As(err, &service):
		return http.StatusServiceUnavailable
	case errors.As(err, &unavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// askErrorResponse carries enough context to reproduce a failed question.
type askErrorResponse struct {
	Error  string `json:"error"`
	Query  string `json:"query"`
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func askError(err error) askErrorResponse {
	resp := askErrorResponse{Error: err.Error()}
	var gate *domain.GateError
	var exec *domain.ExecError
	switch {
	case errors.As(err, &gate):
		resp.Query = gate.Candidate
		resp.Stage = string(gate.Stage)
		resp.Reason = gate.Reason
	case errors.As(err, &exec):
		resp.Query = exec.Query
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatusFromDomainError(err), errorResponse{Error: err.Error()})
}
