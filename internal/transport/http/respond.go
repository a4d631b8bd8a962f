package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "pairhub/pkg/domain-errors"
	"pairhub/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeError translates domain errors into JSON envelopes. Sentinel not-found
// errors that were never wrapped with a code map to 404.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		if errors.Is(err, sentinel.ErrNotFound) {
			domainErr = dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
		} else {
			domainErr = dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
		}
	}
	writeJSON(w, dErrors.ToHTTPStatus(domainErr.Code), errorResponse{
		Error:            string(domainErr.Code),
		ErrorDescription: domainErr.Message,
	})
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
