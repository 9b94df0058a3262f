package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"declara/pkg/domainerrors"
)

// writeError translates coded errors into the JSON envelope. Validation
// errors carry the field map so clients can render per-field messages.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeInternal
	var dErr *domainerrors.Error
	if errors.As(err, &dErr) {
		code = dErr.Code
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainerrors.ToHTTPStatus(code))

	if code == domainerrors.CodeValidation {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":  string(code),
			"fields": domainerrors.FieldsOf(err),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
