package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pinmark/pinmark/internal/domain"
)

// maxJSONBodySize caps request bodies for JSON endpoints. Photo uploads use
// multipart and have their own limit.
const maxJSONBodySize = 1 << 20 // 1 MB

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// DecodeJSON reads a JSON request body into dst, rejecting unknown fields,
// oversized bodies, and trailing garbage with a domain.EINVALID error.
func DecodeJSON(r *http.Request, dst interface{}) error {
	const op = "handler.DecodeJSON"

	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return domain.Invalid(op, fmt.Sprintf("Malformed JSON at offset %d", syntaxErr.Offset))
		case errors.As(err, &typeErr):
			return domain.Invalid(op, fmt.Sprintf("Invalid value for field %q", typeErr.Field))
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return domain.Invalid(op, fmt.Sprintf("Unknown field %s", field))
		default:
			return domain.Invalid(op, "Invalid request body")
		}
	}

	if dec.More() {
		return domain.Invalid(op, "Request body must contain a single JSON object")
	}
	return nil
}
