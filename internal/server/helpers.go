package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"fetcharr/internal/bridge"
	"fetcharr/internal/downloads"
	"fetcharr/internal/errclass"
	"fetcharr/internal/repo"
	"fetcharr/internal/utils/logging"
)

// maxBodyBytes caps request bodies. Cookie uploads are the largest payload.
const maxBodyBytes = 4 << 20

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.E("Failed to encode JSON response: %v", err)
	}
}

// writeError classifies err and writes it as {"error": Info}.
//
// Lookups of unknown IDs answer 404 regardless of classification.
func writeError(w http.ResponseWriter, err error) {
	info := errclass.Wrap(err)
	status := statusForKind(info.Kind)
	if errors.Is(err, downloads.ErrNotFound) || errors.Is(err, repo.ErrNotFound) || errors.Is(err, bridge.ErrUnknownOperation) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"error": info})
}

// statusForKind maps an error kind onto an HTTP status code.
func statusForKind(k errclass.Kind) int {
	switch k {
	case errclass.KindInvalidURL, errclass.KindParseError, errclass.KindUnsupportedSite:
		return http.StatusBadRequest
	case errclass.KindFileNotFound, errclass.KindVideoUnavailable:
		return http.StatusNotFound
	case errclass.KindAuthRequired, errclass.KindInvalidCookies, errclass.KindAgeRestricted,
		errclass.KindMembersOnly, errclass.KindVideoPrivate, errclass.KindGeoBlocked,
		errclass.KindPermissionDenied:
		return http.StatusForbidden
	case errclass.KindRateLimited:
		return http.StatusTooManyRequests
	case errclass.KindTimeout:
		return http.StatusGatewayTimeout
	case errclass.KindDependencyMissing, errclass.KindDependencyOutdated, errclass.KindDiskFull:
		return http.StatusServiceUnavailable
	case errclass.KindNetwork, errclass.KindProxy:
		return http.StatusBadGateway
	case errclass.KindFormatUnavailable:
		return http.StatusUnprocessableEntity
	case errclass.KindCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// readBody reads a capped request body.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errclass.New(errclass.KindParseError, fmt.Sprintf("could not read request body: %v", err))
	}
	if len(body) > maxBodyBytes {
		return nil, errclass.New(errclass.KindParseError, "request body too large")
	}
	return body, nil
}

// decodeBody unmarshals a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errclass.New(errclass.KindParseError, "request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return errclass.New(errclass.KindParseError, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
		}
		return errclass.New(errclass.KindParseError, fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

// queryInt reads a non-negative integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errclass.New(errclass.KindParseError, fmt.Sprintf("query parameter %q must be a non-negative integer, got %q", name, raw))
	}
	return n, nil
}
