package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"conti/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// PageParams holds the paging query parameters. Zero values let the ledger
// apply its defaults.
type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams reads page and page_size. Malformed numbers are a
// validation error rather than silently ignored.
func ParsePageParams(query url.Values) (PageParams, error) {
	var params PageParams
	var err error
	if params.Page, err = optionalInt(query, "page"); err != nil {
		return PageParams{}, err
	}
	if params.PageSize, err = optionalInt(query, "page_size"); err != nil {
		return PageParams{}, err
	}
	return params, nil
}

func optionalInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalidf("%s must be an integer", key)
	}
	return n, nil
}

// PathID parses the named chi URL parameter as a positive row ID. A malformed
// ID cannot match any row, so it reports not found.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// DecodeJSON reads one JSON object into dst. Unknown fields and trailing data
// are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.Invalidf("empty request body")
		}
		// Money and Date report their own validation errors.
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		return core.Invalidf("malformed request body: %v", err)
	}
	if dec.More() {
		return core.Invalidf("malformed request body: trailing data")
	}
	return nil
}
