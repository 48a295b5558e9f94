package api

import (
	"net/http"
	"regexp"
	"strconv"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/logger"
	"sensuapi/internal/pipeline"
)

// PaginationHeader carries the window applied to a listing as JSON.
const PaginationHeader = "X-Pagination"

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// integerParam parses an optional non-negative integer query parameter.
// Anything else, including values that overflow, is treated as absent.
func integerParam(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if !digitsRe.MatchString(raw) {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// paginate applies limit and offset from the query and sets the pagination
// header when a limit was given.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) []T {
	offset := 0
	if o := integerParam(r, "offset"); o != nil {
		offset = *o
	}
	out, page := pipeline.Paginate(items, integerParam(r, "limit"), offset)
	if page != nil {
		header, err := jsoncodec.Marshal(page)
		if err != nil {
			logger.Warnf("Failed to encode pagination header: %v", err)
		} else {
			w.Header().Set(PaginationHeader, string(header))
		}
	}
	return out
}
