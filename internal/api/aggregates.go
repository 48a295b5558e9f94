package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/pipeline"
	"sensuapi/internal/store"
	"sensuapi/pkg/models"
)

// issuedRuns returns the aggregation runs of check, newest first.
func (s *Server) issuedRuns(ctx context.Context, check string) ([]int64, error) {
	members, err := s.store.SMembers(ctx, store.AggregateIndexKey(check))
	if err != nil {
		return nil, fmt.Errorf("list aggregates of %s: %w", check, err)
	}
	issued := make([]int64, len(members))
	for i, m := range members {
		issued[i] = int64(atoi(m))
	}
	slices.SortFunc(issued, func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return issued, nil
}

func (s *Server) listAggregates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks, err := s.store.SMembers(ctx, store.AggregatesKey)
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Strings(checks)

	items, err := pipeline.Gather(ctx, checks, func(ctx context.Context, check string) (models.AggregateIssued, bool, error) {
		issued, err := s.issuedRuns(ctx, check)
		if err != nil {
			return models.AggregateIssued{}, false, err
		}
		return models.AggregateIssued{Check: check, Issued: issued}, true, nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// getAggregate lists the runs of one check. age keeps only runs at least
// that many seconds old.
func (s *Server) getAggregate(w http.ResponseWriter, r *http.Request) {
	issued, err := s.issuedRuns(r.Context(), chi.URLParam(r, "check"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if len(issued) == 0 {
		notFound(w)
		return
	}

	if age := integerParam(r, "age"); age != nil {
		cutoff := s.now().Unix() - int64(*age)
		issued = slices.DeleteFunc(issued, func(t int64) bool { return t > cutoff })
	}
	writeJSON(w, paginate(w, r, issued))
}

func (s *Server) deleteAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	check := chi.URLParam(r, "check")
	members, err := s.store.SMembers(ctx, store.AggregateIndexKey(check))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if len(members) == 0 {
		notFound(w)
		return
	}

	keys := make([]string, 0, 2*len(members)+1)
	for _, issued := range members {
		keys = append(keys, store.AggregationKey(check, issued), store.AggregateKey(check, issued))
	}
	keys = append(keys, store.AggregateIndexKey(check))
	if err := s.store.Del(ctx, keys...); err != nil {
		internalError(w, r, err)
		return
	}
	if err := s.store.SRem(ctx, store.AggregatesKey, check); err != nil {
		internalError(w, r, err)
		return
	}
	noContent(w)
}

// getAggregateRun reports the status counts of one run. summarize=output adds
// an output histogram and a non-empty results value adds the per-client
// results.
func (s *Server) getAggregateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	check, issued := chi.URLParam(r, "check"), chi.URLParam(r, "issued")

	counts, err := s.store.HGetAll(ctx, store.AggregateKey(check, issued))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if len(counts) == 0 {
		notFound(w)
		return
	}

	response := make(map[string]any, len(counts)+2)
	for status, count := range counts {
		n, err := strconv.Atoi(count)
		if err != nil {
			internalError(w, r, fmt.Errorf("aggregate %s:%s status %s: %w", check, issued, status, err))
			return
		}
		response[status] = n
	}

	raw, err := s.store.HGetAll(ctx, store.AggregationKey(check, issued))
	if err != nil {
		internalError(w, r, err)
		return
	}
	clients := make([]string, 0, len(raw))
	for client := range raw {
		clients = append(clients, client)
	}
	sort.Strings(clients)

	results := make([]map[string]any, 0, len(raw))
	for _, client := range clients {
		result, err := jsoncodec.Object([]byte(raw[client]))
		if err != nil {
			internalError(w, r, fmt.Errorf("aggregation %s:%s client %s: %w", check, issued, client, err))
			return
		}
		result["client"] = client
		results = append(results, result)
	}

	query := r.URL.Query()
	if slices.Contains(strings.Split(query.Get("summarize"), ","), "output") {
		outputs := make(map[string]int)
		for _, result := range results {
			output, _ := result["output"].(string)
			outputs[output]++
		}
		response["outputs"] = outputs
	}
	if query.Get("results") != "" {
		response["results"] = results
	}
	writeJSON(w, response)
}
