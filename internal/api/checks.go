package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sensuapi/internal/logger"
	"sensuapi/internal/transport"
	"sensuapi/pkg/models"
)

func (s *Server) listChecks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.checks)
}

func (s *Server) getCheck(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "check")
	check, ok := s.checks.Lookup(name)
	if !ok {
		notFound(w)
		return
	}
	def := check.Definition()
	def["name"] = name
	writeJSON(w, def)
}

// requestCheck publishes a check request to every subscriber exchange. The
// request body may override the check's subscribers.
func (s *Server) requestCheck(w http.ResponseWriter, r *http.Request) {
	data, ok := readObject(r, rules{
		"check":       {kind: stringField},
		"subscribers": {kind: arrayField, nilOK: true},
	})
	if !ok {
		badRequest(w)
		return
	}

	name := data["check"].(string)
	check, ok := s.checks.Lookup(name)
	if !ok {
		notFound(w)
		return
	}

	var subscribers []string
	if requested, ok := data["subscribers"].([]any); ok {
		for _, v := range requested {
			if sub, ok := v.(string); ok {
				subscribers = append(subscribers, sub)
			}
		}
	} else {
		subscribers = check.Subscribers
	}
	subscribers = unique(subscribers)

	payload := models.CheckRequest{
		Name:    name,
		Command: check.Command,
		Issued:  s.now().Unix(),
	}
	logger.InfoFields("publishing check request", logger.Fields{
		"payload":     payload,
		"subscribers": subscribers,
	})
	for _, exchange := range subscribers {
		s.publish(transport.Fanout, exchange, payload, "failed to publish check request")
	}
	s.issued(w)
}

// unique drops repeated values, keeping the first occurrence.
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
