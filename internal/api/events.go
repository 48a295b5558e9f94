package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/logger"
	"sensuapi/internal/pipeline"
	"sensuapi/internal/store"
	"sensuapi/internal/transport"
	"sensuapi/pkg/models"
)

// event decodes a stored event and names its client and check.
func event(eventJSON, client, check string) (map[string]any, error) {
	e, err := jsoncodec.Object([]byte(eventJSON))
	if err != nil {
		return nil, fmt.Errorf("decode event %s/%s: %w", client, check, err)
	}
	e["client"] = client
	e["check"] = check
	return e, nil
}

// clientEvents loads every open event of client, ordered by check name.
func (s *Server) clientEvents(ctx context.Context, client string) ([]map[string]any, error) {
	hash, err := s.store.HGetAll(ctx, store.EventsKey(client))
	if err != nil {
		return nil, fmt.Errorf("load events of %s: %w", client, err)
	}
	checks := make([]string, 0, len(hash))
	for check := range hash {
		checks = append(checks, check)
	}
	sort.Strings(checks)

	events := make([]map[string]any, 0, len(hash))
	for _, check := range checks {
		e, err := event(hash[check], client, check)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// publish sends payload in the background. Failures are logged and counted,
// never reported to the caller.
func (s *Server) publish(kind transport.ExchangeKind, exchange string, payload any, failure string) {
	data, err := jsoncodec.Marshal(payload)
	if err != nil {
		logger.ErrorFields(failure, logger.Fields{
			"exchange_name": exchange,
			"payload":       payload,
			"error":         err.Error(),
		})
		return
	}
	s.background(func(ctx context.Context) {
		err := s.transport.Publish(ctx, kind, exchange, data)
		s.metrics.observePublish(string(kind), err)
		if err != nil {
			logger.ErrorFields(failure, logger.Fields{
				"exchange_name": exchange,
				"payload":       payload,
				"error":         err.Error(),
			})
		}
	})
}

// resolveEvent publishes a forced OK result for e to the results queue.
func (s *Server) resolveEvent(e map[string]any) {
	client, _ := e["client"].(string)
	check, _ := e["check"].(string)
	payload := models.CheckResult{
		Client: client,
		Check: models.ResultCheck{
			Name:         check,
			Output:       models.ResolveOutput,
			Status:       0,
			Issued:       s.now().Unix(),
			Handlers:     e["handlers"],
			ForceResolve: true,
		},
	}
	logger.InfoFields("publishing check result", logger.Fields{"payload": payload})
	s.publish(transport.Direct, transport.ResultsQueue, payload, "failed to publish check result")
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clients, err := s.store.SMembers(ctx, store.ClientsKey)
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Strings(clients)

	groups, err := pipeline.Gather(ctx, clients, func(ctx context.Context, client string) ([]map[string]any, bool, error) {
		events, err := s.clientEvents(ctx, client)
		return events, err == nil, err
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, pipeline.Flatten(groups))
}

func (s *Server) listClientEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.clientEvents(r.Context(), chi.URLParam(r, "client"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, events)
}

// lookupEvent loads one event. ok is false when the event is not open.
func (s *Server) lookupEvent(ctx context.Context, client, check string) (map[string]any, bool, error) {
	eventJSON, ok, err := s.store.HGet(ctx, store.EventsKey(client), check)
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := event(eventJSON, client, check)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	e, ok, err := s.lookupEvent(r.Context(), chi.URLParam(r, "client"), chi.URLParam(r, "check"))
	switch {
	case err != nil:
		internalError(w, r, err)
	case !ok:
		notFound(w)
	default:
		writeJSON(w, e)
	}
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	s.resolveNamed(w, r, chi.URLParam(r, "client"), chi.URLParam(r, "check"))
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	data, ok := readObject(r, rules{
		"client": {kind: stringField},
		"check":  {kind: stringField},
	})
	if !ok {
		badRequest(w)
		return
	}
	s.resolveNamed(w, r, data["client"].(string), data["check"].(string))
}

func (s *Server) resolveNamed(w http.ResponseWriter, r *http.Request, client, check string) {
	e, ok, err := s.lookupEvent(r.Context(), client, check)
	switch {
	case err != nil:
		internalError(w, r, err)
	case !ok:
		notFound(w)
	default:
		s.resolveEvent(e)
		s.issued(w)
	}
}
