package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sensuapi/internal/jsoncodec"
	"sensuapi/internal/logger"
	"sensuapi/internal/pipeline"
	"sensuapi/internal/store"
	"sensuapi/pkg/models"
)

// historyDepth is the number of recent statuses reported per check.
const historyDepth = 21

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := s.store.SMembers(ctx, store.ClientsKey)
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Strings(names)
	names = paginate(w, r, names)

	clients, err := pipeline.Gather(ctx, names, func(ctx context.Context, name string) (json.RawMessage, bool, error) {
		clientJSON, ok, err := s.store.Get(ctx, store.ClientKey(name))
		if err != nil || !ok {
			return nil, false, err
		}
		if !jsoncodec.Valid([]byte(clientJSON)) {
			return nil, false, fmt.Errorf("client %s: invalid json", name)
		}
		return json.RawMessage(clientJSON), true, nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, clients)
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	clientJSON, ok, err := s.store.Get(r.Context(), store.ClientKey(chi.URLParam(r, "client")))
	switch {
	case err != nil:
		internalError(w, r, err)
	case !ok:
		notFound(w)
	default:
		writeRaw(w, clientJSON)
	}
}

func (s *Server) getClientHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := chi.URLParam(r, "client")
	checks, err := s.store.SMembers(ctx, store.HistoryIndexKey(client))
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Strings(checks)

	items, err := pipeline.Gather(ctx, checks, func(ctx context.Context, check string) (models.HistoryItem, bool, error) {
		raw, err := s.store.LRange(ctx, store.HistoryKey(client, check), -historyDepth, -1)
		if err != nil {
			return models.HistoryItem{}, false, err
		}
		lastExecution, ok, err := s.store.Get(ctx, store.ExecutionKey(client, check))
		if err != nil {
			return models.HistoryItem{}, false, err
		}
		if len(raw) == 0 || !ok {
			return models.HistoryItem{}, false, nil
		}

		history := make([]int, len(raw))
		for i, status := range raw {
			history[i] = atoi(status)
		}
		return models.HistoryItem{
			Check:         check,
			History:       history,
			LastExecution: int64(atoi(lastExecution)),
			LastStatus:    history[len(history)-1],
		}, true, nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// deleteClient resolves every open event of the client right away and
// removes the client's keys once the resolutions had time to land.
func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "client")
	clientJSON, ok, err := s.store.Get(ctx, store.ClientKey(name))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !ok {
		notFound(w)
		return
	}

	events, err := s.clientEvents(ctx, name)
	if err != nil {
		internalError(w, r, err)
		return
	}
	for _, e := range events {
		s.resolveEvent(e)
	}

	// A client that registers again during the delay is still removed.
	s.background(func(ctx context.Context) {
		timer := time.NewTimer(s.deleteDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			logger.Warnf("Client %s not deleted: %v", name, ctx.Err())
			return
		}
		if err := s.purgeClient(ctx, name, clientJSON); err != nil {
			logger.ErrorFields("failed to delete client", logger.Fields{
				"client": name,
				"error":  err.Error(),
			})
		}
	})
	s.issued(w)
}

// purgeClient removes the client's membership, record, events, and history.
func (s *Server) purgeClient(ctx context.Context, name, clientJSON string) error {
	var client any = clientJSON
	if obj, err := jsoncodec.Object([]byte(clientJSON)); err == nil {
		client = obj
	}
	logger.InfoFields("deleting client", logger.Fields{"client": client})

	if err := s.store.SRem(ctx, store.ClientsKey, name); err != nil {
		return fmt.Errorf("remove client from set: %w", err)
	}
	if err := s.store.Del(ctx, store.ClientKey(name), store.EventsKey(name)); err != nil {
		return fmt.Errorf("delete client record: %w", err)
	}
	checks, err := s.store.SMembers(ctx, store.HistoryIndexKey(name))
	if err != nil {
		return fmt.Errorf("list client history: %w", err)
	}
	keys := make([]string, 0, 2*len(checks)+1)
	for _, check := range checks {
		keys = append(keys, store.HistoryKey(name, check), store.ExecutionKey(name, check))
	}
	keys = append(keys, store.HistoryIndexKey(name))
	if err := s.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete client history: %w", err)
	}
	return nil
}

var leadingInteger = regexp.MustCompile(`^\s*[-+]?[0-9]+`)

// atoi reads the leading integer of a stored value, so "1699999990.5" reads
// as 1699999990. Values without one read as 0.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(leadingInteger.FindString(s)))
	if err != nil {
		return 0
	}
	return n
}
