package api

import (
	"context"
	"net/http"

	"sensuapi/internal/logger"
	"sensuapi/internal/transport"
	"sensuapi/pkg/models"
)

// transportInfo reports connectivity and, when connected, the statistics of
// the keepalives queue followed by the results queue. Statistics that cannot
// be read stay null.
func (s *Server) transportInfo(ctx context.Context) models.TransportInfo {
	info := models.TransportInfo{Connected: s.transport.Connected()}
	if !info.Connected {
		return info
	}

	keepalives, err := s.transport.Stats(ctx, transport.KeepalivesQueue)
	if err != nil {
		logger.Warnf("Failed to read %s queue stats: %v", transport.KeepalivesQueue, err)
		return info
	}
	info.Keepalives = queueInfo(keepalives)

	results, err := s.transport.Stats(ctx, transport.ResultsQueue)
	if err != nil {
		logger.Warnf("Failed to read %s queue stats: %v", transport.ResultsQueue, err)
		return info
	}
	info.Results = queueInfo(results)
	return info
}

func queueInfo(stats transport.QueueStats) models.QueueInfo {
	messages, consumers := stats.Messages, stats.Consumers
	return models.QueueInfo{Messages: &messages, Consumers: &consumers}
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	info := models.Info{
		Sensu:     models.VersionInfo{Version: s.version},
		Transport: s.transportInfo(r.Context()),
		Redis:     models.RedisInfo{Connected: s.store.Connected()},
	}
	writeJSON(w, info)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	if !s.store.Connected() || !s.transport.Connected() {
		unavailable(w)
		return
	}

	minConsumers := integerParam(r, "consumers")
	maxMessages := integerParam(r, "messages")
	info := s.transportInfo(r.Context())
	queues := []models.QueueInfo{info.Keepalives, info.Results}

	healthy := true
	for _, q := range queues {
		if minConsumers != nil && (q.Consumers == nil || *q.Consumers < *minConsumers) {
			healthy = false
		}
		if maxMessages != nil && (q.Messages == nil || *q.Messages > *maxMessages) {
			healthy = false
		}
	}
	if !healthy {
		unavailable(w)
		return
	}
	noContent(w)
}
