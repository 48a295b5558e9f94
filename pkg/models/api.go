package models

import "encoding/json"

// Issued acknowledges asynchronous work.
type Issued struct {
	Issued int64 `json:"issued"`
}

// PathResponse identifies a created stash.
type PathResponse struct {
	Path string `json:"path"`
}

// HistoryItem summarizes the recent results of one check on one client.
type HistoryItem struct {
	Check         string `json:"check"`
	History       []int  `json:"history"`
	LastExecution int64  `json:"last_execution"`
	LastStatus    int    `json:"last_status"`
}

// AggregateIssued lists the runs of one aggregate check, newest first.
type AggregateIssued struct {
	Check  string  `json:"check"`
	Issued []int64 `json:"issued"`
}

// StashItem is one entry of the stash listing. Expire is the remaining TTL in
// seconds, -1 when the stash never expires.
type StashItem struct {
	Path    string          `json:"path"`
	Content json.RawMessage `json:"content"`
	Expire  int64           `json:"expire"`
}

// Info describes the API and the health of its dependencies.
type Info struct {
	Sensu     VersionInfo   `json:"sensu"`
	Transport TransportInfo `json:"transport"`
	Redis     RedisInfo     `json:"redis"`
}

type VersionInfo struct {
	Version string `json:"version"`
}

// TransportInfo carries queue statistics; they are null when the transport
// is disconnected or the broker could not be queried.
type TransportInfo struct {
	Keepalives QueueInfo `json:"keepalives"`
	Results    QueueInfo `json:"results"`
	Connected  bool      `json:"connected"`
}

type QueueInfo struct {
	Messages  *int `json:"messages"`
	Consumers *int `json:"consumers"`
}

type RedisInfo struct {
	Connected bool `json:"connected"`
}
