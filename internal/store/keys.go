package store

// Key names shared with the rest of the platform.
const (
	ClientsKey    = "clients"
	AggregatesKey = "aggregates"
	StashesKey    = "stashes"
)

func ClientKey(client string) string {
	return "client:" + client
}

func EventsKey(client string) string {
	return "events:" + client
}

// HistoryIndexKey is the set of check names that have history for client.
func HistoryIndexKey(client string) string {
	return "history:" + client
}

func HistoryKey(client, check string) string {
	return "history:" + client + ":" + check
}

func ExecutionKey(client, check string) string {
	return "execution:" + client + ":" + check
}

// AggregateIndexKey is the set of issued timestamps aggregated for check.
func AggregateIndexKey(check string) string {
	return "aggregates:" + check
}

// AggregateKey holds the per-status counts of one aggregation run.
func AggregateKey(check, issued string) string {
	return "aggregate:" + check + ":" + issued
}

// AggregationKey holds the per-client results of one aggregation run.
func AggregationKey(check, issued string) string {
	return "aggregation:" + check + ":" + issued
}

func StashKey(path string) string {
	return "stash:" + path
}
