package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensuapi/internal/store"
	"sensuapi/internal/transport"
	"sensuapi/pkg/models"
)

func seedClients(t *testing.T, env *testEnv, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := env.mr.SAdd(store.ClientsKey, name)
		require.NoError(t, err)
		require.NoError(t, env.mr.Set(store.ClientKey(name), `{"name":"`+name+`","subscriptions":["web"]}`))
	}
}

func TestListClients(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	seedClients(t, env, "i-3", "i-1", "i-2")
	rec = env.do(t, http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(PaginationHeader))

	var clients []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	require.Len(t, clients, 3)
	assert.Equal(t, "i-1", clients[0]["name"])
	assert.Equal(t, "i-3", clients[2]["name"])
}

func TestListClientsPaginated(t *testing.T) {
	env := newTestEnv(t)
	seedClients(t, env, "a", "b", "c", "d")

	tests := []struct {
		query  string
		names  []string
		header string
	}{
		{query: "?limit=2", names: []string{"a", "b"}, header: `{"limit":2,"offset":0,"total":4}`},
		{query: "?limit=2&offset=3", names: []string{"d"}, header: `{"limit":2,"offset":3,"total":4}`},
		{query: "?limit=2&offset=9", names: []string{}, header: `{"limit":2,"offset":9,"total":4}`},
		{query: "?limit=x&offset=1", names: []string{"a", "b", "c", "d"}},
		{query: "?limit=1&offset=-1", names: []string{"a"}, header: `{"limit":1,"offset":0,"total":4}`},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/clients"+tc.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var clients []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
			names := make([]string, 0, len(clients))
			for _, c := range clients {
				names = append(names, c["name"].(string))
			}
			assert.Equal(t, tc.names, names)

			if tc.header == "" {
				assert.Empty(t, rec.Header().Get(PaginationHeader))
			} else {
				assert.JSONEq(t, tc.header, rec.Header().Get(PaginationHeader))
			}
		})
	}
}

func TestListClientsSkipsMissingRecords(t *testing.T) {
	env := newTestEnv(t)
	seedClients(t, env, "i-1")
	_, err := env.mr.SAdd(store.ClientsKey, "ghost")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"i-1","subscriptions":["web"]}]`, rec.Body.String())
}

func TestGetClient(t *testing.T) {
	env := newTestEnv(t)
	seedClients(t, env, "i-1")

	for _, path := range []string{"/clients/i-1", "/client/i-1", "/clients/i-1/"} {
		rec := env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"name":"i-1","subscriptions":["web"]}`, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/clients/i-9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestClientHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/clients/i-1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, err := env.mr.SAdd(store.HistoryIndexKey("i-1"), "cpu", "disk", "ntp")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		status := "0"
		if i == 24 {
			status = "2"
		}
		_, err := env.mr.Push(store.HistoryKey("i-1", "cpu"), status)
		require.NoError(t, err)
	}
	require.NoError(t, env.mr.Set(store.ExecutionKey("i-1", "cpu"), "1699999990.5"))
	// disk has history but was never executed; ntp has neither.
	_, err = env.mr.Push(store.HistoryKey("i-1", "disk"), "1")
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/clients/i-1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.HistoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "cpu", items[0].Check)
	assert.Len(t, items[0].History, historyDepth)
	assert.Equal(t, 2, items[0].LastStatus)
	assert.Equal(t, int64(1699999990), items[0].LastExecution)
}

// purgeDelay outlasts the assertions made right after the 202.
const purgeDelay = 300 * time.Millisecond

func assertClientPresent(t *testing.T, env *testEnv, name string) {
	t.Helper()
	assert.True(t, env.mr.Exists(store.ClientKey(name)))
	ok, err := env.mr.IsMember(store.ClientsKey, name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteClient(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.ClientDeleteDelay = purgeDelay })
	seedClients(t, env, "i-1", "i-2")
	env.mr.HSet(store.EventsKey("i-1"),
		"cpu", `{"output":"CPU CRITICAL","status":2,"handlers":["pagerduty"]}`,
		"disk", `{"output":"DISK WARNING","status":1}`,
	)
	_, err := env.mr.SAdd(store.HistoryIndexKey("i-1"), "cpu", "disk")
	require.NoError(t, err)
	for _, check := range []string{"cpu", "disk"} {
		_, err := env.mr.Push(store.HistoryKey("i-1", check), "0", "2")
		require.NoError(t, err)
		require.NoError(t, env.mr.Set(store.ExecutionKey("i-1", check), "1699999990"))
	}

	rec := env.do(t, http.MethodDelete, "/clients/i-1", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"issued":1700000000}`, rec.Body.String())

	assertClientPresent(t, env, "i-1")
	assert.True(t, env.mr.Exists(store.EventsKey("i-1")))
	assert.True(t, env.mr.Exists(store.HistoryIndexKey("i-1")))

	env.wait(t)

	pubs := env.transport.publishes()
	require.Len(t, pubs, 2)
	handlersByCheck := map[string]any{}
	for _, p := range pubs {
		assert.Equal(t, transport.Direct, p.kind)
		assert.Equal(t, transport.ResultsQueue, p.exchange)

		var result map[string]any
		require.NoError(t, json.Unmarshal(p.payload, &result))
		assert.Equal(t, "i-1", result["client"])
		check := result["check"].(map[string]any)
		assert.Equal(t, true, check["force_resolve"])
		assert.Equal(t, float64(0), check["status"])
		assert.Equal(t, models.ResolveOutput, check["output"])
		assert.Equal(t, float64(testNow.Unix()), check["issued"])
		handlersByCheck[check["name"].(string)] = check["handlers"]
	}
	assert.Equal(t, []any{"pagerduty"}, handlersByCheck["cpu"])
	assert.Nil(t, handlersByCheck["disk"])

	for _, key := range []string{
		store.ClientKey("i-1"),
		store.EventsKey("i-1"),
		store.HistoryIndexKey("i-1"),
		store.HistoryKey("i-1", "cpu"),
		store.HistoryKey("i-1", "disk"),
		store.ExecutionKey("i-1", "cpu"),
		store.ExecutionKey("i-1", "disk"),
	} {
		assert.False(t, env.mr.Exists(key), key)
	}
	members, err := env.mr.Members(store.ClientsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"i-2"}, members)
	assert.True(t, env.mr.Exists(store.ClientKey("i-2")))

	rec = env.do(t, http.MethodDelete, "/clients/i-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/client/i-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteClientWithoutEvents(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.ClientDeleteDelay = purgeDelay })
	seedClients(t, env, "i-1")

	rec := env.do(t, http.MethodDelete, "/client/i-1", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assertClientPresent(t, env, "i-1")
	env.wait(t)

	assert.Empty(t, env.transport.publishes())
	assert.False(t, env.mr.Exists(store.ClientKey("i-1")))
}

func TestAtoiReadsLeadingInteger(t *testing.T) {
	tests := map[string]int{
		"2":                    2,
		"1699999990.5":         1699999990,
		" 42abc":               42,
		"-1":                   -1,
		"+7":                   7,
		"":                     0,
		"abc":                  0,
		"1e3":                  1,
		"99999999999999999999": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, atoi(in), in)
	}
}
