package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensuapi/internal/store"
)

func seedAggregate(t *testing.T, env *testEnv, check string, issued ...int64) {
	t.Helper()
	_, err := env.mr.SAdd(store.AggregatesKey, check)
	require.NoError(t, err)
	for _, ts := range issued {
		run := strconv.FormatInt(ts, 10)
		_, err := env.mr.SAdd(store.AggregateIndexKey(check), run)
		require.NoError(t, err)
		env.mr.HSet(store.AggregateKey(check, run), "ok", "2", "critical", "1", "total", "3")
		env.mr.HSet(store.AggregationKey(check, run),
			"i-1", `{"output":"OK","status":0}`,
			"i-2", `{"output":"OK","status":0}`,
			"i-3", `{"output":"CRITICAL","status":2}`,
		)
	}
}

func TestListAggregates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/aggregates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	seedAggregate(t, env, "cpu", 1699999000, 1699999900, 1699990000)
	seedAggregate(t, env, "disk", 1699999500)

	rec = env.do(t, http.MethodGet, "/aggregates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"check":"cpu","issued":[1699999900,1699999000,1699990000]},
		{"check":"disk","issued":[1699999500]}
	]`, rec.Body.String())
}

func TestGetAggregate(t *testing.T) {
	env := newTestEnv(t)
	seedAggregate(t, env, "cpu", 1699999000, 1699999900, 1699990000)

	tests := []struct {
		query  string
		want   string
		header string
	}{
		{query: "", want: `[1699999900,1699999000,1699990000]`},
		{query: "?age=100", want: `[1699999900,1699999000,1699990000]`},
		{query: "?age=101", want: `[1699999000,1699990000]`},
		{query: "?age=100000", want: `[]`},
		{query: "?age=abc", want: `[1699999900,1699999000,1699990000]`},
		{query: "?limit=1&offset=1", want: `[1699999000]`, header: `{"limit":1,"offset":1,"total":3}`},
		{query: "?age=101&limit=1", want: `[1699999000]`, header: `{"limit":1,"offset":0,"total":2}`},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/aggregates/cpu"+tc.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
			if tc.header != "" {
				assert.JSONEq(t, tc.header, rec.Header().Get(PaginationHeader))
			}
		})
	}

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/aggregates/disk", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/aggregates/disk?age=1", "").Code)
}

func TestDeleteAggregate(t *testing.T) {
	env := newTestEnv(t)
	seedAggregate(t, env, "cpu", 1699999000, 1699999900)
	seedAggregate(t, env, "disk", 1699999500)

	rec := env.do(t, http.MethodDelete, "/aggregates/cpu", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	for _, key := range []string{
		store.AggregateIndexKey("cpu"),
		store.AggregateKey("cpu", "1699999000"),
		store.AggregateKey("cpu", "1699999900"),
		store.AggregationKey("cpu", "1699999000"),
		store.AggregationKey("cpu", "1699999900"),
	} {
		assert.False(t, env.mr.Exists(key), key)
	}
	members, err := env.mr.Members(store.AggregatesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"disk"}, members)
	assert.True(t, env.mr.Exists(store.AggregateKey("disk", "1699999500")))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/aggregates/cpu", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/aggregates/cpu", "").Code)
}

func TestGetAggregateRun(t *testing.T) {
	env := newTestEnv(t)
	seedAggregate(t, env, "cpu", 1699999000)

	rec := env.do(t, http.MethodGet, "/aggregates/cpu/1699999000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":2,"critical":1,"total":3}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/aggregate/cpu/1699999000?summarize=status,output", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":2,"critical":1,"total":3,"outputs":{"OK":2,"CRITICAL":1}}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/aggregates/cpu/1699999000?summarize=status&results=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "outputs")
	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)
	assert.Equal(t, map[string]any{"client": "i-3", "output": "CRITICAL", "status": float64(2)}, results[2])

	for _, query := range []string{"?results", "?results="} {
		rec = env.do(t, http.MethodGet, "/aggregates/cpu/1699999000"+query, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":2,"critical":1,"total":3}`, rec.Body.String(), query)
	}

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/aggregates/cpu/1", "").Code)
}
