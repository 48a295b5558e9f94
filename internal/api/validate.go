package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"sensuapi/internal/jsoncodec"
)

type fieldType int

const (
	stringField fieldType = iota
	arrayField
	objectField
	integerField
)

// rule is the contract of one body field. A nilOK field may be absent or
// null; any other field must be present with the declared type.
type rule struct {
	kind  fieldType
	nilOK bool
}

// rules maps field names to their contract. Fields without a rule are
// ignored.
type rules map[string]rule

func (k fieldType) matches(v any) bool {
	switch k {
	case stringField:
		_, ok := v.(string)
		return ok
	case arrayField:
		_, ok := v.([]any)
		return ok
	case objectField:
		_, ok := v.(map[string]any)
		return ok
	case integerField:
		n, ok := v.(json.Number)
		if !ok {
			return false
		}
		_, err := strconv.ParseInt(n.String(), 10, 64)
		return err == nil
	}
	return false
}

func (rs rules) check(data map[string]any) bool {
	for field, r := range rs {
		v := data[field]
		if v == nil && r.nilOK {
			continue
		}
		if !r.kind.matches(v) {
			return false
		}
	}
	return true
}

// readJSON decodes the request body as any JSON value.
func readJSON(r *http.Request) (any, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !jsoncodec.Valid(body) {
		return nil, false
	}
	var data any
	if err := jsoncodec.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	return data, true
}

// readObject decodes the request body as a JSON object and checks it against
// rs. The caller answers 400 when ok is false.
func readObject(r *http.Request, rs rules) (map[string]any, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false
	}
	data, err := jsoncodec.Object(body)
	if err != nil {
		return nil, false
	}
	if !rs.check(data) {
		return nil, false
	}
	return data, true
}

// integerValue reads a field already accepted by an integerField rule.
func integerValue(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}
