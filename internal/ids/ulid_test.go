package ids

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestRequestIDIsSortableULID(t *testing.T) {
	prev := ""
	for i := 0; i < 50; i++ {
		id := RequestID()
		if _, err := ulid.Parse(id); err != nil {
			t.Fatalf("expected valid ULID, got %v", err)
		}
		if prev != "" && prev >= id {
			t.Fatalf("expected increasing ids, %s >= %s", prev, id)
		}
		prev = id
	}
}
