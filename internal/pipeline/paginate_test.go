package pipeline

import (
	"testing"
)

func intPtr(v int) *int { return &v }

func TestPaginateWithoutLimitReturnsInput(t *testing.T) {
	items := []string{"a", "b", "c"}
	got, page := Paginate(items, nil, 2)
	if page != nil {
		t.Fatalf("expected no page, got %+v", page)
	}
	if len(got) != 3 {
		t.Fatalf("expected items unchanged, got %v", got)
	}
}

func TestPaginateWindows(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	cases := []struct {
		limit, offset int
		want          []int
	}{
		{2, 0, []int{0, 1}},
		{2, 3, []int{3, 4}},
		{10, 3, []int{3, 4}},
		{2, 5, []int{}},
		{2, 9, []int{}},
		{0, 1, []int{}},
	}
	for _, c := range cases {
		got, page := Paginate(items, intPtr(c.limit), c.offset)
		if page == nil || page.Limit != c.limit || page.Offset != c.offset || page.Total != 5 {
			t.Fatalf("limit=%d offset=%d: unexpected page %+v", c.limit, c.offset, page)
		}
		if len(got) != len(c.want) {
			t.Fatalf("limit=%d offset=%d: expected %v, got %v", c.limit, c.offset, c.want, got)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("limit=%d offset=%d: expected %v, got %v", c.limit, c.offset, c.want, got)
			}
		}
	}
}
