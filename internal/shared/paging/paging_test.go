package paging

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		page, size    int
		want          Window
		offset, pages int
	}{
		{0, 0, Window{1, DefaultPageSize}, 0, 3},
		{3, 10, Window{3, 10}, 20, 5},
		{2, 500, Window{2, MaxPageSize}, 100, 1},
	}
	for _, tc := range cases {
		got := Normalize(tc.page, tc.size)
		if got != tc.want {
			t.Fatalf("Normalize(%d, %d) = %+v, want %+v", tc.page, tc.size, got, tc.want)
		}
		if got.Offset() != tc.offset {
			t.Fatalf("offset = %d, want %d", got.Offset(), tc.offset)
		}
		if got.TotalPages(45) != tc.pages {
			t.Fatalf("total pages = %d, want %d", got.TotalPages(45), tc.pages)
		}
	}
}
