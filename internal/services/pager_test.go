package services

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
)

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	cases := []struct {
		page Page
		want []int
	}{
		{Page{PageSize: 2, PageNumber: 1}, []int{1, 2}},
		{Page{PageSize: 2, PageNumber: 2}, []int{3, 4}},
		{Page{PageSize: 2, PageNumber: 3}, []int{5}},
		{Page{PageSize: 2, PageNumber: 4}, []int{}},
		{Page{PageSize: 10, PageNumber: 1}, []int{1, 2, 3, 4, 5}},
		{Page{PageSize: 5, PageNumber: 2}, []int{}},
		{Page{PageSize: 2, PageNumber: math.MaxInt}, []int{}},
		{Page{PageSize: math.MaxInt, PageNumber: 1}, []int{1, 2, 3, 4, 5}},
		{Page{PageSize: math.MaxInt, PageNumber: 2}, []int{}},
		{Page{PageSize: math.MaxInt, PageNumber: math.MaxInt}, []int{}},
	}
	for _, tc := range cases {
		got := Slice(items, tc.page)
		if len(got) != len(tc.want) {
			t.Fatalf("page %+v: want=%v got=%v", tc.page, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("page %+v: want=%v got=%v", tc.page, tc.want, got)
			}
		}
	}

	if got := Slice([]int{}, Page{PageSize: 3, PageNumber: math.MaxInt}); len(got) != 0 {
		t.Fatalf("empty input: want=[] got=%v", got)
	}

	got := Slice(items, Page{PageSize: 2, PageNumber: 1})
	got[0] = 99
	if items[0] != 1 {
		t.Fatalf("Slice must not alias its input")
	}
}

func TestPageValidation(t *testing.T) {
	for _, p := range []Page{{PageSize: 0, PageNumber: 1}, {PageSize: 5, PageNumber: 0}, {PageSize: -1, PageNumber: -1}} {
		if err := validateStruct(p); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("page %+v: want ErrInvalidArgument got %v", p, err)
		}
	}
	if err := validateStruct(Page{PageSize: 1, PageNumber: 1}); err != nil {
		t.Fatalf("valid page rejected: %v", err)
	}
}

func TestPagesCoverItemsExactlyOnce(t *testing.T) {
	for n := 0; n <= 7; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for k := 1; k <= n+1; k++ {
			var joined []int
			pages := (n + k - 1) / k
			for p := 1; p <= pages; p++ {
				joined = append(joined, Slice(items, Page{PageSize: k, PageNumber: p})...)
			}
			if len(joined) != n {
				t.Fatalf("n=%d k=%d: want %d items got %v", n, k, n, joined)
			}
			for i := range joined {
				if joined[i] != i {
					t.Fatalf("n=%d k=%d: want=%v got=%v", n, k, items, joined)
				}
			}
			if extra := Slice(items, Page{PageSize: k, PageNumber: pages + 1}); len(extra) != 0 {
				t.Fatalf("n=%d k=%d: page past the end returned %v", n, k, extra)
			}
		}
	}
}
