package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageSelection parses a page selection expression like "1-3,5,12" into
// a sorted, deduplicated list of 1-based page numbers validated against
// totalPages. Tokens are comma-separated; each token is a single page number
// or an inclusive range "start-end". Input order is not preserved: the result
// is always ascending. Any malformed or out-of-range token fails the whole
// expression with a *SelectionError naming the token.
func ParsePageSelection(expr string, totalPages int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &SelectionError{Msg: "empty page selection"}
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &SelectionError{Token: part, Msg: "empty page token"}
		}
		if strings.Contains(part, "-") {
			start, end, err := parseRange(part)
			if err != nil {
				return nil, err
			}
			if start < 1 || end > totalPages {
				return nil, &SelectionError{Token: part,
					Msg: fmt.Sprintf("Page range %d-%d is out of range (1-%d)", start, end, totalPages)}
			}
			if start > end {
				return nil, &SelectionError{Token: part,
					Msg: fmt.Sprintf("Page range %d-%d is reversed", start, end)}
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, &SelectionError{Token: part, Msg: fmt.Sprintf("invalid page number %q", part)}
		}
		if p < 1 || p > totalPages {
			return nil, &SelectionError{Token: part,
				Msg: fmt.Sprintf("Page %d is out of range (1-%d)", p, totalPages)}
		}
		seen[p] = struct{}{}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parseRange(part string) (start, end int, err error) {
	bounds := strings.Split(part, "-")
	if len(bounds) != 2 {
		return 0, 0, &SelectionError{Token: part, Msg: fmt.Sprintf("invalid page range %q", part)}
	}
	start, err = strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return 0, 0, &SelectionError{Token: part, Msg: fmt.Sprintf("invalid page range %q", part)}
	}
	end, err = strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return 0, 0, &SelectionError{Token: part, Msg: fmt.Sprintf("invalid page range %q", part)}
	}
	return start, end, nil
}
