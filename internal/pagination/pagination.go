// Package pagination computes page link windows and page URLs.
package pagination

import (
	"regexp"
	"strconv"
	"strings"
)

// Dots marks a gap in the list returned by PageLinks.
const Dots = -1

// Range returns the integers from min(a, b) to max(a, b) inclusive.
func Range(a, b int) []int {
	from, to := min(a, b), max(a, b)
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// PageLinks returns the page numbers to show for current out of last
// pages. Fewer than 8 pages are all shown; otherwise the list is cut into
// at most three runs separated by Dots.
func PageLinks(current, last int) []int {
	if last < 8 {
		return Range(1, last)
	}

	var items []int
	if current >= 5 {
		items = append(items, 1, Dots)
	}

	switch {
	case current < 3:
		items = append(items, Range(1, 3)...)
	case current < 5:
		items = append(items, Range(1, current+1)...)
	case current > last-2:
		items = append(items, Range(last-2, last)...)
	case current > last-4:
		items = append(items, Range(current-1, last)...)
	default:
		items = append(items, Range(current-1, current+1)...)
	}

	if current <= last-4 {
		items = append(items, Dots, last)
	}
	return items
}

var pageParam = regexp.MustCompile(`([?&])page=[0-9]+&?`)

// urlPrefix strips the first page parameter from u and returns it ready
// for "page=N" to be appended.
func urlPrefix(u string) string {
	href := u
	if loc := pageParam.FindStringSubmatchIndex(u); loc != nil {
		href = u[:loc[0]] + u[loc[2]:loc[3]] + u[loc[1]:]
	}
	if strings.HasSuffix(href, "&") || strings.HasSuffix(href, "?") {
		return href
	}
	if strings.Contains(href, "?") {
		return href + "&"
	}
	return href + "?"
}

// PageURLGenerator returns a func building the URL of a page from the
// current URL u. Page 1 gets no page parameter.
func PageURLGenerator(u string) func(page int) string {
	prefix := urlPrefix(u)
	return func(page int) string {
		if page > 1 {
			return prefix + "page=" + strconv.Itoa(page)
		}
		return prefix[:len(prefix)-1]
	}
}
