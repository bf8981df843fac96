package format

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/vedsharma/adminkit/internal/entity"
	"github.com/vedsharma/adminkit/internal/notification"
	"github.com/vedsharma/adminkit/internal/pagination"
	"github.com/vedsharma/adminkit/internal/store"
)

// PrintEntities lists registered entities with their endpoint and abilities.
func PrintEntities(mgr *entity.Manager) {
	slugs := mgr.Slugs()
	if len(slugs) == 0 {
		dimColor.Fprintln(Out, "No entities configured")
		return
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tTITLE\tAPI\tENDPOINT\tVIEWS\tABILITIES")
	for _, slug := range slugs {
		meta, err := mgr.Get(slug)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sanitizeOutput(slug),
			sanitizeOutput(meta.Title),
			meta.APIType,
			sanitizeOutput(meta.APIEndpoint),
			strings.Join(meta.ViewNames(), ","),
			abilitiesText(meta.Abilities()),
		)
	}
	w.Flush()
}

func abilitiesText(a entity.Abilities) string {
	var parts []string
	if a.Create {
		parts = append(parts, "create")
	}
	if a.Edit {
		parts = append(parts, "edit")
	}
	if a.Delete {
		parts = append(parts, "delete")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// PrintItems renders items as a table. Without columns the id key comes
// first and the remaining keys follow in sorted order.
func PrintItems(items []entity.Item, columns []string, idKey string) {
	if len(items) == 0 {
		dimColor.Fprintln(Out, "No items")
		return
	}
	if len(columns) == 0 {
		columns = itemColumns(items, idKey)
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(entity.LabelFromKey(c))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	row := make([]string, len(columns))
	for _, item := range items {
		for i, c := range columns {
			row[i] = cellValue(item[c])
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func itemColumns(items []entity.Item, idKey string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, item := range items {
		for k := range item {
			if k == idKey || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return append([]string{idKey}, keys...)
}

// cellValue renders one value on a single line.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return sanitizeOutput(strings.ReplaceAll(val, "\t", " "))
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any, entity.Item, []entity.Item:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return sanitizeOutput(string(data))
	default:
		return sanitizeOutput(fmt.Sprint(val))
	}
}

// PrintItem prints one item as labelled lines. Fields select and order the
// lines; without them every key is printed in sorted order.
func PrintItem(item entity.Item, fields []entity.Field) {
	if len(fields) == 0 {
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, entity.Field{Key: k, Label: entity.LabelFromKey(k)})
		}
	}

	width := 0
	for _, f := range fields {
		if n := len(labelOf(f)); n > width {
			width = n
		}
	}
	for _, f := range fields {
		headerKeyColor.Fprintf(Out, "%-*s  ", width, sanitizeOutput(labelOf(f)))
		fmt.Fprintln(Out, itemValue(item[f.Key]))
	}
}

func labelOf(f entity.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return entity.LabelFromKey(f.Key)
}

func itemValue(v any) string {
	switch v.(type) {
	case map[string]any, []any, entity.Item, []entity.Item:
		data, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			return sanitizeOutput(string(data))
		}
	}
	return cellValue(v)
}

// PrintListSummary prints the position of the loaded page and the links to
// neighbouring pages.
func PrintListSummary(state store.ListState, lastPage int) {
	if len(state.Items) == 0 {
		return
	}
	from := state.Offset + 1
	to := state.Offset + len(state.Items)
	dimColor.Fprintf(Out, "\n%d-%d of %d\n", from, to, state.Total)
	if lastPage > 1 {
		PrintPageLinks(state.Page, lastPage)
	}
}

// PrintPageLinks prints the compact page selector, marking the current page.
func PrintPageLinks(current, last int) {
	links := pagination.PageLinks(current, last)
	parts := make([]string, 0, len(links))
	for _, p := range links {
		switch {
		case p == pagination.Dots:
			parts = append(parts, "…")
		case p == current:
			parts = append(parts, successColor.Sprintf("[%d]", p))
		default:
			parts = append(parts, strconv.Itoa(p))
		}
	}
	fmt.Fprintf(Out, "Pages: %s\n", strings.Join(parts, " "))
}

// PrintFieldErrors prints validation messages grouped by field. Messages
// for the whole item use the "" key and are printed first.
func PrintFieldErrors(errs map[string][]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, msg := range errs[k] {
			if k == "" {
				clientErrColor.Fprintf(ErrOut, "✗ %s\n", sanitizeOutput(msg))
				continue
			}
			clientErrColor.Fprintf(ErrOut, "✗ %s: ", sanitizeOutput(k))
			fmt.Fprintln(ErrOut, sanitizeOutput(msg))
		}
	}
}

// PrintNotification writes a notification to ErrOut, coloured by its type.
func PrintNotification(n notification.Notification) {
	c := infoColor
	mark := "•"
	switch n.Type {
	case notification.TypeSuccess:
		c, mark = successColor, "✓"
	case notification.TypeError:
		c, mark = clientErrColor, "✗"
	}
	text := n.Title
	if n.Body != "" {
		if text != "" {
			text += ": "
		}
		text += n.Body
	}
	c.Fprintf(ErrOut, "%s %s\n", mark, sanitizeOutput(text))
}
