package format

import (
	"bytes"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/vedsharma/adminkit/internal/entity"
	httpclient "github.com/vedsharma/adminkit/internal/http"
	"github.com/vedsharma/adminkit/internal/notification"
	"github.com/vedsharma/adminkit/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := Out, ErrOut
	Out, ErrOut = &out, &errOut
	t.Cleanup(func() { Out, ErrOut = prevOut, prevErr })
	return &out, &errOut
}

func TestSanitizeOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"whitespace kept", "a\tb\nc\r", "a\tb\nc\r"},
		{"escape", "\x1b[31mred", "\\x1b[31mred"},
		{"bell", "ding\x07", "ding\\x07"},
		{"del", "x\x7f", "x\\x7f"},
		{"unicode", "привет", "привет"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeOutput(tt.in))
		})
	}
}

func TestGetStatusColor(t *testing.T) {
	assert.Equal(t, successColor, getStatusColor(204))
	assert.Equal(t, redirectColor, getStatusColor(302))
	assert.Equal(t, clientErrColor, getStatusColor(404))
	assert.Equal(t, serverErrColor, getStatusColor(503))
}

func TestPrintResponse(t *testing.T) {
	out, _ := capture(t)

	res := &httpclient.Response{
		Status:     200,
		StatusText: "OK",
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"a":1}`),
	}
	PrintResponse(res, 42*time.Millisecond, true)

	text := out.String()
	assert.Contains(t, text, "200 OK")
	assert.Contains(t, text, "Time: 42ms")
	assert.Contains(t, text, "Content-Type: application/json")
	assert.Contains(t, text, "{\n  \"a\": 1\n}")
}

func TestPrintResponse_EmptyBody(t *testing.T) {
	out, _ := capture(t)
	PrintResponse(&httpclient.Response{Status: 204}, 0, false)
	assert.Contains(t, out.String(), "(empty body)")
	assert.NotContains(t, out.String(), "Headers:")
}

func TestPrettyJSON_Invalid(t *testing.T) {
	assert.Equal(t, "not json", prettyJSON("not json"))
}

func TestPrintItems(t *testing.T) {
	out, _ := capture(t)

	items := []entity.Item{
		{"id": "1", "name": "Alice", "age": float64(30)},
		{"id": "2", "name": "Bob", "tags": []any{"a", "b"}},
	}
	PrintItems(items, nil, "id")

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Len(t, lines, 3)
	assert.Regexp(t, `^ID\s+AGE\s+NAME\s+TAGS$`, string(lines[0]))
	assert.Regexp(t, `^1\s+30\s+Alice$`, string(bytes.TrimSpace(lines[1])))
	assert.Contains(t, string(lines[2]), `["a","b"]`)
}

func TestPrintItems_Columns(t *testing.T) {
	out, _ := capture(t)
	PrintItems([]entity.Item{{"id": "1", "firstName": "Ann", "skip": "x"}}, []string{"firstName"}, "id")
	assert.Contains(t, out.String(), "FIRST NAME")
	assert.NotContains(t, out.String(), "x\n")
}

func TestPrintItems_Empty(t *testing.T) {
	out, _ := capture(t)
	PrintItems(nil, nil, "id")
	assert.Equal(t, "No items\n", out.String())
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, "", cellValue(nil))
	assert.Equal(t, "1.5", cellValue(1.5))
	assert.Equal(t, "7", cellValue(float64(7)))
	assert.Equal(t, "true", cellValue(true))
	assert.Equal(t, "a b", cellValue("a\tb"))
	assert.Equal(t, `{"x":1}`, cellValue(map[string]any{"x": 1}))
}

func TestPrintItem(t *testing.T) {
	out, _ := capture(t)
	PrintItem(entity.Item{"id": "1", "name": "Alice"}, []entity.Field{
		{Key: "name", Label: "Full name"},
		{Key: "id"},
	})
	assert.Equal(t, "Full name  Alice\nId         1\n", out.String())
}

func TestPrintListSummary(t *testing.T) {
	out, _ := capture(t)
	PrintListSummary(store.ListState{
		Items:   []entity.Item{{"id": "1"}, {"id": "2"}},
		Total:   42,
		PerPage: 2,
		Offset:  6,
		Page:    4,
	}, 21)

	text := out.String()
	assert.Contains(t, text, "7-8 of 42")
	assert.Contains(t, text, "Pages: 1 2 3 [4] 5 … 21")
}

func TestPrintFieldErrors(t *testing.T) {
	_, errOut := capture(t)
	PrintFieldErrors(map[string][]string{
		"title": {"is required"},
		"":      {"conflict"},
	})
	assert.Equal(t, "✗ conflict\n✗ title: is required\n", errOut.String())
}

func TestPrintNotification(t *testing.T) {
	_, errOut := capture(t)
	PrintNotification(notification.Notification{Type: notification.TypeSuccess, Title: "Saved", Body: "item 1"})
	PrintNotification(notification.Notification{Type: notification.TypeInfo, Body: "hello"})
	assert.Equal(t, "✓ Saved: item 1\n• hello\n", errOut.String())
}

func TestPrintEntities(t *testing.T) {
	out, _ := capture(t)

	mgr := entity.NewManager()
	assert.NoError(t, mgr.Register("users", entity.Meta{
		Title:          "Users",
		APIEndpoint:    "/api/users",
		Form:           entity.Form{Fields: []entity.Field{{Key: "name"}}},
		DeleteDisabled: true,
	}))
	PrintEntities(mgr)

	text := out.String()
	assert.Contains(t, text, "SLUG")
	assert.Regexp(t, `users\s+Users\s+jsonApi\s+/api/users\s+default\s+create,edit`, text)
}
