package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAppliesDefaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register("users", Meta{
		APIEndpoint: "/api/users",
		Form: Form{Fields: []Field{
			{Key: "firstName"},
			{Key: "email", Type: "email", Label: "E-mail"},
		}},
	}))

	meta, err := m.Get("users")
	require.NoError(t, err)
	assert.Equal(t, "id", meta.IDKey)
	assert.Equal(t, "jsonApi", meta.APIType)
	assert.Equal(t, DefaultViewName, meta.DefaultView)

	view, ok := meta.View("")
	require.True(t, ok)
	assert.Equal(t, "table", view.Type)
	assert.Equal(t, 25, view.PerPage)
	assert.Equal(t, []int{5, 10, 25, 50, 100}, view.PerPageOptions)

	assert.Equal(t, "text", meta.Form.Fields[0].Type)
	assert.Equal(t, "First name", meta.Form.Fields[0].Label)
	assert.Equal(t, "E-mail", meta.Form.Fields[1].Label)
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager()

	err := m.Register("broken", Meta{})
	assert.Error(t, err)

	err = m.Register("broken", Meta{APIEndpoint: "/x", Form: Form{Fields: []Field{{Label: "no key"}}}})
	assert.Error(t, err)

	err = m.Register("broken", Meta{APIEndpoint: "/x", DefaultView: "tree"})
	assert.ErrorContains(t, err, "default view")

	err = m.Register("", Meta{APIEndpoint: "/x"})
	assert.Error(t, err)

	assert.Empty(t, m.Slugs())
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register("posts", Meta{
		APIEndpoint: "/api/posts",
		Views: map[string]View{
			"list": {Type: "list", StaticFilters: map[string]any{"published": true}},
		},
	}))

	meta, err := m.Get("posts")
	require.NoError(t, err)
	assert.Equal(t, "list", meta.DefaultView)

	meta.APIEndpoint = "/changed"
	meta.Views["list"].StaticFilters["published"] = false

	again, err := m.Get("posts")
	require.NoError(t, err)
	assert.Equal(t, "/api/posts", again.APIEndpoint)
	assert.Equal(t, true, again.Views["list"].StaticFilters["published"])
}

func TestGetUnknownEntity(t *testing.T) {
	_, err := NewManager().Get("nope")
	assert.True(t, errors.Is(err, ErrUnknownEntity))
}

func TestSlugsSorted(t *testing.T) {
	m := NewManager()
	for _, slug := range []string{"users", "articles", "tags"} {
		require.NoError(t, m.Register(slug, Meta{APIEndpoint: "/api/" + slug}))
	}
	assert.Equal(t, []string{"articles", "tags", "users"}, m.Slugs())
}

func TestAbilities(t *testing.T) {
	fields := Form{Fields: []Field{{Key: "name"}}}
	tests := []struct {
		name string
		meta Meta
		want Abilities
	}{
		{"no form", Meta{}, Abilities{Delete: true}},
		{"form", Meta{Form: fields}, Abilities{Create: true, Edit: true, Delete: true}},
		{"create disabled", Meta{Form: fields, CreateDisabled: true}, Abilities{Edit: true, Delete: true}},
		{"delete disabled", Meta{Form: fields, DeleteDisabled: true}, Abilities{Create: true, Edit: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meta.Abilities())
		})
	}
}

func TestVisibleFields(t *testing.T) {
	meta := Meta{Form: Form{Fields: []Field{
		{Key: "id", HideOnCreate: true},
		{Key: "password", HideOnUpdate: true},
		{Key: "name"},
	}}}

	var create, update []string
	for _, f := range meta.CreateFields() {
		create = append(create, f.Key)
	}
	for _, f := range meta.UpdateFields() {
		update = append(update, f.Key)
	}
	assert.Equal(t, []string{"password", "name"}, create)
	assert.Equal(t, []string{"id", "name"}, update)
}

func TestLabelFromKey(t *testing.T) {
	tests := map[string]string{
		"name":       "Name",
		"created_at": "Created at",
		"created-at": "Created at",
		"createdAt":  "Created at",
		"userID":     "User id",
		"":           "",
	}
	for key, want := range tests {
		assert.Equal(t, want, LabelFromKey(key), key)
	}
}

func TestValidationErrorText(t *testing.T) {
	err := &ValidationError{FieldErrors: map[string][]string{
		"title":   {"is required", "is too short"},
		"":        {"Item is locked"},
		"address": {"is invalid"},
	}}
	assert.Equal(t, "Item is locked. is invalid. is required; is too short", err.Error())
	assert.Equal(t, "validation error", (&ValidationError{}).Error())
}

func TestItemID(t *testing.T) {
	item := Item{"id": "7", "num": float64(42), "nil": nil}
	assert.Equal(t, "7", item.ID("id"))
	assert.Equal(t, "42", item.ID("num"))
	assert.Equal(t, "", item.ID("nil"))
	assert.Equal(t, "", item.ID("missing"))
}

func TestNewAdapterUnknown(t *testing.T) {
	_, err := NewAdapter("graphql", nil)
	assert.Error(t, err)
}
