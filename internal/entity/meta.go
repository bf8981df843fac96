package entity

import (
	"sort"
	"strings"
	"unicode"
)

// Defaults applied by Manager.Register.
const (
	DefaultIDKey     = "id"
	DefaultAPIType   = "jsonApi"
	DefaultViewType  = "table"
	DefaultFieldType = "text"
	DefaultPerPage   = 25
	DefaultViewName  = "default"
)

// DefaultPerPageOptions is the per-page selector used when a view sets none.
var DefaultPerPageOptions = []int{5, 10, 25, 50, 100}

// Field describes one property of an entity item, used in forms and filters.
type Field struct {
	Key          string         `koanf:"key" validate:"required"`
	Label        string         `koanf:"label"`
	Type         string         `koanf:"type"`
	Default      any            `koanf:"default"`
	HideOnCreate bool           `koanf:"hide_on_create"`
	HideOnUpdate bool           `koanf:"hide_on_update"`
	Props        map[string]any `koanf:"props"`
}

// View describes one way of listing an entity.
type View struct {
	Type           string         `koanf:"type"`
	Title          string         `koanf:"title"`
	Columns        []string       `koanf:"columns"`
	Filters        []Field        `koanf:"filters" validate:"dive"`
	StaticFilters  map[string]any `koanf:"static_filters"`
	PerPage        int            `koanf:"per_page" validate:"gte=0"`
	PerPageOptions []int          `koanf:"per_page_options" validate:"dive,gt=0"`
}

// Form lists editable fields. InlineRelated holds dotted paths whose ids
// are replaced with the related objects after load and save.
type Form struct {
	Fields        []Field  `koanf:"fields" validate:"dive"`
	InlineRelated []string `koanf:"inline_related"`
}

// Meta is the registered description of an entity.
type Meta struct {
	Title          string          `koanf:"title"`
	IDKey          string          `koanf:"id_key"`
	APIType        string          `koanf:"api_type"`
	APIEndpoint    string          `koanf:"api_endpoint" validate:"required"`
	Views          map[string]View `koanf:"views" validate:"dive"`
	DefaultView    string          `koanf:"default_view"`
	Form           Form            `koanf:"form"`
	CreateDisabled bool            `koanf:"create_disabled"`
	DeleteDisabled bool            `koanf:"delete_disabled"`
}

// Abilities are the operations the UI may offer for an entity.
type Abilities struct {
	Create bool
	Edit   bool
	Delete bool
}

// Abilities derives the allowed operations from the form and flags.
func (m Meta) Abilities() Abilities {
	hasFields := len(m.Form.Fields) > 0
	return Abilities{
		Create: hasFields && !m.CreateDisabled,
		Edit:   hasFields,
		Delete: !m.DeleteDisabled,
	}
}

// View returns the named view, or the default view when name is empty.
func (m Meta) View(name string) (View, bool) {
	if name == "" {
		name = m.DefaultView
	}
	v, ok := m.Views[name]
	return v, ok
}

// ViewNames returns the view names, sorted.
func (m Meta) ViewNames() []string {
	names := make([]string, 0, len(m.Views))
	for k := range m.Views {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CreateFields returns the form fields shown when creating an item.
func (m Meta) CreateFields() []Field {
	return m.visibleFields(func(f Field) bool { return !f.HideOnCreate })
}

// UpdateFields returns the form fields shown when editing an item.
func (m Meta) UpdateFields() []Field {
	return m.visibleFields(func(f Field) bool { return !f.HideOnUpdate })
}

func (m Meta) visibleFields(keep func(Field) bool) []Field {
	var out []Field
	for _, f := range m.Form.Fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func (m *Meta) applyDefaults() {
	if m.IDKey == "" {
		m.IDKey = DefaultIDKey
	}
	if m.APIType == "" {
		m.APIType = DefaultAPIType
	}
	if len(m.Views) == 0 {
		m.Views = map[string]View{DefaultViewName: {}}
	}
	for name, v := range m.Views {
		v.applyDefaults()
		m.Views[name] = v
	}
	if m.DefaultView == "" {
		if _, ok := m.Views[DefaultViewName]; ok {
			m.DefaultView = DefaultViewName
		} else {
			m.DefaultView = m.ViewNames()[0]
		}
	}
	for i := range m.Form.Fields {
		m.Form.Fields[i].applyDefaults()
	}
}

func (v *View) applyDefaults() {
	if v.Type == "" {
		v.Type = DefaultViewType
	}
	if v.PerPage == 0 {
		v.PerPage = DefaultPerPage
	}
	if len(v.PerPageOptions) == 0 {
		v.PerPageOptions = append([]int(nil), DefaultPerPageOptions...)
	}
	for i := range v.Filters {
		v.Filters[i].applyDefaults()
	}
}

func (f *Field) applyDefaults() {
	if f.Type == "" {
		f.Type = DefaultFieldType
	}
	if f.Label == "" {
		f.Label = LabelFromKey(f.Key)
	}
	if f.Props == nil {
		f.Props = map[string]any{}
	}
}

// LabelFromKey turns "created_at", "created-at" or "createdAt" into
// "Created at".
func LabelFromKey(key string) string {
	var words []string
	var cur []rune
	prevUpper := false
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			if !prevUpper {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prevUpper = unicode.IsUpper(r)
	}
	flush()

	label := strings.Join(words, " ")
	if label == "" {
		return ""
	}
	r := []rune(label)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func (m Meta) clone() Meta {
	c := m
	c.Views = make(map[string]View, len(m.Views))
	for k, v := range m.Views {
		c.Views[k] = v.clone()
	}
	c.Form.Fields = cloneFields(m.Form.Fields)
	c.Form.InlineRelated = append([]string(nil), m.Form.InlineRelated...)
	return c
}

func (v View) clone() View {
	c := v
	c.Columns = append([]string(nil), v.Columns...)
	c.Filters = cloneFields(v.Filters)
	c.PerPageOptions = append([]int(nil), v.PerPageOptions...)
	if v.StaticFilters != nil {
		c.StaticFilters = make(map[string]any, len(v.StaticFilters))
		for k, val := range v.StaticFilters {
			c.StaticFilters[k] = val
		}
	}
	return c
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.Props != nil {
			out[i].Props = make(map[string]any, len(f.Props))
			for k, v := range f.Props {
				out[i].Props[k] = v
			}
		}
	}
	return out
}
