// Package entity describes backend resources (entities) and the adapter
// contract used to read and write them.
package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	httpclient "github.com/vedsharma/adminkit/internal/http"
)

// Item is one flattened entity object.
type Item map[string]any

// ID returns item[key] as a string, or "" when it is missing.
func (i Item) ID(key string) string {
	v, ok := i[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RelatedItems maps a dotted relationship path to related items by id.
type RelatedItems map[string]map[string]Item

type ListParams struct {
	Offset  int
	Limit   int
	Filters map[string]any
	Include []string
}

// ListData is one page of items. Total is 0 when the backend did not
// report it.
type ListData struct {
	Items  []Item
	Offset int
	Limit  int
	Total  int
}

type ItemParams struct {
	ID      string
	Include []string
}

// Relationships maps a top-level relationship name to the type of the
// resources it links. The type is "" when the server sent no linkage to
// learn it from.
type Relationships map[string]string

type ItemData struct {
	Item          Item
	RelatedItems  RelatedItems
	Relationships Relationships
}

// Adapter talks to one kind of backend API.
type Adapter interface {
	GetList(ctx context.Context, endpoint string, params ListParams) (*ListData, error)
	GetItem(ctx context.Context, endpoint string, params ItemParams) (*ItemData, error)
	DeleteItem(ctx context.Context, endpoint, id string) error

	// SaveItem creates the item when id is empty and updates it otherwise.
	// Keys named in rels are written as relationships, not attributes.
	// Rejected input is reported as *ValidationError.
	SaveItem(ctx context.Context, endpoint string, item Item, id string, rels Relationships) (*ItemData, error)
}

// ValidationError carries per-field messages. The "" key holds messages
// that apply to the whole item.
type ValidationError struct {
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	if text := e.FieldErrorsText(); text != "" {
		return text
	}
	return "validation error"
}

// FieldErrorsText joins all messages into one line, fields in key order.
func (e *ValidationError) FieldErrorsText() string {
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if msgs := e.FieldErrors[k]; len(msgs) > 0 {
			parts = append(parts, strings.Join(msgs, "; "))
		}
	}
	return strings.Join(parts, ". ")
}

// AdapterFactory builds an adapter on top of an HTTP client.
type AdapterFactory func(client *httpclient.Client) Adapter

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]AdapterFactory{}
)

// RegisterAdapter makes an adapter available under apiType. Adapter
// packages call it from init.
func RegisterAdapter(apiType string, factory AdapterFactory) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	adapters[apiType] = factory
}

// NewAdapter builds the adapter registered under apiType.
func NewAdapter(apiType string, client *httpclient.Client) (Adapter, error) {
	adaptersMu.RLock()
	factory, ok := adapters[apiType]
	adaptersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("entity adapter %q is not registered", apiType)
	}
	return factory(client), nil
}
