// Package store holds client-side state for entity lists and single
// entity items, loaded through an entity.Adapter.
package store

import (
	"errors"

	"github.com/vedsharma/adminkit/internal/entity"
	httpclient "github.com/vedsharma/adminkit/internal/http"
)

var (
	// ErrSuperseded is returned when a newer query was started before this
	// one finished. State is left as the newer query sets it.
	ErrSuperseded = errors.New("query superseded by a newer one")

	ErrNoEntity = errors.New("entity not set")
)

// AdapterResolver returns the adapter for an entity APIType.
type AdapterResolver func(apiType string) (entity.Adapter, error)

// RegisteredAdapters resolves adapters from the entity registry, all
// sharing client.
func RegisteredAdapters(client *httpclient.Client) AdapterResolver {
	return func(apiType string) (entity.Adapter, error) {
		return entity.NewAdapter(apiType, client)
	}
}
