// Package jsonapi implements entity.Adapter for JSON:API backends.
package jsonapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vedsharma/adminkit/internal/entity"
	httpclient "github.com/vedsharma/adminkit/internal/http"
	"github.com/vedsharma/adminkit/internal/logging"
)

const (
	// APIType is the entity.Meta APIType served by this adapter.
	APIType = "jsonApi"

	MediaType = "application/vnd.api+json"

	// MaxRelationDepth bounds relationship resolution so that cyclic
	// included graphs terminate.
	MaxRelationDepth = 10

	attributesPointer = "/data/attributes/"
)

// Meta key spellings, highest priority first.
var (
	totalKeys  = []string{"total", "total-count", "totalCount", "total_count", "count"}
	offsetKeys = []string{"offset", "page-offset", "pageOffset", "page_offset"}
	limitKeys  = []string{"limit", "per-page", "perPage", "per_page", "page-size", "pageSize"}
)

func init() {
	entity.RegisterAdapter(APIType, func(client *httpclient.Client) entity.Adapter {
		return New(client)
	})
}

// Adapter is a JSON:API client for entity endpoints.
type Adapter struct {
	http *httpclient.Client
}

// New returns an adapter sending requests through client.
func New(client *httpclient.Client) *Adapter {
	return &Adapter{http: client}
}

type resource struct {
	ID            any                     `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
}

type linkage struct {
	ID   any    `json:"id"`
	Type string `json:"type"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Source struct {
		Pointer string `json:"pointer"`
	} `json:"source"`
}

type document struct {
	Data     json.RawMessage `json:"data"`
	Included []resource      `json:"included"`
	Meta     map[string]any  `json:"meta"`
	Errors   []apiError      `json:"errors"`
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type": MediaType,
		"Accept":       MediaType,
	}
}

// GetList fetches one page of items.
func (a *Adapter) GetList(ctx context.Context, endpoint string, params entity.ListParams) (*entity.ListData, error) {
	res, err := a.http.Get(ctx, withQuery(endpoint, listQuery(params)), headers())
	if err != nil {
		return nil, err
	}

	var doc document
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse list response: %w", err)
	}
	var data []resource
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to parse list data: %w", err)
		}
	}

	out := &entity.ListData{
		Items:  make([]entity.Item, 0, len(data)),
		Offset: params.Offset,
		Limit:  params.Limit,
	}
	for _, r := range data {
		out.Items = append(out.Items, flatten(r))
	}
	if v, ok := metaNumber(doc.Meta, totalKeys); ok {
		out.Total = v
	}
	if v, ok := metaNumber(doc.Meta, offsetKeys); ok {
		out.Offset = v
	}
	if v, ok := metaNumber(doc.Meta, limitKeys); ok {
		out.Limit = v
	}

	logging.Ctx(ctx).Debug().
		Str("endpoint", endpoint).
		Int("items", len(out.Items)).
		Int("total", out.Total).
		Msg("List loaded")
	return out, nil
}

// GetItem fetches one item and resolves its included relationships.
func (a *Adapter) GetItem(ctx context.Context, endpoint string, params entity.ItemParams) (*entity.ItemData, error) {
	q := ""
	if len(params.Include) > 0 {
		q = includeQuery(params.Include)
	}
	res, err := a.http.Get(ctx, withQuery(itemURL(endpoint, params.ID), q), headers())
	if err != nil {
		return nil, err
	}
	return parseItem(res)
}

// SaveItem POSTs a new item or PATCHes an existing one. Keys listed in
// rels go to data.relationships as resource linkage; inlined objects are
// collapsed back to their ids.
func (a *Adapter) SaveItem(ctx context.Context, endpoint string, item entity.Item, id string, rels entity.Relationships) (*entity.ItemData, error) {
	attributes := make(map[string]any, len(item))
	relationships := map[string]any{}
	for k, v := range item {
		if k == "id" {
			continue
		}
		typ, isRel := rels[k]
		if !isRel {
			attributes[k] = v
			continue
		}
		if data, ok := relationshipData(v, typ); ok {
			relationships[k] = map[string]any{"data": data}
		} else {
			logging.Ctx(ctx).Debug().Str("relationship", k).Msg("Skipping relationship without a known type")
		}
	}
	data := map[string]any{"attributes": attributes}
	if len(relationships) > 0 {
		data["relationships"] = relationships
	}
	if t := resourceType(endpoint); t != "" {
		data["type"] = t
	}

	target, method := endpoint, http.MethodPost
	if id != "" {
		target, method = itemURL(endpoint, id), http.MethodPatch
		data["id"] = id
	}

	res, err := a.http.Fetch(ctx, target, method, map[string]any{"data": data}, headers(), nil)
	if err != nil {
		if verr := validationError(err); verr != nil {
			return nil, verr
		}
		return nil, err
	}

	if len(res.Body) == 0 {
		saved := make(entity.Item, len(item)+1)
		for k, v := range item {
			saved[k] = v
		}
		if id != "" {
			saved["id"] = id
		}
		return &entity.ItemData{Item: saved, RelatedItems: entity.RelatedItems{}, Relationships: rels}, nil
	}
	return parseItem(res)
}

// DeleteItem deletes the item with id.
func (a *Adapter) DeleteItem(ctx context.Context, endpoint, id string) error {
	_, err := a.http.Delete(ctx, itemURL(endpoint, id), nil, headers())
	return err
}

func parseItem(res *httpclient.Response) (*entity.ItemData, error) {
	var doc document
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse item response: %w", err)
	}
	var data resource
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse item data: %w", err)
	}

	r := newResolver(doc.Included)
	item := flatten(data)
	r.resolve(data, item, "", 0)
	return &entity.ItemData{Item: item, RelatedItems: r.related, Relationships: r.rels}, nil
}

// relationshipData builds the linkage for a relationship value: nil, an
// id, an inlined object, or a slice of those. Linkage that needs a type is
// skipped when typ is unknown.
func relationshipData(v any, typ string) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []any:
		return linkageList(t, typ)
	case []entity.Item:
		items := make([]any, len(t))
		for i, it := range t {
			items[i] = it
		}
		return linkageList(items, typ)
	}
	id := linkedID(v)
	if id == "" {
		return nil, true
	}
	if typ == "" {
		return nil, false
	}
	return linkage{ID: id, Type: typ}, true
}

func linkageList(values []any, typ string) (any, bool) {
	out := make([]linkage, 0, len(values))
	for _, v := range values {
		id := linkedID(v)
		if id == "" {
			continue
		}
		if typ == "" {
			return nil, false
		}
		out = append(out, linkage{ID: id, Type: typ})
	}
	return out, true
}

func linkedID(v any) string {
	switch t := v.(type) {
	case entity.Item:
		return idString(t["id"])
	case map[string]any:
		return idString(t["id"])
	default:
		return idString(v)
	}
}

func flatten(r resource) entity.Item {
	item := make(entity.Item, len(r.Attributes)+1)
	item["id"] = idString(r.ID)
	for k, v := range r.Attributes {
		item[k] = v
	}
	return item
}

type resourceKey struct {
	typ string
	id  string
}

type resolver struct {
	included map[resourceKey]resource
	related  entity.RelatedItems
	rels     entity.Relationships
}

func newResolver(included []resource) *resolver {
	r := &resolver{
		included: make(map[resourceKey]resource, len(included)),
		related:  entity.RelatedItems{},
		rels:     entity.Relationships{},
	}
	for _, inc := range included {
		r.included[resourceKey{inc.Type, idString(inc.ID)}] = inc
	}
	return r
}

// resolve replaces each relationship of res with the related id (to-one)
// or ids (to-many) in item, and records the included objects under their
// dotted path.
func (r *resolver) resolve(res resource, item entity.Item, prefix string, depth int) {
	for name, rel := range res.Relationships {
		if len(rel.Data) == 0 {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		var links []linkage
		switch trimmed := strings.TrimSpace(string(rel.Data)); {
		case trimmed == "null":
			item[name] = nil
			r.record(prefix, name, "")
			continue
		case strings.HasPrefix(trimmed, "["):
			if err := json.Unmarshal(rel.Data, &links); err != nil {
				continue
			}
			ids := make([]any, len(links))
			for i, l := range links {
				ids[i] = idString(l.ID)
			}
			item[name] = ids
			typ := ""
			if len(links) > 0 {
				typ = links[0].Type
			}
			r.record(prefix, name, typ)
		default:
			var l linkage
			if err := json.Unmarshal(rel.Data, &l); err != nil {
				continue
			}
			links = []linkage{l}
			item[name] = idString(l.ID)
			r.record(prefix, name, l.Type)
		}

		if depth >= MaxRelationDepth {
			continue
		}
		for _, l := range links {
			id := idString(l.ID)
			inc, ok := r.included[resourceKey{l.Type, id}]
			if !ok {
				continue
			}
			if r.related[path] == nil {
				r.related[path] = map[string]entity.Item{}
			}
			if _, done := r.related[path][id]; done {
				continue
			}
			relItem := flatten(inc)
			r.related[path][id] = relItem
			r.resolve(inc, relItem, path, depth+1)
		}
	}
}

// record notes a relationship of the root resource.
func (r *resolver) record(prefix, name, typ string) {
	if prefix != "" {
		return
	}
	if r.rels[name] == "" {
		r.rels[name] = typ
	}
}

// validationError converts a 4xx response with a JSON:API errors array.
func validationError(err error) *entity.ValidationError {
	var reqErr *httpclient.RequestError
	if !errors.As(err, &reqErr) || reqErr.Response == nil {
		return nil
	}
	if status := reqErr.Response.Status; status < 400 || status >= 500 {
		return nil
	}

	var doc document
	if reqErr.Response.Decode(&doc) != nil || len(doc.Errors) == 0 {
		return nil
	}

	verr := &entity.ValidationError{FieldErrors: map[string][]string{}}
	for _, e := range doc.Errors {
		key := fieldKey(e.Source.Pointer)
		msg := e.Detail
		if msg == "" {
			msg = e.Title
		}
		verr.FieldErrors[key] = append(verr.FieldErrors[key], msg)
	}
	return verr
}

// fieldKey maps "/data/attributes/address/city" to "address.city".
func fieldKey(pointer string) string {
	key := strings.TrimPrefix(pointer, attributesPointer)
	key = strings.TrimPrefix(key, "/")
	return strings.ReplaceAll(key, "/", ".")
}

// metaNumber returns the first parsable counter, looking at meta before
// meta.page and at keys in order.
func metaNumber(meta map[string]any, keys []string) (int, bool) {
	sources := []map[string]any{meta}
	if page, ok := meta["page"].(map[string]any); ok {
		sources = append(sources, page)
	}
	for _, src := range sources {
		for _, k := range keys {
			if v, ok := toNumber(src[k]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func toNumber(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	// Out of range values would wrap on conversion.
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func listQuery(p entity.ListParams) string {
	var parts []string
	if p.Offset > 0 {
		parts = append(parts, "page[offset]="+strconv.Itoa(p.Offset))
	}
	if p.Limit > 0 {
		parts = append(parts, "page[limit]="+strconv.Itoa(p.Limit))
	}

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("filter[%s]=%s", k, encodeURIComponent(fmt.Sprint(p.Filters[k]))))
	}

	if len(p.Include) > 0 {
		parts = append(parts, includeQuery(p.Include))
	}
	return strings.Join(parts, "&")
}

func includeQuery(include []string) string {
	enc := make([]string, len(include))
	for i, s := range include {
		enc[i] = encodeURIComponent(s)
	}
	return "include=" + strings.Join(enc, ",")
}

func withQuery(u, q string) string {
	if q == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + q
	}
	return u + "?" + q
}

func itemURL(endpoint, id string) string {
	return strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(id)
}

// resourceType guesses the JSON:API type from the last endpoint segment.
func resourceType(endpoint string) string {
	p := endpoint
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

var uriComponentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s like the ECMAScript function of that name.
func encodeURIComponent(s string) string {
	return uriComponentUnescape.Replace(url.QueryEscape(s))
}
