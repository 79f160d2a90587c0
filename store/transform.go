package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledgewood/tenantstore/internal/entityid"
)

// housekeepingAttrs are stripped from a sibling record before it is spliced
// into its parent.
var housekeepingAttrs = []string{
	attrCreatedAt, attrCreatedBy, attrUpdatedAt, attrUpdatedBy,
	attrTenantID, "TenantResourceId", "Resource", attrEntityItemID,
}

// resolveReferences applies the GetAndTransform enrichment to each item in
// place. Items are processed independently; there is no batching of the
// sibling lookups across items.
func (a *Accessor) resolveReferences(ctx context.Context, items []Item) ([]Item, error) {
	for _, item := range items {
		marker, ok := item[attrTransform]
		if !ok {
			continue
		}
		for _, attr := range stringList(marker) {
			if err := a.resolveReference(ctx, item, attr); err != nil {
				return nil, err
			}
		}
	}
	return items, nil
}

// resolveReference replaces one foreign-key attribute with the sibling
// record it points at, keyed by the sibling's own prefix. A dangling
// reference leaves the item untouched.
func (a *Accessor) resolveReference(ctx context.Context, item Item, attr string) error {
	ref, _ := item[attr].(string)
	if ref == "" {
		return nil
	}

	sibling, err := a.Get(ctx, ref)
	if err != nil {
		return err
	}
	id, _ := sibling[attrEntityItemID].(string)
	if id == "" {
		return nil
	}

	embedded := make(Item, len(sibling))
	for k, v := range sibling {
		embedded[k] = v
	}
	embedded["Id"] = id
	for _, h := range housekeepingAttrs {
		delete(embedded, h)
	}

	delete(item, attr)
	item[entityid.Prefix(id)] = embedded
	return nil
}

// applyPostFilters runs the in-memory filter pass over the enriched result
// set. Only attribute paths of exactly two segments are evaluated. An item
// matching several values of one list filter is kept once per matching
// value, so duplicates are possible and left for callers to tolerate.
func applyPostFilters(items []Item, filters map[string]FilterValue) []Item {
	matched := []Item{}

	paths := make([]string, 0, len(filters))
	for p := range filters {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		segs := strings.Split(path, ".")
		if len(segs) != 2 {
			continue
		}
		for _, want := range filters[path].Values() {
			for _, item := range items {
				if got, ok := nestedValue(item, segs[0], segs[1]); ok && got == want {
					matched = append(matched, item)
				}
			}
		}
	}
	return matched
}

func nestedValue(item Item, outer, inner string) (string, bool) {
	var nested map[string]any
	switch v := item[outer].(type) {
	case Item:
		nested = v
	case map[string]any:
		nested = v
	default:
		return "", false
	}
	v, ok := nested[inner]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

func stringList(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
