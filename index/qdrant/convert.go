package qdrant

import (
	"github.com/poiesic/brandmatch/core"
	"github.com/qdrant/go-client/qdrant"
)

// toFilter converts a FilterSpec into Must conditions. It returns nil for a
// nil or empty spec so the query carries no filter.
func toFilter(spec *core.FilterSpec) *qdrant.Filter {
	if spec.IsEmpty() {
		return nil
	}

	must := make([]*qdrant.Condition, 0, spec.Len())
	for _, p := range spec.Predicates {
		if c := toCondition(p); c != nil {
			must = append(must, c)
		}
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func toCondition(p core.Predicate) *qdrant.Condition {
	field := string(p.Field)
	value := float64(p.Number)

	switch p.Op {
	case core.OpEq:
		switch p.Field {
		case core.FieldFollowers, core.FieldFounded:
			return qdrant.NewMatchInt(field, p.Number)
		default:
			return qdrant.NewMatchKeyword(field, p.Text)
		}
	case core.OpGte:
		return qdrant.NewRange(field, &qdrant.Range{Gte: &value})
	case core.OpLte:
		return qdrant.NewRange(field, &qdrant.Range{Lte: &value})
	}
	return nil
}

func toPayload(entry *core.IndexEntry) (map[string]*qdrant.Value, error) {
	m := entry.Metadata
	fields := map[string]any{
		payloadID:   entry.ID,
		payloadName: m.Name,
	}
	if m.Category != nil {
		fields[payloadCategory] = *m.Category
	}
	if m.Description != nil {
		fields[payloadDescription] = *m.Description
	}
	if m.Followers != nil {
		fields[payloadFollowers] = *m.Followers
	}
	if m.Region != nil {
		fields[payloadRegion] = *m.Region
	}
	if m.Founded != nil {
		fields[payloadFounded] = *m.Founded
	}
	if m.PriceLevel != nil {
		fields[payloadPriceLevel] = *m.PriceLevel
	}
	return qdrant.TryValueMap(fields)
}

// fromPayload rebuilds metadata from a point payload and returns the brand id.
// Fields holding an unexpected value type are treated as absent.
func fromPayload(payload map[string]*qdrant.Value) (core.Metadata, string) {
	var m core.Metadata
	m.Name, _ = stringValue(payload[payloadName])
	m.Category = optString(payload[payloadCategory])
	m.Description = optString(payload[payloadDescription])
	m.Followers = optInt64(payload[payloadFollowers])
	m.Region = optString(payload[payloadRegion])
	if founded := optInt64(payload[payloadFounded]); founded != nil {
		year := int(*founded)
		m.Founded = &year
	}
	m.PriceLevel = optString(payload[payloadPriceLevel])
	id, _ := stringValue(payload[payloadID])
	return m, id
}

func stringValue(v *qdrant.Value) (string, bool) {
	if kind, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
		return kind.StringValue, true
	}
	return "", false
}

func optString(v *qdrant.Value) *string {
	s, ok := stringValue(v)
	if !ok {
		return nil
	}
	return &s
}

func optInt64(v *qdrant.Value) *int64 {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_IntegerValue:
		n := kind.IntegerValue
		return &n
	case *qdrant.Value_DoubleValue:
		n := int64(kind.DoubleValue)
		return &n
	}
	return nil
}
