package recommendations

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

var errNoRecommendations = errors.New("no recommendations in JSON payload")

// Accepted keys per field, in precedence order.
var jsonFieldKeys = map[string][]string{
	FieldName:        {"name", "toolName", "tool"},
	FieldDescription: {"description", "summary"},
	FieldPricing:     {"pricing", "pricingSummary", "price"},
	FieldBestFor:     {"bestFor", "bestForSummary", "best_for", "targetAudience"},
	FieldKeyFeatures: {"keyFeatures", "features", "key_features"},
	FieldPros:        {"pros"},
	FieldCons:        {"cons"},
	FieldMatchScore:  {"matchScore", "match_score", "score"},
	FieldWebsiteURL:  {"websiteUrl", "website", "url", "website_url"},
}

func parseJSON(candidate string) ([]Recommendation, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &top); err != nil {
		return nil, err
	}

	rawList, ok := top["recommendations"]
	if !ok {
		// A bare tool object is accepted as a single recommendation.
		if _, hasName := lookup(top, FieldName); hasName {
			return []Recommendation{fromJSONObject(top)}, nil
		}
		return nil, errNoRecommendations
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawList, &elems); err != nil {
		return nil, err
	}
	out := make([]Recommendation, 0, len(elems))
	for _, elem := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
			continue
		}
		out = append(out, fromJSONObject(obj))
	}
	return out, nil
}

func fromJSONObject(obj map[string]json.RawMessage) Recommendation {
	var rec Recommendation
	degraded := make([]string, 0, 4)
	mark := func(field string) { degraded = append(degraded, field) }

	name, ok := jsonString(obj, FieldName)
	if !ok || strings.TrimSpace(name) == "" {
		name = UnknownToolName
		mark(FieldName)
	}
	rec.Name = name

	textFields := []struct {
		field string
		dst   *string
	}{
		{FieldDescription, &rec.Description},
		{FieldPricing, &rec.PricingSummary},
		{FieldBestFor, &rec.BestForSummary},
	}
	for _, tf := range textFields {
		if v, ok := jsonString(obj, tf.field); ok {
			*tf.dst = v
		} else {
			mark(tf.field)
		}
	}

	listFields := []struct {
		field string
		dst   *[]string
	}{
		{FieldKeyFeatures, &rec.KeyFeatures},
		{FieldPros, &rec.Pros},
		{FieldCons, &rec.Cons},
	}
	for _, lf := range listFields {
		if v, ok := jsonList(obj, lf.field); ok {
			*lf.dst = v
		} else {
			*lf.dst = []string{}
			mark(lf.field)
		}
	}

	if score, ok := jsonScore(obj); ok {
		rec.MatchScore = score
	} else {
		mark(FieldMatchScore)
	}

	if v, ok := jsonString(obj, FieldWebsiteURL); ok {
		rec.WebsiteURL = v
	} else {
		mark(FieldWebsiteURL)
	}

	if len(degraded) > 0 {
		rec.Degraded = degraded
	}
	return rec
}

func lookup(obj map[string]json.RawMessage, field string) (json.RawMessage, bool) {
	for _, key := range jsonFieldKeys[field] {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if isNull(raw) {
			continue
		}
		return raw, true
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// jsonString decodes a string value; scalars of other types are kept as their JSON text.
func jsonString(obj map[string]json.RawMessage, field string) (string, bool) {
	raw, ok := lookup(obj, field)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return "", false
	}
	return string(trimmed), true
}

// jsonList decodes an array of strings, or splits a single string on ", ".
func jsonList(obj map[string]json.RawMessage, field string) ([]string, bool) {
	raw, ok := lookup(obj, field)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if isNull(item) {
				continue
			}
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, s)
				continue
			}
			out = append(out, string(bytes.TrimSpace(item)))
		}
		return out, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return splitCommaList(s), true
	}
	return nil, false
}

// jsonScore accepts a number or a string such as "95%".
func jsonScore(obj map[string]json.RawMessage) (int, bool) {
	raw, ok := lookup(obj, FieldMatchScore)
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return clampScore(int(math.Max(math.Min(f, 1000), -1000))), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extractScore(s)
	}
	return 0, false
}
