package recommendations

import "strings"

// SourceFormat is the shape a raw response was classified as.
type SourceFormat string

const (
	SourceJSON     SourceFormat = "json"
	SourceMarkdown SourceFormat = "markdown"
	SourceNone     SourceFormat = "none"
)

// Parse converts a raw model response into recommendations. It never fails: fields that
// cannot be extracted get documented defaults and are listed in Recommendation.Degraded.
func Parse(raw string) []Recommendation {
	recs, _ := ParseWithFormat(raw)
	return recs
}

// ParseWithFormat is Parse that also reports which mode produced the records.
// JSON is attempted first, then markdown; if both yield nothing the result is empty.
func ParseWithFormat(raw string) ([]Recommendation, SourceFormat) {
	if candidate, ok := jsonCandidate(raw); ok {
		if recs, err := parseJSON(candidate); err == nil && len(recs) > 0 {
			return recs, SourceJSON
		}
	}
	if recs := parseMarkdown(raw); len(recs) > 0 {
		return recs, SourceMarkdown
	}
	return []Recommendation{}, SourceNone
}

// jsonCandidate returns the text between the first '{' and the last '}'.
func jsonCandidate(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
