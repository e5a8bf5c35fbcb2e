package recommendations

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// NoLimit disables the upper bound of FilterByBudget.
const NoLimit = -1

// Set is an immutable, ordered collection of recommendations. Every operation returns a new view.
type Set struct {
	items []Recommendation
}

// NewSet copies recs into a new Set in arrival order.
func NewSet(recs []Recommendation) Set {
	items := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.clone())
	}
	return Set{items: items}
}

// Len returns the number of recommendations.
func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the recommendations.
func (s Set) Items() []Recommendation {
	out := make([]Recommendation, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, r.clone())
	}
	return out
}

// DegradedCount returns how many records used at least one fallback value.
func (s Set) DegradedCount() int {
	n := 0
	for _, r := range s.items {
		if r.IsDegraded() {
			n++
		}
	}
	return n
}

// SortField selects the ordering applied by SortBy.
type SortField string

const (
	SortScore    SortField = "score"
	SortName     SortField = "name"
	SortPrice    SortField = "price"
	SortFeatures SortField = "features"
)

// ParseSortField maps user input to a SortField. Empty input selects SortScore.
func ParseSortField(raw string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return SortScore, nil
	case SortScore, SortName, SortPrice, SortFeatures:
		return f, nil
	default:
		return "", &ValidationError{Field: "sort", Issue: "must be one of score, name, price, features"}
	}
}

// SortBy returns a stably sorted view; ties keep arrival order. Unknown fields sort by score.
func (s Set) SortBy(field SortField) Set {
	items := slices.Clone(s.items)
	var compare func(a, b Recommendation) int
	switch field {
	case SortName:
		compare = func(a, b Recommendation) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortPrice:
		compare = func(a, b Recommendation) int {
			pa, okA := PriceFromSummary(a.PricingSummary)
			pb, okB := PriceFromSummary(b.PricingSummary)
			switch {
			case okA && okB:
				return cmp.Compare(pa, pb)
			case okA:
				return -1
			case okB:
				return 1
			default:
				return 0
			}
		}
	case SortFeatures:
		compare = func(a, b Recommendation) int {
			return cmp.Compare(len(b.KeyFeatures), len(a.KeyFeatures))
		}
	default:
		compare = func(a, b Recommendation) int {
			return cmp.Compare(b.MatchScore, a.MatchScore)
		}
	}
	slices.SortStableFunc(items, compare)
	return Set{items: items}
}

// FilterByBudget keeps records whose monthly price lies in [min, max]. A negative max means no
// upper bound. Records without a recognizable price are dropped.
func (s Set) FilterByBudget(min, max int) Set {
	if min < 0 {
		min = 0
	}
	items := make([]Recommendation, 0, len(s.items))
	for _, r := range s.items {
		price, ok := PriceFromSummary(r.PricingSummary)
		if !ok || price < min || (max >= 0 && price > max) {
			continue
		}
		items = append(items, r)
	}
	return Set{items: items}
}

const yearlyPeriod = `(\s*(?:/\s*(?:yr|year)\b|per\s+(?:year|annum)\b|a\s+year\b|annually\b|yearly\b))?`

var (
	currencyAmount = regexp.MustCompile(`(?i)[$€£]\s*(\d[\d,]*(?:\.\d+)?)` + yearlyPeriod)
	codeAmount     = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:usd|eur|gbp)\b` + yearlyPeriod)
	freeWord       = regexp.MustCompile(`(?i)\bfree\b`)
	trialMention   = regexp.MustCompile(`(?i)\b(?:free[\s-]+)?trials?\b`)
)

// PriceFromSummary derives a whole monthly price from free text. A free plan or tier is 0; a
// free trial is not, so the first currency amount is used instead. Yearly amounts are divided
// by 12 before rounding.
func PriceFromSummary(summary string) (int, bool) {
	if freeWord.MatchString(trialMention.ReplaceAllString(summary, "")) {
		return 0, true
	}
	for _, re := range []*regexp.Regexp{currencyAmount, codeAmount} {
		m := re.FindStringSubmatch(summary)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || v > math.MaxInt32 {
			continue
		}
		if m[2] != "" {
			v /= 12
		}
		return int(math.Round(v)), true
	}
	return 0, false
}

// Table is a presentation-neutral grid: one row per recommendation.
type Table struct {
	Header []string
	Rows   [][]string
}

var tableHeader = []string{"Name", "Match Score", "Pricing", "Best For", "Key Features", "Pros", "Cons", "Website", "Description", "Degraded"}

// Table renders one row per recommendation with list fields joined by "; ".
func (s Set) Table() Table {
	t := Table{Header: slices.Clone(tableHeader), Rows: make([][]string, 0, len(s.items))}
	for _, r := range s.items {
		t.Rows = append(t.Rows, []string{
			r.Name,
			strconv.Itoa(r.MatchScore) + "%",
			r.PricingSummary,
			r.BestForSummary,
			strings.Join(r.KeyFeatures, "; "),
			strings.Join(r.Pros, "; "),
			strings.Join(r.Cons, "; "),
			r.WebsiteURL,
			r.Description,
			strings.Join(r.Degraded, ", "),
		})
	}
	return t
}

// ExportFormat names a serialization supported by Export.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportTSV  ExportFormat = "tsv"
	ExportJSON ExportFormat = "json"
)

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportTSV:
		return "text/tab-separated-values; charset=utf-8"
	case ExportJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

var exportHeader = []string{"name", "score", "pricing", "features", "pros", "cons"}

// ParseExportFormat maps user input to an ExportFormat. Unknown values wrap ErrUnsupportedFormat.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ExportCSV, ExportTSV, ExportJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Export serializes the set. Delimited formats carry the columns name, score, pricing and the
// feature, pro and con counts; JSON carries full records.
func (s Set) Export(format ExportFormat) ([]byte, error) {
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportCSV:
		return s.delimited(',')
	case ExportTSV:
		return s.delimited('\t')
	case ExportJSON:
		return json.MarshalIndent(struct {
			Recommendations []Recommendation `json:"recommendations"`
		}{Recommendations: s.Items()}, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (s Set) delimited(comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range s.items {
		row := []string{
			r.Name,
			strconv.Itoa(r.MatchScore),
			r.PricingSummary,
			strconv.Itoa(len(r.KeyFeatures)),
			strconv.Itoa(len(r.Pros)),
			strconv.Itoa(len(r.Cons)),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
