package recommendations

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name string, score int, pricing string, features ...string) Recommendation {
	return Recommendation{
		Name:           name,
		PricingSummary: pricing,
		KeyFeatures:    append([]string{}, features...),
		Pros:           []string{},
		Cons:           []string{},
		MatchScore:     score,
	}
}

func names(s Set) []string {
	out := []string{}
	for _, r := range s.Items() {
		out = append(out, r.Name)
	}
	return out
}

func TestSortByScoreIsStable(t *testing.T) {
	set := NewSet([]Recommendation{
		rec("low", 42, ""),
		rec("first-90", 90, ""),
		rec("second-90", 90, ""),
	})

	sorted := set.SortBy(SortScore)

	assert.Equal(t, []string{"first-90", "second-90", "low"}, names(sorted))
	assert.Equal(t, []string{"low", "first-90", "second-90"}, names(set), "original set must not change")
}

func TestSortByOtherFields(t *testing.T) {
	set := NewSet([]Recommendation{
		rec("zapier", 70, "$19.99/month", "a"),
		rec("Asana", 80, "Contact sales", "a", "b", "c"),
		rec("canva", 60, "Free plan available", "a", "b"),
		rec("Buffer", 50, "$6 per channel"),
	})

	assert.Equal(t, []string{"Asana", "Buffer", "canva", "zapier"}, names(set.SortBy(SortName)))
	assert.Equal(t, []string{"canva", "Buffer", "zapier", "Asana"}, names(set.SortBy(SortPrice)))
	assert.Equal(t, []string{"Asana", "canva", "zapier", "Buffer"}, names(set.SortBy(SortFeatures)))
	assert.Equal(t, names(set.SortBy(SortScore)), names(set.SortBy(SortField("bogus"))))
}

func TestParseSortField(t *testing.T) {
	got, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortScore, got)

	got, err = ParseSortField(" Price ")
	require.NoError(t, err)
	assert.Equal(t, SortPrice, got)

	_, err = ParseSortField("rating")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPriceFromSummary(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Free", 0, true},
		{"Free plan; Pro $49/month", 0, true},
		{"$49/month", 49, true},
		{"Starts at $ 1,200 per month", 1200, true},
		{"€15.50 per user", 16, true},
		{"99 USD monthly", 99, true},
		{"Contact sales", 0, false},
		{"", 0, false},
		{"freemium", 0, false},
		{"Free trial, then $99/month", 99, true},
		{"14-day free trial; plans from $49/mo", 49, true},
		{"Free-trial available, $30 per seat", 30, true},
		{"Trial only", 0, false},
		{"Free tier; trial of Pro at $20/month", 0, true},
		{"Starts at $1,200/year", 100, true},
		{"$99 per year", 8, true},
		{"£600 annually", 50, true},
		{"240 USD/yr", 20, true},
	}
	for _, tc := range cases {
		got, ok := PriceFromSummary(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("PriceFromSummary(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFilterByBudget(t *testing.T) {
	set := NewSet([]Recommendation{
		rec("free", 50, "Free"),
		rec("cheap", 60, "$10/month"),
		rec("mid", 70, "$100/month"),
		rec("pricey", 80, "$1000/month"),
		rec("unknown", 90, "Contact sales"),
		rec("trial", 95, "Free trial, then $99/month"),
		rec("annual", 85, "Starts at $1,200/year"),
	})

	assert.Equal(t, []string{"free", "cheap", "mid", "trial", "annual"}, names(set.FilterByBudget(0, 100)))
	assert.Equal(t, []string{"free", "cheap"}, names(set.FilterByBudget(0, 50)))
	assert.Equal(t, []string{"mid", "pricey", "trial", "annual"}, names(set.FilterByBudget(50, NoLimit)))
	assert.Equal(t, 7, set.Len())
}

func TestFilterByBudgetIsIdempotent(t *testing.T) {
	set := NewSet([]Recommendation{
		rec("a", 10, "$5"),
		rec("b", 20, "$500"),
		rec("c", 30, "Free"),
		rec("d", 40, "n/a"),
	})
	for _, bounds := range [][2]int{{0, 10}, {1, 1000}, {0, NoLimit}, {600, 700}} {
		once := set.FilterByBudget(bounds[0], bounds[1])
		twice := once.FilterByBudget(bounds[0], bounds[1])
		if diff := cmp.Diff(once.Items(), twice.Items()); diff != "" {
			t.Fatalf("filter %v not idempotent (-once +twice):\n%s", bounds, diff)
		}
	}
}

func TestSetItemsAreCopies(t *testing.T) {
	src := []Recommendation{rec("a", 10, "", "feature")}
	set := NewSet(src)
	src[0].KeyFeatures[0] = "mutated"

	items := set.Items()
	items[0].KeyFeatures[0] = "mutated again"
	items[0].Name = "changed"

	assert.Equal(t, "feature", set.Items()[0].KeyFeatures[0])
	assert.Equal(t, "a", set.Items()[0].Name)
}

func TestTable(t *testing.T) {
	r := rec("Tool", 77, "$5", "f1", "f2")
	r.Pros = []string{"p1"}
	r.Degraded = []string{FieldBestFor, FieldWebsiteURL}
	table := NewSet([]Recommendation{r}).Table()

	require.Len(t, table.Rows, 1)
	require.Len(t, table.Rows[0], len(table.Header))
	row := map[string]string{}
	for i, h := range table.Header {
		row[h] = table.Rows[0][i]
	}
	assert.Equal(t, "Tool", row["Name"])
	assert.Equal(t, "77%", row["Match Score"])
	assert.Equal(t, "f1; f2", row["Key Features"])
	assert.Equal(t, "p1", row["Pros"])
	assert.Equal(t, "bestFor, websiteUrl", row["Degraded"])
}

func TestExportDelimited(t *testing.T) {
	a := rec("Tool, Inc", 90, "$10/month", "x", "y")
	a.Pros = []string{"p"}
	a.Cons = []string{"c1", "c2", "c3"}
	set := NewSet([]Recommendation{a, rec("Other", 40, "Free")})

	body, err := set.Export(ExportCSV)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "score", "pricing", "features", "pros", "cons"},
		{"Tool, Inc", "90", "$10/month", "2", "1", "3"},
		{"Other", "40", "Free", "0", "0", "0"},
	}, records)

	body, err = set.Export(ExportTSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name\tscore\tpricing\tfeatures\tpros\tcons", lines[0])
	assert.Equal(t, "Tool, Inc\t90\t$10/month\t2\t1\t3", lines[1])
}

func TestExportJSONParsesBack(t *testing.T) {
	a := rec("Tool", 90, "$10/month", "x")
	a.Description = "d"
	a.BestForSummary = "b"
	a.WebsiteURL = "https://tool.example"
	set := NewSet([]Recommendation{a})

	body, err := set.Export(ExportJSON)
	require.NoError(t, err)
	assert.True(t, json.Valid(body))

	if diff := cmp.Diff(set.Items(), Parse(string(body))); diff != "" {
		t.Fatalf("json export did not parse back (-want +got):\n%s", diff)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := NewSet(nil).Export(ExportFormat("xlsx"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseExportFormat(t *testing.T) {
	got, err := ParseExportFormat(" TSV ")
	require.NoError(t, err)
	assert.Equal(t, ExportTSV, got)

	_, err = ParseExportFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
