package recommendations

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionDescription
	sectionPricing
	sectionBestFor
	sectionFeatures
	sectionPros
	sectionCons
	sectionMixed
	sectionScore
	sectionWebsite
)

type itemKind int

const (
	itemNeutral itemKind = iota
	itemPro
	itemCon
)

// bulletMarkers maps a leading list marker to the kind it implies in a mixed list.
var bulletMarkers = []struct {
	prefix string
	kind   itemKind
}{
	{"- ", itemNeutral},
	{"* ", itemNeutral},
	{"• ", itemNeutral},
	{"✓ ", itemPro},
	{"✔ ", itemPro},
	{"+ ", itemPro},
	{"× ", itemCon},
	{"✗ ", itemCon},
	{"✘ ", itemCon},
}

var (
	enumerationPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	percentBefore     = regexp.MustCompile(`(?:^|[^\d.])(-?\d+(?:\.\d+)?)\s*%`)
	percentAfter      = regexp.MustCompile(`%\s*(-?\d+(?:\.\d+)?)`)
	outOfHundred      = regexp.MustCompile(`(?i)(?:^|[^\d.])(-?\d+(?:\.\d+)?)\s*(?:/|out\s+of)\s*100\b`)
	digitRun          = regexp.MustCompile(`\d+`)
)

type mdSection struct {
	title string
	body  []string
}

type mdBlock struct {
	heading  string
	preamble []string
	sections []mdSection
}

func parseMarkdown(raw string) []Recommendation {
	blocks := splitBlocks(raw)
	out := make([]Recommendation, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.recommendation())
	}
	return out
}

// splitBlocks groups lines under top-level headings. Text before the first heading is dropped.
func splitBlocks(raw string) []mdBlock {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var blocks []mdBlock
	var cur *mdBlock
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if title, ok := headingText(trimmed, 1); ok {
			blocks = append(blocks, mdBlock{heading: title})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if title, ok := subheadingText(trimmed); ok {
			cur.sections = append(cur.sections, mdSection{title: title})
			continue
		}
		if n := len(cur.sections); n > 0 {
			cur.sections[n-1].body = append(cur.sections[n-1].body, trimmed)
		} else {
			cur.preamble = append(cur.preamble, trimmed)
		}
	}
	return blocks
}

// headingText reports whether line is a heading of exactly the given level.
func headingText(line string, level int) (string, bool) {
	marker := strings.Repeat("#", level)
	if !strings.HasPrefix(line, marker) {
		return "", false
	}
	rest := line[level:]
	if rest == "" {
		return "", true
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// subheadingText accepts level two and deeper headings.
func subheadingText(line string) (string, bool) {
	if !strings.HasPrefix(line, "##") {
		return "", false
	}
	rest := strings.TrimLeft(line, "#")
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func (b mdBlock) recommendation() Recommendation {
	rec := Recommendation{
		Name:        cleanName(b.heading),
		KeyFeatures: []string{},
		Pros:        []string{},
		Cons:        []string{},
	}
	seen := map[string]bool{}
	var scoreText []string

	for _, s := range b.sections {
		title, inline := splitTitle(s.title)
		body := s.body
		if inline != "" {
			body = append([]string{inline}, body...)
		}

		switch identify(title) {
		case sectionDescription:
			setText(&rec.Description, body, FieldDescription, seen)
		case sectionPricing:
			setText(&rec.PricingSummary, body, FieldPricing, seen)
		case sectionBestFor:
			setText(&rec.BestForSummary, body, FieldBestFor, seen)
		case sectionFeatures:
			rec.KeyFeatures = append(rec.KeyFeatures, itemTexts(listItems(body))...)
			seen[FieldKeyFeatures] = true
		case sectionPros:
			rec.Pros = append(rec.Pros, itemTexts(listItems(body))...)
			seen[FieldPros] = true
		case sectionCons:
			rec.Cons = append(rec.Cons, itemTexts(listItems(body))...)
			seen[FieldCons] = true
		case sectionMixed:
			pros, cons := splitMixed(body)
			rec.Pros = append(rec.Pros, pros...)
			rec.Cons = append(rec.Cons, cons...)
			seen[FieldPros] = true
			seen[FieldCons] = true
		case sectionScore:
			scoreText = append(scoreText, body...)
		case sectionWebsite:
			if !seen[FieldWebsiteURL] {
				rec.WebsiteURL = strings.TrimSpace(strings.Join(body, "\n"))
				seen[FieldWebsiteURL] = rec.WebsiteURL != ""
			}
		}
	}

	if !seen[FieldDescription] {
		setText(&rec.Description, b.preamble, FieldDescription, seen)
	}

	if score, ok := extractScore(strings.Join(scoreText, "\n")); ok {
		rec.MatchScore = score
		seen[FieldMatchScore] = true
	}

	var degraded []string
	if rec.Name == "" {
		rec.Name = UnknownToolName
		degraded = append(degraded, FieldName)
	}
	for _, field := range outputFields[1:] {
		if !seen[field] {
			degraded = append(degraded, field)
		}
	}
	if len(degraded) > 0 {
		rec.Degraded = degraded
	}
	return rec
}

func cleanName(heading string) string {
	name := strings.TrimSpace(heading)
	name = strings.Trim(name, "*_` ")
	name = enumerationPrefix.ReplaceAllString(name, "")
	name = strings.Trim(name, "*_`: ")
	return name
}

// splitTitle separates "Match Score: 95%" into the title and its inline remainder.
func splitTitle(title string) (string, string) {
	title = strings.Trim(title, "*_ ")
	head, rest, ok := strings.Cut(title, ":")
	if !ok {
		return title, ""
	}
	return strings.TrimSpace(head), strings.TrimSpace(strings.Trim(rest, "*_ "))
}

func identify(title string) sectionKind {
	t := strings.ToLower(title)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("score"):
		return sectionScore
	case has("feature"):
		return sectionFeatures
	case has("pricing", "price", "cost"):
		return sectionPricing
	case has("best for", "ideal", "target", "audience"):
		return sectionBestFor
	case has("description", "overview", "summary"):
		return sectionDescription
	case has("website", "url", "link"):
		return sectionWebsite
	case has("pro", "advantage", "strength") && has("con", "disadvantage", "weakness", "limitation"):
		return sectionMixed
	case has("pro", "advantage", "strength"):
		return sectionPros
	case startsWithConMarker(title) || has("con", "drawback", "weakness", "limitation"):
		return sectionCons
	default:
		return sectionUnknown
	}
}

func startsWithConMarker(s string) bool {
	return strings.HasPrefix(s, "×") || strings.HasPrefix(s, "✗") || strings.HasPrefix(s, "✘")
}

// setText fills dst with the section body if it has content and dst is still unset.
func setText(dst *string, body []string, field string, seen map[string]bool) {
	if seen[field] {
		return
	}
	var text string
	if hasBullets(body) {
		text = strings.Join(itemTexts(listItems(body)), "; ")
	} else {
		text = strings.Join(strings.Fields(strings.Join(body, " ")), " ")
	}
	if text == "" {
		return
	}
	*dst = text
	seen[field] = true
}

type listItem struct {
	text string
	kind itemKind
}

func bullet(line string) (string, itemKind, bool) {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m.prefix) {
			return strings.TrimSpace(line[len(m.prefix):]), m.kind, true
		}
	}
	if loc := enumerationPrefix.FindStringIndex(line); loc != nil && loc[1] < len(line) {
		return strings.TrimSpace(line[loc[1]:]), itemNeutral, true
	}
	return "", itemNeutral, false
}

func hasBullets(body []string) bool {
	for _, line := range body {
		if _, _, ok := bullet(line); ok {
			return true
		}
	}
	return false
}

// listItems returns bullet entries, or falls back to splitting plain lines on ", ".
// Plain lines that sit alongside bullets are treated as captions and skipped.
func listItems(body []string) []listItem {
	var items []listItem
	if hasBullets(body) {
		for _, line := range body {
			if text, kind, ok := bullet(line); ok && text != "" {
				items = append(items, listItem{text: text, kind: kind})
			}
		}
		return items
	}
	for _, line := range body {
		if line == "" {
			continue
		}
		for _, part := range splitCommaList(line) {
			items = append(items, listItem{text: part})
		}
	}
	return items
}

func itemTexts(items []listItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.text)
	}
	return out
}

// splitMixed routes entries of a combined pros/cons section. Markers decide the side;
// unmarked entries follow the last "Pros:"/"Cons:" caption, defaulting to pros.
func splitMixed(body []string) (pros, cons []string) {
	pros, cons = []string{}, []string{}
	current := itemPro
	for _, line := range body {
		if line == "" {
			continue
		}
		text, kind, ok := bullet(line)
		if !ok {
			switch caption := strings.ToLower(strings.Trim(line, "*_: ")); {
			case strings.HasPrefix(caption, "pro"):
				current = itemPro
			case strings.HasPrefix(caption, "con"):
				current = itemCon
			}
			continue
		}
		if text == "" {
			continue
		}
		if kind == itemNeutral {
			kind = current
		}
		if kind == itemCon {
			cons = append(cons, text)
		} else {
			pros = append(pros, text)
		}
	}
	return pros, cons
}

func splitCommaList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ", ") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractScore finds a score in free text, clamped to [0, 100]. A number attached to '%' wins,
// then "N/100" or "N out of 100", then a numeric final token, then the first digit run anywhere.
func extractScore(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, re := range []*regexp.Regexp{percentBefore, percentAfter, outOfHundred} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := toScore(m[1]); ok {
				return v, true
			}
		}
	}
	fields := strings.Fields(text)
	if last := strings.Trim(fields[len(fields)-1], ".,;:()[]*"); last != "" {
		if v, ok := toScore(last); ok {
			return v, true
		}
	}
	if m := digitRun.FindString(text); m != "" {
		return toScore(m)
	}
	return 0, false
}

func toScore(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return clampScore(int(math.Max(math.Min(f, 1000), -1000))), true
}
