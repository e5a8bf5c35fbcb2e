package recommendations

import (
	"strings"
	"unicode/utf8"
)

// Request bounds taken from the presenter form.
const (
	MaxMonthlyBudget   = 10000
	MaxRequirementsLen = 2000
)

// BusinessSize is the size tier of the requesting business.
type BusinessSize string

const (
	SizeMicro  BusinessSize = "micro"
	SizeSmall  BusinessSize = "small"
	SizeMedium BusinessSize = "medium"
	SizeLarge  BusinessSize = "large"
)

// BusinessSizes lists the known tiers in ascending order.
var BusinessSizes = []BusinessSize{SizeMicro, SizeSmall, SizeMedium, SizeLarge}

// Label is the human-readable tier embedded in prompts.
func (s BusinessSize) Label() string {
	switch s {
	case SizeMicro:
		return "Startup (1-10)"
	case SizeSmall:
		return "Small (11-50)"
	case SizeMedium:
		return "Medium (51-500)"
	case SizeLarge:
		return "Large (500+)"
	default:
		return string(s)
	}
}

// Category is a closed set of tool categories.
type Category string

const (
	CategoryMarketingAutomation Category = "marketing-automation"
	CategoryContentCreation     Category = "content-creation"
	CategoryAnalytics           Category = "analytics"
	CategoryCRM                 Category = "crm"
	CategoryProjectManagement   Category = "project-management"
	CategoryCustomerService     Category = "customer-service"
	CategorySales               Category = "sales"
	CategoryOther               Category = "other"
)

// Categories lists the known categories in form order.
var Categories = []Category{
	CategoryMarketingAutomation,
	CategoryContentCreation,
	CategoryAnalytics,
	CategoryCRM,
	CategoryProjectManagement,
	CategoryCustomerService,
	CategorySales,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryMarketingAutomation: "Marketing Automation",
	CategoryContentCreation:     "Content Creation",
	CategoryAnalytics:           "Analytics",
	CategoryCRM:                 "CRM",
	CategoryProjectManagement:   "Project Management",
	CategoryCustomerService:     "Customer Service",
	CategorySales:               "Sales",
	CategoryOther:               "Other",
}

// Label is the human-readable category embedded in prompts.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Complexity is the ordered technical complexity the business can handle.
type Complexity int

const (
	ComplexityBeginner Complexity = iota + 1
	ComplexityIntermediate
	ComplexityAdvanced
)

// Complexities lists the known levels in ascending order.
var Complexities = []Complexity{ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced}

func (c Complexity) String() string {
	switch c {
	case ComplexityBeginner:
		return "Beginner"
	case ComplexityIntermediate:
		return "Intermediate"
	case ComplexityAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Request captures the user's criteria. Construct it with NewRequest to get a validated value.
type Request struct {
	BusinessSize  BusinessSize
	MonthlyBudget int
	Category      Category
	Complexity    Complexity
	Requirements  string
}

// NewRequest validates the inputs and returns an immutable request value.
func NewRequest(size BusinessSize, budget int, category Category, complexity Complexity, requirements string) (Request, error) {
	req := Request{
		BusinessSize:  size,
		MonthlyBudget: budget,
		Category:      category,
		Complexity:    complexity,
		Requirements:  strings.TrimSpace(requirements),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate reports the first invalid field as a *ValidationError.
func (r Request) Validate() error {
	if !validSize(r.BusinessSize) {
		return &ValidationError{Field: "businessSize", Issue: "must be one of micro, small, medium, large"}
	}
	if r.MonthlyBudget < 0 {
		return &ValidationError{Field: "monthlyBudget", Issue: "must be non-negative"}
	}
	if r.MonthlyBudget > MaxMonthlyBudget {
		return &ValidationError{Field: "monthlyBudget", Issue: "must not exceed 10000"}
	}
	if _, ok := categoryLabels[r.Category]; !ok {
		return &ValidationError{Field: "category", Issue: "unknown category"}
	}
	if r.Complexity < ComplexityBeginner || r.Complexity > ComplexityAdvanced {
		return &ValidationError{Field: "complexity", Issue: "must be beginner, intermediate or advanced"}
	}
	if utf8.RuneCountInString(r.Requirements) > MaxRequirementsLen {
		return &ValidationError{Field: "requirements", Issue: "too long"}
	}
	return nil
}

func validSize(s BusinessSize) bool {
	for _, known := range BusinessSizes {
		if s == known {
			return true
		}
	}
	return false
}

// ParseBusinessSize accepts a tier key or its label ("Small (11-50)"); "startup" maps to micro.
func ParseBusinessSize(raw string) (BusinessSize, error) {
	key := normalizeKey(raw)
	if key == "startup" {
		return SizeMicro, nil
	}
	for _, s := range BusinessSizes {
		if key == string(s) || key == normalizeKey(s.Label()) {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "businessSize", Issue: "unknown business size " + quote(raw)}
}

// ParseCategory accepts a category slug or label.
func ParseCategory(raw string) (Category, error) {
	key := normalizeKey(raw)
	for _, c := range Categories {
		if key == string(c) || key == normalizeKey(c.Label()) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Issue: "unknown category " + quote(raw)}
}

// ParseComplexity accepts a level name in any case.
func ParseComplexity(raw string) (Complexity, error) {
	key := normalizeKey(raw)
	for _, c := range Complexities {
		if key == normalizeKey(c.String()) {
			return c, nil
		}
	}
	return 0, &ValidationError{Field: "complexity", Issue: "unknown complexity " + quote(raw)}
}

// normalizeKey lowercases and collapses any non-alphanumeric run into a single dash.
func normalizeKey(raw string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func quote(s string) string {
	return "\"" + s + "\""
}

// Recommendation is one parsed tool suggestion. Values are copied out of a Set, so
// callers cannot mutate the records it holds.
type Recommendation struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	PricingSummary string   `json:"pricing"`
	BestForSummary string   `json:"bestFor"`
	KeyFeatures    []string `json:"keyFeatures"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	MatchScore     int      `json:"matchScore"`
	WebsiteURL     string   `json:"websiteUrl"`
	// Degraded names the fields that fell back to a default during parsing.
	Degraded []string `json:"degraded,omitempty"`
}

// Field names reported in Recommendation.Degraded.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPricing     = "pricing"
	FieldBestFor     = "bestFor"
	FieldKeyFeatures = "keyFeatures"
	FieldPros        = "pros"
	FieldCons        = "cons"
	FieldMatchScore  = "matchScore"
	FieldWebsiteURL  = "websiteUrl"
)

// UnknownToolName is the placeholder for a block whose name could not be extracted.
const UnknownToolName = "Unknown Tool"

// IsDegraded reports whether any field used a fallback value.
func (r Recommendation) IsDegraded() bool {
	return len(r.Degraded) > 0
}

func (r Recommendation) clone() Recommendation {
	out := r
	out.KeyFeatures = cloneStrings(r.KeyFeatures)
	out.Pros = cloneStrings(r.Pros)
	out.Cons = cloneStrings(r.Cons)
	out.Degraded = cloneStrings(r.Degraded)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append(make([]string, 0, len(in)), in...)
}

// clampScore truncates a score to [0, 100].
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
