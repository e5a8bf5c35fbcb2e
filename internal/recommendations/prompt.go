package recommendations

import (
	"fmt"
	"strconv"
	"strings"

	"tool-recommender/internal/llm"
)

// PromptFormat selects the output layout the model is instructed to produce.
type PromptFormat string

const (
	PromptJSON     PromptFormat = "json"
	PromptMarkdown PromptFormat = "markdown"
)

// ParsePromptFormat maps a config value to a PromptFormat, defaulting to JSON.
func ParsePromptFormat(raw string) PromptFormat {
	if strings.EqualFold(strings.TrimSpace(raw), string(PromptMarkdown)) {
		return PromptMarkdown
	}
	return PromptJSON
}

// outputFields is the fixed order of fields requested in JSON mode.
var outputFields = []string{
	FieldName,
	FieldDescription,
	FieldPricing,
	FieldBestFor,
	FieldKeyFeatures,
	FieldPros,
	FieldCons,
	FieldMatchScore,
	FieldWebsiteURL,
}

// markdownSections is the fixed order of second-level sections requested in markdown mode.
var markdownSections = []string{
	"Description",
	"Pricing",
	"Best For",
	"Key Features",
	"Pros",
	"Cons",
	"Match Score",
	"Website",
}

// BuildPrompt renders the instruction sent upstream. It is a pure function of its inputs.
func BuildPrompt(req Request, format PromptFormat) string {
	// Unknown formats get the JSON template.
	template, _ := llm.PromptTemplate(string(format))

	requirements := req.Requirements
	if strings.TrimSpace(requirements) == "" {
		requirements = "N/A"
	}

	replacer := strings.NewReplacer(
		"{{BUSINESS_SIZE}}", req.BusinessSize.Label(),
		"{{MONTHLY_BUDGET}}", strconv.Itoa(req.MonthlyBudget),
		"{{CATEGORY}}", req.Category.Label(),
		"{{COMPLEXITY}}", req.Complexity.String(),
		"{{REQUIREMENTS}}", requirements,
		"{{FIELD_LIST}}", numbered(outputFields, ""),
		"{{SECTION_LIST}}", numbered(markdownSections, "## "),
	)
	return strings.TrimSpace(replacer.Replace(template))
}

func numbered(items []string, prefix string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s%s", i+1, prefix, item)
	}
	return b.String()
}
