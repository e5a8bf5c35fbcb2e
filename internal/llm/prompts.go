package llm

import _ "embed"

var (
	//go:embed prompts/recommend_json.txt
	promptJSON string
	//go:embed prompts/recommend_markdown.txt
	promptMarkdown string
)

// PromptTemplate returns the template for the requested output format and whether it was recognized.
func PromptTemplate(format string) (string, bool) {
	switch format {
	case "json":
		return promptJSON, true
	case "markdown":
		return promptMarkdown, true
	default:
		return promptJSON, false
	}
}
