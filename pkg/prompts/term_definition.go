// Package prompts builds the LLM prompts used for glossary term generation.
package prompts

import (
	"fmt"
	"strings"
)

// SystemMessage frames every term generation request.
const SystemMessage = "You are a data steward helping to create a business glossary. " +
	"You write precise, business-friendly definitions grounded strictly in the metadata you are given."

// TermContext carries the asset fields relevant to prompt construction.
// Optional fields are empty when absent; they are omitted from the prompt
// entirely rather than rendered as placeholders.
type TermContext struct {
	Name        string
	TypeName    string
	Description string
	Expression  string
	Dataset     string
	Workspace   string
	Columns     []ColumnContext
	Usage       *UsageContext
	Tags        []string
}

// ColumnContext is one column line in the prompt.
type ColumnContext struct {
	Name        string
	DataType    string
	Description string
	PrimaryKey  bool
	ForeignKey  bool
}

// UsageContext renders usage statistics when present.
type UsageContext struct {
	QueryFrequency  int
	UniqueUsers     int
	PopularityScore float64
}

// maxPromptColumns caps how many columns one prompt lists.
const maxPromptColumns = 20

// BuildTermDefinitionPrompt creates the prompt for drafting a glossary term.
// When the asset carries a calculation formula the instructions direct the
// model to interpret the formula and explain it in business terms; otherwise
// the instructions direct a description-based definition.
func BuildTermDefinitionPrompt(tc TermContext) string {
	var b strings.Builder

	b.WriteString("Generate a business glossary term definition for the following data asset.\n\n")
	b.WriteString("## Asset Information\n")
	fmt.Fprintf(&b, "- Name: %s\n", tc.Name)
	fmt.Fprintf(&b, "- Type: %s\n", tc.TypeName)
	if tc.Description != "" {
		fmt.Fprintf(&b, "- Existing Description: %s\n", tc.Description)
	}
	if tc.Dataset != "" {
		fmt.Fprintf(&b, "- Dataset: %s\n", tc.Dataset)
	}
	if tc.Workspace != "" {
		fmt.Fprintf(&b, "- Workspace: %s\n", tc.Workspace)
	}
	if len(tc.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(tc.Tags, ", "))
	}

	if tc.Expression != "" {
		b.WriteString("\n## Calculation Formula\n")
		fmt.Fprintf(&b, "```\n%s\n```\n", tc.Expression)
		b.WriteString("\nThis asset is a calculated measure. Focus on what business metric the formula computes.\n")
	}

	if len(tc.Columns) > 0 {
		b.WriteString("\n## Columns\n")
		cols := tc.Columns
		if len(cols) > maxPromptColumns {
			cols = cols[:maxPromptColumns]
		}
		for _, col := range cols {
			fmt.Fprintf(&b, "- %s", col.Name)
			if col.DataType != "" {
				fmt.Fprintf(&b, " (%s)", col.DataType)
			}
			if col.Description != "" {
				fmt.Fprintf(&b, ": %s", col.Description)
			}
			b.WriteString("\n")
		}
	}

	if tc.Usage != nil {
		b.WriteString("\n## Usage Statistics\n")
		fmt.Fprintf(&b, "- Query Frequency: %d\n", tc.Usage.QueryFrequency)
		fmt.Fprintf(&b, "- Unique Users: %d\n", tc.Usage.UniqueUsers)
		fmt.Fprintf(&b, "- Popularity Score: %.2f\n", tc.Usage.PopularityScore)
	}

	b.WriteString("\n## Instructions\n")
	if tc.Expression != "" {
		b.WriteString(`Based on the information above, generate a business glossary term definition for this measure. Focus on:
1. What business metric or KPI the formula calculates
2. How the formula defines the calculation logic, explained in business terms
3. How business users would interpret and use this metric
`)
	} else {
		b.WriteString(`Based on the information above, generate a business glossary term definition. Focus on:
1. What this data represents in business terms
2. How analysts and business users would use it
3. Key concepts and relationships
`)
	}

	b.WriteString(`
Respond with a JSON object in this exact format:
{
  "name": "Business-friendly term name",
  "definition": "A comprehensive 2-4 sentence definition",
  "short_description": "A one-sentence summary",
  "examples": ["Example use case 1", "Example use case 2"],
  "synonyms": ["Alternative term 1"],
  "term_type": "business_term|metric|dimension",
  "confidence": "high|medium|low",
  "reasoning": "One sentence on how the definition was derived"
}

Set confidence based on:
- "high": clear formula or description with good supporting metadata
- "medium": some context available but not comprehensive
- "low": limited information, mostly inferred

Respond ONLY with the JSON object, no additional text.`)

	return b.String()
}
