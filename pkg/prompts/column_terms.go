package prompts

import (
	"fmt"
	"strings"
)

// ColumnTermContext carries what a column-level term definition prompt needs:
// the column itself plus enough of the parent asset to anchor the definition.
type ColumnTermContext struct {
	ColumnName        string
	DataType          string
	Description       string
	TermType          string
	ParentName        string
	ParentType        string
	ParentDescription string
	SiblingColumns    []string
}

// maxSiblingColumns caps how many sibling column names a column term prompt
// lists for context.
const maxSiblingColumns = 15

// BuildColumnClassificationPrompt creates the prompt that asks the model
// which of an asset's columns deserve their own glossary terms, and whether
// each is a metric or a dimension. Identifier and housekeeping columns are
// expected to be excluded.
func BuildColumnClassificationPrompt(tc TermContext) string {
	var b strings.Builder

	b.WriteString("Classify the columns of the following data asset for business glossary coverage.\n\n")
	b.WriteString("## Asset Information\n")
	fmt.Fprintf(&b, "- Name: %s\n", tc.Name)
	fmt.Fprintf(&b, "- Type: %s\n", tc.TypeName)
	if tc.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", tc.Description)
	}

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
		if col.PrimaryKey {
			b.WriteString(" [primary key]")
		}
		if col.ForeignKey {
			b.WriteString(" [foreign key]")
		}
		if col.Description != "" {
			fmt.Fprintf(&b, ": %s", col.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString(`
## Instructions
For each column, decide whether it deserves its own business glossary term:
- Numeric columns that carry business measurements are "metric" candidates.
- Categorical columns business users slice or filter by are "dimension" candidates.
- Technical columns (primary keys, foreign keys, audit timestamps, surrogate ids) should not get terms.

Respond with a JSON array in this exact format:
[
  {
    "column_name": "exact column name",
    "term_type": "metric|dimension|business_term",
    "should_generate": true,
    "reason": "One short sentence"
  }
]

Include every column exactly once. Respond ONLY with the JSON array, no additional text.`)

	return b.String()
}

// BuildColumnTermPrompt creates the prompt for drafting a glossary term from
// a single classified column.
func BuildColumnTermPrompt(cc ColumnTermContext) string {
	var b strings.Builder

	b.WriteString("Generate a business glossary term definition for the following column.\n\n")
	b.WriteString("## Column Information\n")
	fmt.Fprintf(&b, "- Name: %s\n", cc.ColumnName)
	if cc.DataType != "" {
		fmt.Fprintf(&b, "- Data Type: %s\n", cc.DataType)
	}
	if cc.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", cc.Description)
	}
	fmt.Fprintf(&b, "- Glossary Term Kind: %s\n", cc.TermType)

	b.WriteString("\n## Parent Asset\n")
	fmt.Fprintf(&b, "- Name: %s\n", cc.ParentName)
	if cc.ParentType != "" {
		fmt.Fprintf(&b, "- Type: %s\n", cc.ParentType)
	}
	if cc.ParentDescription != "" {
		fmt.Fprintf(&b, "- Description: %s\n", cc.ParentDescription)
	}

	if len(cc.SiblingColumns) > 0 {
		siblings := cc.SiblingColumns
		if len(siblings) > maxSiblingColumns {
			siblings = siblings[:maxSiblingColumns]
		}
		fmt.Fprintf(&b, "- Sibling Columns: %s\n", strings.Join(siblings, ", "))
	}

	b.WriteString(`
## Instructions
Define what this column represents as a standalone business concept. Focus on:
1. What the value means to a business user, independent of the table it lives in
2. How analysts would use or filter by it
3. Any relationship to sibling columns that clarifies its meaning

Respond with a JSON object in this exact format:
{
  "name": "Business-friendly term name",
  "definition": "A comprehensive 2-4 sentence definition",
  "short_description": "A one-sentence summary",
  "examples": ["Example use case 1"],
  "synonyms": ["Alternative term 1"],
  "confidence": "high|medium|low",
  "reasoning": "One sentence on how the definition was derived"
}

Set confidence based on:
- "high": the column has a clear description and an unambiguous business meaning
- "medium": the meaning is inferable from the name and parent context
- "low": mostly guessed from the column name alone

Respond ONLY with the JSON object, no additional text.`)

	return b.String()
}
