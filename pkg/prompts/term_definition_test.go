package prompts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTermDefinitionPromptForMeasure(t *testing.T) {
	prompt := BuildTermDefinitionPrompt(TermContext{
		Name:       "Total Revenue",
		TypeName:   "PowerBIMeasure",
		Expression: "SUM(Sales[Amount])",
		Dataset:    "default/powerbi/finance/dataset",
		Workspace:  "default/powerbi/finance",
	})

	assert.Contains(t, prompt, "Total Revenue")
	assert.Contains(t, prompt, "## Calculation Formula")
	assert.Contains(t, prompt, "SUM(Sales[Amount])")
	assert.Contains(t, prompt, "calculated measure")
	assert.Contains(t, prompt, "What business metric or KPI the formula calculates")
	assert.Contains(t, prompt, "Respond ONLY with the JSON object")
}

func TestBuildTermDefinitionPromptForTable(t *testing.T) {
	prompt := BuildTermDefinitionPrompt(TermContext{
		Name:        "orders",
		TypeName:    "Table",
		Description: "Customer orders from the storefront.",
		Columns: []ColumnContext{
			{Name: "id", DataType: "bigint"},
			{Name: "total_amount", DataType: "numeric", Description: "Order total including tax."},
		},
		Usage: &UsageContext{QueryFrequency: 120, UniqueUsers: 14, PopularityScore: 0.92},
	})

	assert.Contains(t, prompt, "Existing Description: Customer orders from the storefront.")
	assert.Contains(t, prompt, "## Columns")
	assert.Contains(t, prompt, "- total_amount (numeric): Order total including tax.")
	assert.Contains(t, prompt, "## Usage Statistics")
	assert.Contains(t, prompt, "Query Frequency: 120")
	assert.NotContains(t, prompt, "## Calculation Formula")
	assert.Contains(t, prompt, "What this data represents in business terms")
}

func TestBuildTermDefinitionPromptOmitsAbsentFields(t *testing.T) {
	prompt := BuildTermDefinitionPrompt(TermContext{
		Name:     "customers",
		TypeName: "Table",
	})

	assert.NotContains(t, prompt, "Existing Description")
	assert.NotContains(t, prompt, "Dataset:")
	assert.NotContains(t, prompt, "Workspace:")
	assert.NotContains(t, prompt, "## Usage Statistics")
	assert.NotContains(t, prompt, "N/A")
	assert.NotContains(t, prompt, "null")
}

func TestBuildTermDefinitionPromptCapsColumns(t *testing.T) {
	tc := TermContext{Name: "wide_table", TypeName: "Table"}
	for i := 0; i < maxPromptColumns+10; i++ {
		tc.Columns = append(tc.Columns, ColumnContext{Name: fmt.Sprintf("column_%02d", i)})
	}

	prompt := BuildTermDefinitionPrompt(tc)
	assert.Contains(t, prompt, fmt.Sprintf("column_%02d", maxPromptColumns-1))
	assert.NotContains(t, prompt, fmt.Sprintf("column_%02d", maxPromptColumns))
}
