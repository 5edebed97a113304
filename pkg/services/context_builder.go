package services

import (
	"strings"
	"unicode/utf8"

	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/prompts"
)

// maxContextDescriptionLen bounds free-text fields before they reach a
// prompt, so one verbose catalog description cannot crowd out the rest of
// the asset context.
const maxContextDescriptionLen = 1000

// maxContextChars is the rough character budget for one asset's rendered
// context. Oversized contexts are trimmed progressively rather than
// rejected: column descriptions go first, then excess columns, then the
// tail of the expression.
const maxContextChars = 8000

const maxColumnsAfterTrim = 10

// ContextBuilder projects catalog asset metadata into the flat context a
// term definition prompt consumes. It is a pure transformation: no catalog
// or model calls, and absent fields become empty strings rather than
// sentinel text like "N/A".
type ContextBuilder struct{}

// NewContextBuilder creates a ContextBuilder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// Build converts one asset into prompt context.
func (b *ContextBuilder) Build(asset models.AssetMetadata) prompts.TermContext {
	tc := prompts.TermContext{
		Name:        strings.TrimSpace(asset.Name),
		TypeName:    asset.TypeName,
		Description: truncateText(asset.BestDescription(), maxContextDescriptionLen),
		Expression:  strings.TrimSpace(asset.Expression),
		Dataset:     asset.DatasetQualifiedName,
		Workspace:   asset.WorkspaceQualifiedName,
		Tags:        asset.Tags,
	}

	for _, col := range asset.Columns {
		tc.Columns = append(tc.Columns, prompts.ColumnContext{
			Name:        col.Name,
			DataType:    col.DataType,
			Description: truncateText(col.Description, maxContextDescriptionLen),
			PrimaryKey:  col.IsPrimaryKey,
			ForeignKey:  col.IsForeignKey,
		})
	}

	if asset.Usage != nil {
		tc.Usage = &prompts.UsageContext{
			QueryFrequency:  asset.Usage.QueryFrequency,
			UniqueUsers:     asset.Usage.UniqueUsers,
			PopularityScore: asset.Usage.PopularityScore,
		}
	}

	return fitToBudget(tc)
}

// BuildColumnContext projects one classified column, plus enough of its
// parent asset, into column term prompt context.
func (b *ContextBuilder) BuildColumnContext(asset models.AssetMetadata, column models.ColumnMetadata, termType models.TermType) prompts.ColumnTermContext {
	cc := prompts.ColumnTermContext{
		ColumnName:        strings.TrimSpace(column.Name),
		DataType:          column.DataType,
		Description:       truncateText(column.Description, maxContextDescriptionLen),
		TermType:          string(termType),
		ParentName:        strings.TrimSpace(asset.Name),
		ParentType:        asset.TypeName,
		ParentDescription: truncateText(asset.BestDescription(), maxContextDescriptionLen),
	}
	for _, sibling := range asset.Columns {
		if sibling.Name == column.Name {
			continue
		}
		cc.SiblingColumns = append(cc.SiblingColumns, sibling.Name)
	}
	return cc
}

// fitToBudget shrinks an oversized context in stages, checking the budget
// after each stage so a context that already fits is returned untouched.
func fitToBudget(tc prompts.TermContext) prompts.TermContext {
	if contextSize(tc) <= maxContextChars {
		return tc
	}

	for i := range tc.Columns {
		tc.Columns[i].Description = ""
	}
	if contextSize(tc) <= maxContextChars {
		return tc
	}

	if len(tc.Columns) > maxColumnsAfterTrim {
		tc.Columns = tc.Columns[:maxColumnsAfterTrim]
	}
	if contextSize(tc) <= maxContextChars {
		return tc
	}

	tc.Expression = truncateText(tc.Expression, maxContextChars/4)
	return tc
}

func contextSize(tc prompts.TermContext) int {
	size := len(tc.Name) + len(tc.TypeName) + len(tc.Description) +
		len(tc.Expression) + len(tc.Dataset) + len(tc.Workspace)
	for _, col := range tc.Columns {
		size += len(col.Name) + len(col.DataType) + len(col.Description)
	}
	for _, tag := range tc.Tags {
		size += len(tag)
	}
	return size
}

func truncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
