package models

// AssetMetadata is an immutable snapshot of one catalog asset at fetch time.
// Produced only by source adapters and never mutated afterward.
type AssetMetadata struct {
	QualifiedName   string           `json:"qualified_name"`
	Name            string           `json:"name"`
	TypeName        string           `json:"type_name"`
	Description     string           `json:"description,omitempty"`
	UserDescription string           `json:"user_description,omitempty"`
	Columns         []ColumnMetadata `json:"columns,omitempty"`

	// Expression is the calculation formula for computed assets,
	// e.g. the DAX expression of a Power BI measure.
	Expression             string `json:"expression,omitempty"`
	DatasetQualifiedName   string `json:"dataset_qualified_name,omitempty"`
	WorkspaceQualifiedName string `json:"workspace_qualified_name,omitempty"`

	Usage *UsageSignals `json:"usage,omitempty"`

	Tags         []string `json:"tags,omitempty"`
	Owner        string   `json:"owner,omitempty"`
	DatabaseName string   `json:"database_name,omitempty"`
	SchemaName   string   `json:"schema_name,omitempty"`
}

// BestDescription returns the curated description when present, falling back
// to the user-supplied one. Empty when the asset has no description at all.
func (a *AssetMetadata) BestDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return a.UserDescription
}

// ColumnMetadata describes a column within a table or view.
type ColumnMetadata struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type,omitempty"`
	Description  string `json:"description,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key,omitempty"`
	IsForeignKey bool   `json:"is_foreign_key,omitempty"`
}

// ColumnClassification is the generation engine's verdict on one column:
// whether it deserves its own glossary term, and as what kind of term.
type ColumnClassification struct {
	ColumnName     string   `json:"column_name"`
	TermType       TermType `json:"term_type"`
	ShouldGenerate bool     `json:"should_generate"`
	Reason         string   `json:"reason,omitempty"`
}

// UsageSignals carries query-frequency and popularity data for an asset.
type UsageSignals struct {
	QueryFrequency  int     `json:"query_frequency"`
	UniqueUsers     int     `json:"unique_users"`
	PopularityScore float64 `json:"popularity_score"`
}
