// Package catalog provides a client for the external metadata catalog's
// REST API: asset search for ingestion and glossary term creation for
// publishing.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the maximum time to wait for catalog responses.
const DefaultTimeout = 30 * time.Second

// Asset is a raw catalog search hit. Source adapters convert these into
// the canonical asset representation.
type Asset struct {
	GUID                   string            `json:"guid,omitempty"`
	TypeName               string            `json:"type_name"`
	QualifiedName          string            `json:"qualified_name"`
	Name                   string            `json:"name"`
	Description            string            `json:"description,omitempty"`
	UserDescription        string            `json:"user_description,omitempty"`
	Expression             string            `json:"expression,omitempty"`
	DatasetQualifiedName   string            `json:"dataset_qualified_name,omitempty"`
	WorkspaceQualifiedName string            `json:"workspace_qualified_name,omitempty"`
	DatabaseName           string            `json:"database_name,omitempty"`
	SchemaName             string            `json:"schema_name,omitempty"`
	OwnerUsers             []string          `json:"owner_users,omitempty"`
	Tags                   []string          `json:"tags,omitempty"`
	PopularityScore        float64           `json:"popularity_score,omitempty"`
	QueryCount             int               `json:"query_count,omitempty"`
	UserCount              int               `json:"user_count,omitempty"`
	Columns                []AssetColumn     `json:"columns,omitempty"`
	Attributes             map[string]string `json:"attributes,omitempty"`
}

// AssetColumn is a column record nested in a search hit.
type AssetColumn struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type,omitempty"`
	Description  string `json:"description,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key,omitempty"`
	IsForeignKey bool   `json:"is_foreign_key,omitempty"`
}

// SearchRequest selects assets by type within one provider family.
type SearchRequest struct {
	TypeNames []string `json:"type_names"`
	SuperType string   `json:"super_type,omitempty"` // e.g. "SQL" or "BI"
	Connector string   `json:"connector,omitempty"`  // e.g. "powerbi"
	Limit     int      `json:"limit"`
}

type searchResponse struct {
	Assets []Asset `json:"assets"`
	Total  int     `json:"total"`
}

// GlossaryTerm is the payload for creating a term in the catalog glossary.
type GlossaryTerm struct {
	Name             string   `json:"name"`
	Definition       string   `json:"definition"`
	ShortDescription string   `json:"short_description,omitempty"`
	Synonyms         []string `json:"synonyms,omitempty"`
	GlossaryQN       string   `json:"glossary_qualified_name"`
	SourceAssets     []string `json:"source_assets,omitempty"`
}

type createTermResponse struct {
	QualifiedName string `json:"qualified_name"`
}

type termNamesResponse struct {
	Names []string `json:"names"`
}

// CatalogClient is the interface consumed by source adapters and the
// publish gateway. Use it for dependency injection in tests.
type CatalogClient interface {
	SearchAssets(ctx context.Context, req SearchRequest) ([]Asset, error)
	ListGlossaryTermNames(ctx context.Context, glossaryQN string) ([]string, error)
	CreateGlossaryTerm(ctx context.Context, term GlossaryTerm) (string, error)
}

// Client provides access to the catalog REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds connection settings for the catalog.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new catalog client.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("catalog"),
	}, nil
}

var _ CatalogClient = (*Client)(nil)

// BaseURL returns the configured catalog base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchAssets queries the catalog for assets matching the request.
func (c *Client) SearchAssets(ctx context.Context, req SearchRequest) ([]Asset, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "assets", "search")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var result searchResponse
	if err := c.postJSON(ctx, endpoint, req, &result); err != nil {
		return nil, fmt.Errorf("asset search failed: %w", err)
	}

	c.logger.Debug("Asset search completed",
		zap.Strings("type_names", req.TypeNames),
		zap.Int("hits", len(result.Assets)))

	return result.Assets, nil
}

// ListGlossaryTermNames returns the names of terms already in a glossary,
// used to skip assets whose term would duplicate an existing entry.
func (c *Client) ListGlossaryTermNames(ctx context.Context, glossaryQN string) ([]string, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "glossaries", glossaryQN, "terms")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	var result termNamesResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("list glossary terms failed: %w", err)
	}

	return result.Names, nil
}

// CreateGlossaryTerm creates a glossary term in the catalog and returns its
// qualified name.
func (c *Client) CreateGlossaryTerm(ctx context.Context, term GlossaryTerm) (string, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "glossaries", "terms")
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}

	var result createTermResponse
	if err := c.postJSON(ctx, endpoint, term, &result); err != nil {
		return "", fmt.Errorf("create glossary term failed: %w", err)
	}

	c.logger.Info("Created glossary term in catalog",
		zap.String("name", term.Name),
		zap.String("qualified_name", result.QualifiedName))

	return result.QualifiedName, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Catalog returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

// buildURL safely joins a base URL with path segments.
func buildURL(baseURL string, segments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(append([]string{u.Path}, segments...)...)
	return u.String(), nil
}
