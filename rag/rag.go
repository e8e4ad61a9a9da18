// Package rag is an optional semantic product-search add-on backed by
// Weaviate. The agent works fully without it; a nil *Pipeline disables every
// operation cleanly.
package rag

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	contractx "wholesale-agent/agent/contract"
)

// ProductClassName is the Weaviate class holding indexed products.
const ProductClassName = "WholesaleProduct"

// Config holds the Weaviate connection settings.
type Config struct {
	URL     string `envconfig:"URL" default:"http://localhost:8080"`
	Enabled bool   `envconfig:"ENABLED" default:"false"`
}

// Pipeline indexes the product catalog into Weaviate and answers free-text
// searches with BM25 ranking over name, description, and category.
type Pipeline struct {
	client *weaviate.Client
}

// New connects to Weaviate. Returns (nil, nil) when the add-on is disabled.
func New(cfg Config) (*Pipeline, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q", cfg.URL)
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Pipeline{client: client}, nil
}

// Enabled reports whether the add-on is active.
func (p *Pipeline) Enabled() bool {
	return p != nil && p.client != nil
}

// EnsureSchema creates the product class when missing. Idempotent.
func (p *Pipeline) EnsureSchema(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	exists, err := p.client.Schema().ClassExistenceChecker().
		WithClassName(ProductClassName).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:       ProductClassName,
		Description: "Wholesale catalog products indexed for keyword and semantic search",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "sku", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "name", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "description", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "category", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "supplier", DataType: []string{"text"}, Tokenization: "word"},
		},
	}
	if err := p.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	log.Info().Str("class", ProductClassName).Msg("created weaviate schema")
	return nil
}

// IndexProducts upserts the given products. Existing objects for the class
// are replaced wholesale; the catalog is small enough to reindex fully.
func (p *Pipeline) IndexProducts(ctx context.Context, products []contractx.ProductRecord) error {
	if !p.Enabled() {
		return nil
	}

	// Drop and recreate rather than diffing object by object.
	if err := p.client.Schema().ClassDeleter().WithClassName(ProductClassName).Do(ctx); err != nil {
		log.Debug().Err(err).Msg("class delete before reindex")
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return err
	}

	batcher := p.client.Batch().ObjectsBatcher()
	for _, product := range products {
		batcher = batcher.WithObjects(&models.Object{
			Class: ProductClassName,
			Properties: map[string]any{
				"sku":         product.SKU,
				"name":        product.Name,
				"description": product.Description,
				"category":    product.Category,
				"supplier":    product.Supplier,
			},
		})
	}
	if _, err := batcher.Do(ctx); err != nil {
		return fmt.Errorf("index products: %w", err)
	}
	log.Info().Int("products", len(products)).Msg("indexed products into weaviate")
	return nil
}

// Hit is one ranked search result.
type Hit struct {
	SKU      string
	Name     string
	Category string
	Score    float64
}

// Search runs a BM25 query over the indexed catalog.
func (p *Pipeline) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if !p.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	bm25 := (&graphql.BM25ArgumentBuilder{}).
		WithQuery(query).
		WithProperties("name", "description", "category")

	result, err := p.client.GraphQL().Get().
		WithClassName(ProductClassName).
		WithBM25(bm25).
		WithFields(
			graphql.Field{Name: "sku"},
			graphql.Field{Name: "name"},
			graphql.Field{Name: "category"},
			graphql.Field{Name: "_additional { score }"},
		).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search products: %s", result.Errors[0].Message)
	}

	return parseHits(result), nil
}

func parseHits(result *models.GraphQLResponse) []Hit {
	data, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	objects, ok := data[ProductClassName].([]any)
	if !ok {
		return nil
	}

	hits := make([]Hit, 0, len(objects))
	for _, raw := range objects {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		hit := Hit{
			SKU:      getString(obj, "sku"),
			Name:     getString(obj, "name"),
			Category: getString(obj, "category"),
		}
		if additional, ok := obj["_additional"].(map[string]any); ok {
			if score, ok := additional["score"].(string); ok {
				hit.Score = parseScore(score)
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func parseScore(s string) float64 {
	var score float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &score)
	if err != nil {
		return 0
	}
	return score
}
