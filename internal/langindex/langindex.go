// Package langindex provides a searchable catalog over a loaded
// model's supported language tags, so the service's languages endpoint
// can answer substring and fuzzy lookups ("eng", "ger" -> "deu")
// instead of only exact membership checks.
package langindex

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Catalog is a searchable index over a fixed set of ISO-639-3 tags. It
// is rebuilt from a model's labels at startup and never mutated
// afterward, so it needs no locking.
type Catalog struct {
	index bleve.Index
}

type labelDoc struct {
	Label string `json:"label"`
}

// NewCatalog builds an in-memory catalog over labels. Unlike the code
// index this package's mapping style is borrowed from, the catalog is
// small and rebuilt on every process start, so it lives entirely in
// memory rather than on disk.
func NewCatalog(labels []string) (*Catalog, error) {
	index, err := bleve.NewMemOnly(catalogMapping())
	if err != nil {
		return nil, fmt.Errorf("langindex: create index: %w", err)
	}
	batch := index.NewBatch()
	for _, label := range labels {
		if err := batch.Index(label, labelDoc{Label: label}); err != nil {
			return nil, fmt.Errorf("langindex: batch label %q: %w", label, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("langindex: index labels: %w", err)
	}
	return &Catalog{index: index}, nil
}

func catalogMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	labelField := bleve.NewTextFieldMapping()
	labelField.Analyzer = "keyword"
	labelField.Store = true
	labelField.IncludeInAll = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("label", labelField)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = "keyword"
	return im
}

// Search returns up to limit labels matching query, ranked by an exact
// match first, then a fuzzy match tolerating up to two edits, so a
// caller can type "ger" or a near-miss of a three-letter tag and still
// find "deu". Returns an empty slice, not an error, when nothing
// matches.
func (c *Catalog) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	exact := bleve.NewTermQuery(query)
	exact.SetField("label")
	exact.SetBoost(5.0)

	fuzzy := bleve.NewFuzzyQuery(query)
	fuzzy.SetField("label")
	fuzzy.SetFuzziness(2)
	fuzzy.SetBoost(1.0)

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddShould(exact)
	boolQuery.AddShould(fuzzy)

	req := bleve.NewSearchRequest(boolQuery)
	req.Size = limit
	req.Fields = []string{"label"}

	result, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("langindex: search %q: %w", query, err)
	}

	out := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if label, ok := hit.Fields["label"].(string); ok {
			out = append(out, label)
		}
	}
	return out, nil
}

// Close releases the index's in-memory resources.
func (c *Catalog) Close() error { return c.index.Close() }
