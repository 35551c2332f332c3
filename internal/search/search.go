// Package search keeps an Elasticsearch index of product listings and runs
// full-text queries against it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const DefaultIndex = "products"

// MaxHits caps how many ids a single full-text query returns.
const MaxHits = 1000

type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewProductIndex(es *elasticsearch.Client, index string) *ProductIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ProductIndex{es: es, index: index}
}

type document struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	CityName    string `json:"city_name"`
	Owner       string `json:"user_username"`
}

func (x *ProductIndex) Index(ctx context.Context, p *models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(document{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Status:      p.Status,
		CityName:    p.CityName,
		Owner:       p.Owner,
	}); err != nil {
		return fmt.Errorf("search: encode product %d: %w", p.ID, err)
	}

	res, err := x.es.Index(x.index, &buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("search: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

// Delete removes the product document; a missing document is not an error.
func (x *ProductIndex) Delete(ctx context.Context, id uint) error {
	res, err := x.es.Delete(x.index, strconv.FormatUint(uint64(id), 10),
		x.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

// SearchIDs returns the ids of products matching query, best match first.
func (x *ProductIndex) SearchIDs(ctx context.Context, query string) ([]uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category", "city_name"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"size":    MaxHits,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Errorf("search: %s: %s: %s", op, status, bytes.TrimSpace(b))
}
