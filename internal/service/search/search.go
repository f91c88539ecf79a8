// Package search keeps an Elasticsearch index of the catalog and answers
// free-text product queries from it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Document is the indexed form of a product.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       string     `json:"price"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	ImageURL    string     `json:"image_url"`
}

func DocumentFrom(p models.Product) Document {
	return Document{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
	}
}

type Index struct {
	es   *elasticsearch.Client
	name string
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{es: es, name: name}
}

func (ix *Index) Put(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := ix.es.Index(ix.name, bytes.NewReader(body),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(doc.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("es index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("es index", res.Status(), res.Body)
	}
	return nil
}

// Delete removes a document; a missing document is not an error.
func (ix *Index) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := ix.es.Delete(ix.name, id.String(), ix.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("es delete", res.Status(), res.Body)
	}
	return nil
}

// Search returns the total hit count and the ids of the requested page,
// best match first.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("es search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es search decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

// ProductEvent is the payload published on the product topic.
type ProductEvent struct {
	Product Document `json:"product"`
}

// HandleProductEvent applies one product_events message to the index.
func (ix *Index) HandleProductEvent(ctx context.Context, msg kafka.Message) error {
	var ev struct {
		Type string       `json:"type"`
		Data ProductEvent `json:"data"`
	}
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode product event: %w", err)
	}

	switch ev.Type {
	case mykafka.ProductCreated, mykafka.ProductUpdated:
		return ix.Put(ctx, ev.Data.Product)
	case mykafka.ProductDeleted:
		return ix.Delete(ctx, ev.Data.Product.ID)
	default:
		logging.FromContext(ctx).Debug("product_event_skipped", "type", ev.Type)
		return nil
	}
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Errorf("%s: %s: %s", op, status, strings.TrimSpace(string(b)))
}
