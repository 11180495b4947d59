// Package search keeps user profiles in an Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// indexMapping keeps emails and nicknames exact-matchable alongside full text.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "email":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "nickname":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "first_name":  {"type": "text"},
      "last_name":   {"type": "text"},
      "bio":         {"type": "text"},
      "role":        {"type": "keyword"},
      "created_at":  {"type": "date"},
      "updated_at":  {"type": "date"}
    }
  }
}`

type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

type userDoc struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toDoc(u *entity.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// EnsureIndex creates the index with its mapping when missing.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return oops.Code("SEARCH_INDEX_EXISTS_FAILED").With("index", x.index).Wrap(err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(indexMapping)}.Do(c, x.es)
	if err != nil {
		return oops.Code("SEARCH_INDEX_CREATE_FAILED").With("index", x.index).Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return oops.Code("SEARCH_INDEX_CREATE_FAILED").With("index", x.index).With("status", res.Status()).
			Errorf("create index: %s", res.Status())
	}
	return nil
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(toDoc(u))
	if err != nil {
		return oops.Code("SEARCH_INDEX_FAILED").With("user_id", u.ID).Wrap(err)
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return oops.Code("SEARCH_INDEX_FAILED").With("user_id", u.ID).Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return oops.Code("SEARCH_INDEX_FAILED").With("user_id", u.ID).With("status", res.Status()).
			Errorf("index user: %s", res.Status())
	}
	return nil
}

func (x *UserIndex) Remove(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: x.index, DocumentID: id}.Do(c, x.es)
	if err != nil {
		return oops.Code("SEARCH_REMOVE_FAILED").With("user_id", id).Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return oops.Code("SEARCH_REMOVE_FAILED").With("user_id", id).With("status", res.Status()).
			Errorf("remove user: %s", res.Status())
	}
	return nil
}

// Search performs a multi_match query over the profile fields.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]string, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"nickname^3", "email^2", "first_name", "last_name", "bio"},
				"fuzziness": "AUTO",
			},
		},
		"size":    size,
		"_source": false,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, oops.Code("SEARCH_QUERY_FAILED").With("query", q).Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, oops.Code("SEARCH_QUERY_FAILED").With("query", q).With("status", res.Status()).
			Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.ID)
	}
	return out, nil
}
