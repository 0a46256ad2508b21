package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// maxHits caps how many article ids one query returns.
const maxHits = 10000

// textFields are matched by free-text queries, with their boosts.
var textFields = []struct {
	name  string
	boost float64
}{
	{"title", 3.0},
	{"excerpt", 1.5},
	{"content", 1.0},
	{"url", 0.5},
}

// MatchArticles returns the ids of the user's articles matching text, best
// match first. Every whitespace-separated term must match in some field.
func (s *SearchIndex) MatchArticles(ctx context.Context, userID, text string) ([]string, error) {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildMatchQuery(userID, terms), maxHits, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildMatchQuery scopes to the owner and requires each term in any text field.
func buildMatchQuery(userID string, terms []string) query.Query {
	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")

	must := []query.Query{owner}
	for _, term := range terms {
		var anyField []query.Query
		for _, f := range textFields {
			mq := bleve.NewMatchQuery(term)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			anyField = append(anyField, mq)

			if f.name == "title" {
				// Prefix match on titles so "kube" finds "Kubernetes".
				pq := bleve.NewPrefixQuery(strings.ToLower(term))
				pq.SetField(f.name)
				anyField = append(anyField, pq)
			}
		}
		must = append(must, bleve.NewDisjunctionQuery(anyField...))
	}
	return bleve.NewConjunctionQuery(must...)
}
