package knowledge

import (
	"context"
	"maps"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/pkg/textutil"
)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Index is an in-memory BM25 index over documents. It implements the Eino
// retriever.Retriever interface. Documents are added during startup, then
// Seal marks the index ready; after that it is only read.
type Index struct {
	mu       sync.RWMutex
	docs     []*schema.Document
	terms    []map[string]int
	lengths  []int
	df       map[string]int
	totalLen int

	defaultTopK int
	sealed      atomic.Bool
}

// NewIndex creates an empty index returning defaultTopK documents when the
// caller passes no TopK option.
func NewIndex(defaultTopK int) *Index {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &Index{df: make(map[string]int), defaultTopK: defaultTopK}
}

// Add indexes docs.
func (ix *Index) Add(docs ...*schema.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, d := range docs {
		if d == nil {
			continue
		}
		counts := textutil.Counts(textutil.Tokenize(d.Content))
		n := 0
		for term, c := range counts {
			ix.df[term]++
			n += c
		}
		ix.docs = append(ix.docs, d)
		ix.terms = append(ix.terms, counts)
		ix.lengths = append(ix.lengths, n)
		ix.totalLen += n
	}
}

// Seal marks the index as fully built.
func (ix *Index) Seal() { ix.sealed.Store(true) }

// Ready reports whether Seal has been called.
func (ix *Index) Ready() bool { return ix.sealed.Load() }

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func (ix *Index) GetType() string { return "LexicalIndex" }

type scored struct {
	i     int
	score float64
}

// Retrieve returns the best matching documents for query. Returned
// documents are copies carrying their score; indexed documents are never
// handed out.
func (ix *Index) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topK := ix.defaultTopK
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if o.TopK != nil && *o.TopK > 0 {
		topK = *o.TopK
	}
	threshold := 0.0
	if o.ScoreThreshold != nil {
		threshold = *o.ScoreThreshold
	}

	qTerms := textutil.Tokenize(query)
	if len(qTerms) == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.docs)
	if n == 0 {
		return nil, nil
	}
	avg := float64(ix.totalLen) / float64(n)

	var hits []scored
	for i := range ix.docs {
		var score float64
		for _, q := range qTerms {
			tf := float64(ix.terms[i][q])
			if tf == 0 {
				continue
			}
			df := float64(ix.df[q])
			idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(ix.lengths[i])/avg))
			score += idf * norm
		}
		if score > 0 && score >= threshold {
			hits = append(hits, scored{i: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]*schema.Document, 0, len(hits))
	for _, h := range hits {
		src := ix.docs[h.i]
		d := &schema.Document{ID: src.ID, Content: src.Content, MetaData: maps.Clone(src.MetaData)}
		out = append(out, d.WithScore(h.score))
	}
	return out, nil
}

var _ retriever.Retriever = (*Index)(nil)
