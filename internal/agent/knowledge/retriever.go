package knowledge

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/model"
)

// DefaultRetrieveTimeout bounds a single retrieval when none is configured.
const DefaultRetrieveTimeout = 3 * time.Second

// PortRetriever adapts any Eino retriever to the model.Retriever port and
// bounds every call with a timeout.
type PortRetriever struct {
	r       retriever.Retriever
	timeout time.Duration
}

func NewPortRetriever(r retriever.Retriever, timeout time.Duration) *PortRetriever {
	if timeout <= 0 {
		timeout = DefaultRetrieveTimeout
	}
	return &PortRetriever{r: r, timeout: timeout}
}

type retrieveResult struct {
	docs []*schema.Document
	err  error
}

// Retrieve runs the underlying retriever and returns its documents as snippets.
// It gives up when the timeout expires even if the retriever ignores ctx.
func (p *PortRetriever) Retrieve(ctx context.Context, text string, topK int) ([]model.Snippet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var opts []retriever.Option
	if topK > 0 {
		opts = append(opts, retriever.WithTopK(topK))
	}

	ch := make(chan retrieveResult, 1)
	go func() {
		docs, err := p.r.Retrieve(ctx, text, opts...)
		ch <- retrieveResult{docs: docs, err: err}
	}()

	var res retrieveResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	snippets := make([]model.Snippet, 0, len(res.docs))
	for _, d := range res.docs {
		if d == nil || d.Content == "" {
			continue
		}
		src, _ := d.MetaData[MetaSource].(string)
		snippets = append(snippets, model.Snippet{Content: d.Content, Source: src})
	}
	if topK > 0 && len(snippets) > topK {
		snippets = snippets[:topK]
	}
	return snippets, nil
}

// Ready forwards to the wrapped retriever when it reports readiness.
func (p *PortRetriever) Ready() bool {
	if r, ok := p.r.(model.Readiness); ok {
		return r.Ready()
	}
	return true
}

var _ model.Retriever = (*PortRetriever)(nil)
