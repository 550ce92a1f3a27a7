package parsers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/graph/parsers"
)

func TestParseNLUResponse(t *testing.T) {
	t.Parallel()

	content := `(intent<||>card_block<||>0.82<||>0.9<||>{"reason":"lost card"})##
(intent<||>greeting<||>0.10<||>0.1)##
(sentiment<||>negative<||>0.7)##
<|COMPLETE|>
(intent<||>ignored<||>0.99<||>0.1)`

	resp, err := parsers.ParseNLUResponse(content)
	require.NoError(t, err)
	require.Len(t, resp.Intents, 2)
	assert.Equal(t, "card_block", resp.PrimaryIntent)
	assert.Equal(t, "lost card", resp.Intents[0].Metadata["reason"])
	assert.Equal(t, "negative", resp.Sentiment.Label)

	c, ok := resp.Primary()
	require.True(t, ok)
	assert.Equal(t, "card_block", c.Label)
	assert.InDelta(t, 0.82, c.Confidence, 1e-9)
}

func TestParseNLUResponseRecordsErrors(t *testing.T) {
	t.Parallel()

	resp, err := parsers.ParseNLUResponse("(intent<||>x<||>1.7)##not a tuple##(mood<||>happy<||>0.3)")
	require.NoError(t, err)
	assert.Empty(t, resp.Intents)
	assert.Empty(t, resp.PrimaryIntent)
	errs, _ := resp.ParsingMetadata["parsing_errors"].([]string)
	assert.Len(t, errs, 3)

	_, ok := resp.Primary()
	assert.False(t, ok)
}

func TestParseNLUResponseTruncatesHugeInput(t *testing.T) {
	t.Parallel()

	resp, err := parsers.ParseNLUResponse("(intent<||>a<||>0.5)##" + strings.Repeat("x", 64*1024))
	require.NoError(t, err)
	assert.Equal(t, true, resp.ParsingMetadata["truncated"])
	assert.Equal(t, "a", resp.PrimaryIntent)
}
