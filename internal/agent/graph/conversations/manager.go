package conversations

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/chative/supportdesk/internal/agent/model"
)

// Extra keys set on context messages.
const (
	ExtraSource = "source"
	ExtraKind   = "kind"
	KindContext = "context"
)

// MessagesManager loads prior turns for a session and assembles the ordered
// generator prompt. It holds no per-session state.
type MessagesManager struct {
	history      model.HistoryReader
	historyLimit int
}

// NewMessagesManager creates a manager. history may be nil, in which case
// every turn starts without prior history.
func NewMessagesManager(history model.HistoryReader, historyLimit int) *MessagesManager {
	return &MessagesManager{history: history, historyLimit: historyLimit}
}

// LoadPrior returns up to historyLimit persisted turns for sessionID, oldest first.
func (mm *MessagesManager) LoadPrior(ctx context.Context, sessionID string) ([]model.Turn, error) {
	if mm.history == nil || mm.historyLimit <= 0 {
		return nil, nil
	}
	turns, err := mm.history.Recent(ctx, sessionID, mm.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return trimTail(turns, mm.historyLimit), nil
}

// BuildPrompt orders the generator input as: system instruction, one system
// message per context snippet, prior user/assistant turns, latest user turn.
// Debug turns never reach the generator.
func (mm *MessagesManager) BuildPrompt(system string, snippets []model.Snippet, turns []model.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, 1+len(snippets)+len(turns))
	msgs = append(msgs, schema.SystemMessage(system))

	for _, sn := range snippets {
		m := schema.SystemMessage("Context:\n" + sn.Content)
		m.Extra = map[string]any{ExtraKind: KindContext, ExtraSource: sn.Source}
		msgs = append(msgs, m)
	}

	latest := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleUser {
			latest = i
			break
		}
	}

	for i, t := range turns {
		if i == latest {
			continue
		}
		if m := toMessage(t); m != nil {
			msgs = append(msgs, m)
		}
	}
	if latest >= 0 {
		msgs = append(msgs, schema.UserMessage(turns[latest].Content))
	}
	return msgs
}

func toMessage(t model.Turn) *schema.Message {
	if t.Content == "" {
		return nil
	}
	switch t.Role {
	case model.RoleUser:
		return schema.UserMessage(t.Content)
	case model.RoleAssistant:
		return schema.AssistantMessage(t.Content, nil)
	}
	return nil
}

// ====================== Helper function ======================
func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if len(turns) <= maxTurns {
		return append([]model.Turn(nil), turns...)
	}
	return append([]model.Turn(nil), turns[len(turns)-maxTurns:]...)
}
