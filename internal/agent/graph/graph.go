package graph

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/chative/supportdesk/internal/agent/graph/conversations"
	"github.com/chative/supportdesk/internal/agent/graph/nodes"
	"github.com/chative/supportdesk/internal/agent/graph/observers"
	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/agent/policy"
	errx "github.com/chative/supportdesk/internal/core/error"
	logx "github.com/chative/supportdesk/pkg/logger"
)

// Runner executes one conversation turn.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds the ports and settings needed to build the orchestrator.
// Generator is wrapped in a RetryingGenerator using Retry.
type Config struct {
	Classifier model.Classifier
	Retriever  model.Retriever
	Generator  model.Generator
	TicketSink model.TicketSink
	// History seeds prior turns; nil runs every turn without history.
	History model.HistoryReader
	// Policy defaults to policy.Default when nil.
	Policy *policy.Policy
	Prompt model.PromptConfig

	TopK         int
	HistoryLimit int
	Retry        *nodes.RetryPolicy
}

// Orchestrator drives one user turn through classify, retrieve, generate,
// policy check and optional escalation. It holds no per-session state and
// is safe for concurrent use.
type Orchestrator struct {
	runnable compose.Runnable[model.QueryInput, string]
	ports    []any
}

// GraphBuilder handles the construction of the orchestrator graph
type GraphBuilder struct {
	cfg   *Config
	mm    *conversations.MessagesManager
	graph *compose.Graph[model.QueryInput, string]
}

// BuildOrchestrator validates the ports, builds and compiles the graph.
// Ports that implement model.Readiness must report ready.
func BuildOrchestrator(ctx context.Context, cfg Config) (*Orchestrator, error) {
	ports := []struct {
		name string
		port any
	}{
		{"classifier", cfg.Classifier},
		{"retriever", cfg.Retriever},
		{"generator", cfg.Generator},
		{"ticket sink", cfg.TicketSink},
	}
	for _, p := range ports {
		if isNil(p.port) {
			return nil, errx.NotReady(p.name + " is nil")
		}
		if r, ok := p.port.(model.Readiness); ok && !r.Ready() {
			return nil, errx.NotReady(p.name + " is not ready")
		}
	}
	if isNil(cfg.History) {
		cfg.History = nil
	}

	if cfg.Policy == nil {
		cfg.Policy = policy.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	cfg.Generator = nodes.NewRetryingGenerator(cfg.Generator, cfg.Retry)

	b := &GraphBuilder{
		cfg: &cfg,
		mm:  conversations.NewMessagesManager(cfg.History, cfg.HistoryLimit),
		graph: compose.NewGraph[model.QueryInput, string](
			compose.WithGenLocalState(func(ctx context.Context) *model.ConversationState {
				return &model.ConversationState{}
			}),
		),
	}

	if err := b.addNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	runnable, err := b.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Orchestrator graph built successfully")
	return &Orchestrator{
		runnable: runnable,
		ports:    []any{cfg.Classifier, cfg.Retriever, cfg.Generator, cfg.TicketSink},
	}, nil
}

// Invoke runs one turn and returns the user-visible reply, which is never
// empty. Only generation failures, invalid input and cancellation escape;
// other port failures degrade inside the graph.
func (o *Orchestrator) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return "", errx.Invalid("session_id is required")
	}

	out, err := o.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errx.Generation(errx.Content("empty reply"))
	}
	return out, nil
}

// Ready reports whether every port is still ready.
func (o *Orchestrator) Ready() bool {
	for _, p := range o.ports {
		if r, ok := p.(model.Readiness); ok && !r.Ready() {
			return false
		}
	}
	return true
}

// isNil reports whether v is nil or an interface holding a nil pointer,
// map, slice, func or chan.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	add := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeClassify,
				nodes.NewClassifyNode(b.cfg.Classifier),
				compose.WithStatePreHandler(nodes.NewClassifyPreHandler(b.mm)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeRetrieve,
				nodes.NewRetrieveNode(b.cfg.Retriever, b.cfg.TopK),
				compose.WithStatePostHandler(nodes.NewRetrievePostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeGenerate,
				nodes.NewGenerateNode(b.cfg.Generator, b.mm, b.cfg.Prompt),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeCheck,
				nodes.NewCheckNode(b.cfg.Policy),
				compose.WithStatePostHandler(nodes.NewCheckPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeEscalate,
				nodes.NewEscalateNode(b.cfg.TicketSink),
				compose.WithStatePostHandler(nodes.NewReplyPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeFinalize,
				nodes.NewFinalizeNode(),
				compose.WithStatePostHandler(nodes.NewReplyPostHandler()),
			)
		},
	}
	for _, fn := range add {
		if err := fn(); err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeClassify},
		{nodes.NodeClassify, nodes.NodeRetrieve},
		{nodes.NodeRetrieve, nodes.NodeGenerate},
		{nodes.NodeGenerate, nodes.NodeCheck},
		{nodes.NodeEscalate, compose.END},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates the escalation branch after the policy check
func (b *GraphBuilder) addBranches() error {
	escalationBranch := compose.NewGraphBranch(
		nodes.NewEscalationCondition(),
		map[string]bool{
			nodes.NodeEscalate: true,
			nodes.NodeFinalize: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeCheck, escalationBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding escalation branch")
		return fmt.Errorf("error adding escalation branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, string], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithGraphName("support_orchestrator"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
