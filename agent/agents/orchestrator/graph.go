package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileOrchestrateGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now, o.newID)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("touch_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.TouchState(ctx, in, o.manager)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node touch_state: %w", err)
	}

	if err := graph.AddLambdaNode("analyze_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnalyzeMessage(in, o.interest, o.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node analyze_message: %w", err)
	}

	if err := graph.AddLambdaNode("record_levels",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordLevels(ctx, in, o.manager)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_levels: %w", err)
	}

	if err := graph.AddLambdaNode("apply_extracted_info",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyExtractedInfo(ctx, in, o.manager)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_extracted_info: %w", err)
	}

	if err := graph.AddLambdaNode("apply_declines",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyDeclines(ctx, in, o.manager, o.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_declines: %w", err)
	}

	if err := graph.AddLambdaNode("recommend_goals",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecommendGoals(ctx, in, o.manager, o.templates)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node recommend_goals: %w", err)
	}

	if err := graph.AddLambdaNode("completion_triggers",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CompletionTriggers(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node completion_triggers: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeResult(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_result: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "touch_state"},
		{"touch_state", "analyze_message"},
		{"analyze_message", "record_levels"},
		{"record_levels", "apply_extracted_info"},
		{"apply_extracted_info", "apply_declines"},
		{"apply_declines", "recommend_goals"},
		{"recommend_goals", "completion_triggers"},
		{"completion_triggers", "finalize_result"},
		{"finalize_result", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.orchestrate_goals"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
