package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gridnoise/tasknet/pkg/engine"
	"github.com/gridnoise/tasknet/pkg/graph"
	"github.com/gridnoise/tasknet/pkg/model"
)

type Service struct {
	engine *engine.Engine
	graph  *graph.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{
		engine: eng,
		graph:  graph.New(eng),
	}
}

// --- Tool Handlers ---

func (s *Service) CreateTask(ctx context.Context, req *mcp.CallToolRequest, args CreateTaskArgs) (*mcp.CallToolResult, CreateTaskResult, error) {
	task, err := s.engine.TaskCreate(args.Content, model.Status(args.Status), args.ProjectID)
	if err != nil {
		return nil, CreateTaskResult{}, err
	}
	return nil, CreateTaskResult{TaskID: task.ID, Status: string(task.Status)}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req *mcp.CallToolRequest, args UpdateStatusArgs) (*mcp.CallToolResult, struct{}, error) {
	status := model.Status(args.Status)
	if _, err := s.engine.TaskApplyUpdate(args.TaskID, engine.TaskUpdate{Status: &status}); err != nil {
		return nil, struct{}{}, err
	}
	return nil, struct{}{}, nil
}

func (s *Service) LinkTasks(ctx context.Context, req *mcp.CallToolRequest, args LinkTasksArgs) (*mcp.CallToolResult, LinkTasksResult, error) {
	link, err := s.engine.LinkCreate(args.SourceID, args.TargetID, model.LinkType(args.LinkType), args.Label, args.Strength)
	if err != nil {
		return nil, LinkTasksResult{}, err
	}
	return nil, LinkTasksResult{LinkID: link.ID}, nil
}

func (s *Service) Backlinks(ctx context.Context, req *mcp.CallToolRequest, args BacklinksArgs) (*mcp.CallToolResult, ChainResult, error) {
	if _, err := s.engine.TaskGet(args.TaskID); err != nil {
		return nil, ChainResult{}, err
	}
	result := s.graph.Backlinks(args.TaskID, graph.LinkQueryOptions{
		LinkType:        model.LinkType(args.LinkType),
		Depth:           args.Depth,
		IncludeIndirect: args.IncludeIndirect,
	})

	chain := make([]string, 0, len(result.Backlinks))
	for _, rec := range result.Backlinks {
		chain = append(chain, fmt.Sprintf("[%s] %s (%s, depth %d)", rec.Task.ID, rec.Task.Content, rec.Link.Type, rec.Depth))
	}
	desc := fmt.Sprintf("%d task(s) link to %s", result.Count, args.TaskID)
	return nil, ChainResult{Description: desc, Chain: chain}, nil
}

func (s *Service) Explore(ctx context.Context, req *mcp.CallToolRequest, args ExploreArgs) (*mcp.CallToolResult, ExploreResult, error) {
	if _, err := s.engine.TaskGet(args.TaskID); err != nil {
		return nil, ExploreResult{}, err
	}

	opts := graph.RelatedGraphOptions{Depth: args.Depth}
	for _, lt := range args.LinkTypes {
		opts.LinkTypes = append(opts.LinkTypes, model.LinkType(lt))
	}
	sub := s.graph.RelatedGraph(args.TaskID, opts)

	var sb strings.Builder
	for _, n := range sub.Nodes {
		fmt.Fprintf(&sb, "- [%s] %s (status: %s, depth %d)\n", n.ID, n.Content, n.Status, n.Depth)
	}
	for _, e := range sub.Edges {
		fmt.Fprintf(&sb, "  %s -(%s)-> %s\n", e.SourceID, e.Type, e.TargetID)
	}
	if len(sub.Cycles) > 0 {
		fmt.Fprintf(&sb, "WARNING: %d cycle(s) present in this neighborhood\n", len(sub.Cycles))
	}

	return nil, ExploreResult{
		GraphDescription: sb.String(),
		NodeCount:        sub.NodeCount,
		EdgeCount:        sub.EdgeCount,
	}, nil
}

func (s *Service) DetectCycles(ctx context.Context, req *mcp.CallToolRequest, args TaskIDArgs) (*mcp.CallToolResult, CyclesResult, error) {
	if _, err := s.engine.TaskGet(args.TaskID); err != nil {
		return nil, CyclesResult{}, err
	}
	report := s.graph.DetectCycles(args.TaskID)

	res := CyclesResult{HasCycles: report.HasCycles}
	for _, c := range report.Cycles {
		res.Cycles = append(res.Cycles, strings.Join(c.Path, " -> "))
	}
	if report.HasCycles {
		res.Description = fmt.Sprintf("%d cycle(s) reachable from %s", len(report.Cycles), args.TaskID)
	} else {
		res.Description = "no cycles reachable from " + args.TaskID
	}
	return nil, res, nil
}

func (s *Service) BlockingChain(ctx context.Context, req *mcp.CallToolRequest, args TaskIDArgs) (*mcp.CallToolResult, ChainResult, error) {
	if _, err := s.engine.TaskGet(args.TaskID); err != nil {
		return nil, ChainResult{}, err
	}
	result := s.graph.BlockingChain(args.TaskID)

	chain := make([]string, 0, len(result.BlockedTasks))
	for _, rec := range result.BlockedTasks {
		chain = append(chain, fmt.Sprintf("[%s] %s (depth %d)", rec.Task.ID, rec.Task.Content, rec.Depth))
	}
	desc := fmt.Sprintf("%d task(s) are waiting on %s", result.Count, args.TaskID)
	return nil, ChainResult{Description: desc, Chain: chain}, nil
}

func (s *Service) TaskImportance(ctx context.Context, req *mcp.CallToolRequest, args TaskIDArgs) (*mcp.CallToolResult, ImportanceResult, error) {
	if _, err := s.engine.TaskGet(args.TaskID); err != nil {
		return nil, ImportanceResult{}, err
	}
	result := s.graph.TaskImportance(args.TaskID)
	desc := fmt.Sprintf("importance %.1f (%.1f from backlinks, %.1f from blocking)",
		result.ImportanceScore, result.BacklinkScore, result.BlockingScore)
	return nil, ImportanceResult{
		Score:       result.ImportanceScore,
		Ranking:     string(result.Ranking),
		Description: desc,
	}, nil
}

func (s *Service) FindOrphans(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, OrphansResult, error) {
	orphans := s.graph.OrphanTasks()
	res := OrphansResult{Count: len(orphans)}
	for _, t := range orphans {
		res.Orphans = append(res.Orphans, fmt.Sprintf("%s: %s", t.ID, t.Content))
	}
	return nil, res, nil
}
