package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gridnoise/tasknet/pkg/engine"
)

func NewMCPServer(eng *engine.Engine) *mcp.Server {
	service := NewService(eng)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "TaskNet",
		Version: "0.3.1",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a new task or note, optionally filed under a project.",
	}, service.CreateTask)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "update_task_status",
		Description: "Change the status of an existing task (open, in_progress, waiting, done, archived).",
	}, service.UpdateStatus)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "link_tasks",
		Description: "Create a typed relationship between two tasks (e.g. 'waiting', 'blocks', 'references').",
	}, service.LinkTasks)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_backlinks",
		Description: "List the tasks that link TO a given task, optionally following links transitively.",
	}, service.Backlinks)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "explore_related",
		Description: "Explore the graph neighborhood of a task to understand its context and connections.",
	}, service.Explore)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "detect_cycles",
		Description: "Check whether a task is part of a circular dependency chain.",
	}, service.DetectCycles)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "blocking_chain",
		Description: "Find every task that is directly or transitively waiting on a given task.",
	}, service.BlockingChain)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "task_importance",
		Description: "Score how important a task is based on how many things reference or wait on it.",
	}, service.TaskImportance)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "find_orphans",
		Description: "List tasks with no links and no project, candidates for triage or archiving.",
	}, service.FindOrphans)

	return s
}
