package mcp

// --- Tool Arguments ---

type CreateTaskArgs struct {
	Content   string `json:"content" jsonschema:"The task or note text,required"`
	Status    string `json:"status,omitempty" jsonschema:"Initial status: open, in_progress, waiting, done, archived. Defaults to 'open',enum=open,enum=in_progress,enum=waiting,enum=done,enum=archived"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"ID of an existing project to file the task under"`
}

type CreateTaskResult struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type UpdateStatusArgs struct {
	TaskID string `json:"task_id" jsonschema:"required"`
	Status string `json:"status" jsonschema:"New status,required,enum=open,enum=in_progress,enum=waiting,enum=done,enum=archived"`
}

type LinkTasksArgs struct {
	SourceID string   `json:"source_id" jsonschema:"required"`
	TargetID string   `json:"target_id" jsonschema:"required"`
	LinkType string   `json:"link_type" jsonschema:"The relationship type (e.g. 'waiting', 'blocks', 'references', 'related'),required"`
	Label    string   `json:"label,omitempty" jsonschema:"Optional free-text annotation for the link"`
	Strength *float64 `json:"strength,omitempty" jsonschema:"Optional link weight between 0.0 and 1.0"`
}

type LinkTasksResult struct {
	LinkID string `json:"link_id"`
}

type BacklinksArgs struct {
	TaskID          string `json:"task_id" jsonschema:"required"`
	LinkType        string `json:"link_type,omitempty" jsonschema:"Only follow links of this type"`
	Depth           int    `json:"depth,omitempty" jsonschema:"Traversal depth (default 1)"`
	IncludeIndirect bool   `json:"include_indirect,omitempty" jsonschema:"Follow links transitively beyond direct neighbors"`
}

type ExploreArgs struct {
	TaskID    string   `json:"task_id" jsonschema:"required"`
	Depth     int      `json:"depth,omitempty" jsonschema:"How many hops out to explore (default 2)"`
	LinkTypes []string `json:"link_types,omitempty" jsonschema:"Filter by link types (e.g. ['waiting','blocks'])"`
}

type ExploreResult struct {
	GraphDescription string `json:"graph_description"` // Textual description for the LLM
	NodeCount        int    `json:"node_count"`
	EdgeCount        int    `json:"edge_count"`
}

type TaskIDArgs struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type CyclesResult struct {
	HasCycles   bool     `json:"has_cycles"`
	Description string   `json:"description"`
	Cycles      []string `json:"cycles,omitempty"` // "A -> B -> A" per cycle
}

type ChainResult struct {
	Description string   `json:"description"`
	Chain       []string `json:"chain"` // Formatted strings for the LLM
}

type ImportanceResult struct {
	Score       float64 `json:"score"`
	Ranking     string  `json:"ranking"`
	Description string  `json:"description"`
}

type OrphansResult struct {
	Orphans []string `json:"orphans"` // "id: content" per orphan
	Count   int      `json:"count"`
}
