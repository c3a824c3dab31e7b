package graph

// Ranking is the categorical importance bucket of a task.
type Ranking string

const (
	RankIsolated Ranking = "isolated"
	RankLow      Ranking = "low"
	RankMedium   Ranking = "medium"
	RankHigh     Ranking = "high"
	RankCritical Ranking = "critical"
)

// ImportanceResult is the heuristic importance of one task.
type ImportanceResult struct {
	TaskID          string  `json:"task_id"`
	BacklinkScore   float64 `json:"backlink_score"`
	BlockingScore   float64 `json:"blocking_score"`
	ImportanceScore float64 `json:"importance_score"`
	Ranking         Ranking `json:"ranking"`
}

// TaskImportance scores a task from the current graph state:
//
//	backlinkScore = sum of direct backlink strengths (1.0 when unset)
//	blockingScore = transitively blocked task count x 2
//	importance    = backlinkScore + blockingScore
//
// This is a local heuristic, not a global ranking: it looks one hop around
// the task (plus the bounded blocking chain) and carries no stability
// guarantee across unrelated graph edits.
func (e *Engine) TaskImportance(taskID string) ImportanceResult {
	var backlinkScore float64
	for _, r := range e.Backlinks(taskID, LinkQueryOptions{}).Backlinks {
		backlinkScore += r.Link.Weight()
	}

	blockingScore := float64(e.BlockingChain(taskID).Count) * 2

	score := backlinkScore + blockingScore
	return ImportanceResult{
		TaskID:          taskID,
		BacklinkScore:   backlinkScore,
		BlockingScore:   blockingScore,
		ImportanceScore: score,
		Ranking:         rankFor(score),
	}
}

// rankFor buckets a score. Boundaries are half-open: 3 is already medium,
// 10 already high, 20 already critical.
func rankFor(score float64) Ranking {
	switch {
	case score <= 0:
		return RankIsolated
	case score < 3:
		return RankLow
	case score < 10:
		return RankMedium
	case score < 20:
		return RankHigh
	default:
		return RankCritical
	}
}
