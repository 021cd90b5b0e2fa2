package mastery

// ThreadProgress is the thread-level completion summary.
type ThreadProgress struct {
	OverallProgress float64 `json:"overall_progress"`
	TotalNodes      int     `json:"total_nodes"`
	MasteredNodes   int     `json:"mastered_nodes"`

	// MeanProgress averages the per-node gate progress.
	MeanProgress float64 `json:"mean_progress"`
}

// CalculateThreadProgress reduces a thread's states to completion metrics.
// Each state is gated against its own node's critical tags, looked up by
// NodeID. An empty thread reports zero progress.
func (m *Model) CalculateThreadProgress(states []State, criticalByNode map[string][]string) ThreadProgress {
	tp := ThreadProgress{TotalNodes: len(states)}
	if tp.TotalNodes == 0 {
		return tp
	}
	sum := 0.0
	for _, s := range states {
		v := m.CheckMastery(s, criticalByNode[s.NodeID])
		if v.IsMastered {
			tp.MasteredNodes++
		}
		sum += v.Progress
	}
	tp.OverallProgress = float64(tp.MasteredNodes) / float64(tp.TotalNodes)
	tp.MeanProgress = sum / float64(tp.TotalNodes)
	return tp
}

// MasteredSet returns the IDs of nodes whose state passes the gate.
func (m *Model) MasteredSet(states map[string]State, criticalByNode map[string][]string) map[string]bool {
	out := make(map[string]bool)
	for id, s := range states {
		if m.CheckMastery(s, criticalByNode[id]).IsMastered {
			out[id] = true
		}
	}
	return out
}
