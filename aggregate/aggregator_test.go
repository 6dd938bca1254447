package aggregate

import (
	"testing"
	"time"

	"github.com/BaSui01/fedsearch/types"
)

func aggTestNodes() []*types.Node {
	return []*types.Node{
		{ID: "med", Domain: "medical", PrivacyTier: types.TierPublic, Available: true},
		{ID: "gen", Domain: "general", PrivacyTier: types.TierPublic, Available: true},
	}
}

func aggAnalysis(strategy types.RankingStrategy) *types.QueryAnalysis {
	return &types.QueryAnalysis{
		Query:           "diabetes care",
		Domain:          "medical",
		RankingStrategy: strategy,
	}
}

func TestAggregateBuildsBreakdown(t *testing.T) {
	results := map[string]types.NodeResult{
		"med": {
			NodeID: "med", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{{Content: "clinical result.", Score: 0.8, SourceNode: "med", NodeConfidence: 0.9}},
			Latency:   30 * time.Millisecond,
		},
		"gen": {
			NodeID: "gen", Success: false, Outcome: types.OutcomeTimeout,
			Latency: 30 * time.Second, Error: "deadline exceeded",
		},
	}

	agg := NewAggregator(DefaultConfig(), nil)
	out := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.StrategyQualityWeighted))

	if out.NodesContributing != 1 {
		t.Errorf("nodes_contributing = %d, want 1", out.NodesContributing)
	}
	if len(out.NodeBreakdown) != 2 {
		t.Fatalf("breakdown entries = %d, want 2", len(out.NodeBreakdown))
	}
	if entry := out.NodeBreakdown["gen"]; entry.Success || entry.Outcome != types.OutcomeTimeout || entry.Error == "" {
		t.Errorf("failed node entry = %+v", entry)
	}
	if entry := out.NodeBreakdown["med"]; !entry.Success || entry.Count != 1 {
		t.Errorf("healthy node entry = %+v", entry)
	}
	if len(out.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(out.Documents))
	}
	if out.StrategyUsed != types.StrategyQualityWeighted {
		t.Errorf("strategy = %s", out.StrategyUsed)
	}
}

func TestAggregateAllNodesFailed(t *testing.T) {
	results := map[string]types.NodeResult{
		"med": {NodeID: "med", Outcome: types.OutcomeUnreachable, Error: "refused"},
		"gen": {NodeID: "gen", Outcome: types.OutcomeTimeout, Error: "deadline"},
	}
	agg := NewAggregator(DefaultConfig(), nil)
	out := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.StrategyQualityWeighted))

	if out.NodesContributing != 0 {
		t.Errorf("nodes_contributing = %d, want 0", out.NodesContributing)
	}
	if len(out.Documents) != 0 {
		t.Errorf("documents = %d, want 0", len(out.Documents))
	}
	// 失败信息完整保留在 breakdown 里, 供上层构造不可用响应
	if len(out.NodeBreakdown) != 2 {
		t.Errorf("breakdown entries = %d, want 2", len(out.NodeBreakdown))
	}
}

func TestAggregateCrossNodeDedup(t *testing.T) {
	results := map[string]types.NodeResult{
		"med": {NodeID: "med", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{{Content: "shared doc.", Score: 0.9, SourceNode: "med"}}},
		"gen": {NodeID: "gen", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{{Content: "Shared Doc.", Score: 0.5, SourceNode: "gen"}}},
	}
	agg := NewAggregator(DefaultConfig(), nil)
	out := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.StrategyQualityWeighted))

	if out.DuplicatesRemoved != 1 {
		t.Errorf("duplicates_removed = %d, want 1", out.DuplicatesRemoved)
	}
	if len(out.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(out.Documents))
	}
	if out.Documents[0].SourceNode != "med" {
		t.Errorf("kept copy from %s, want the higher-scored med copy", out.Documents[0].SourceNode)
	}
}

func TestAggregateUnknownStrategyFallsBack(t *testing.T) {
	results := map[string]types.NodeResult{
		"med": {NodeID: "med", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{{Content: "doc.", Score: 0.5, SourceNode: "med"}}},
	}
	agg := NewAggregator(DefaultConfig(), nil)
	out := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.RankingStrategy("bogus")))

	if out.StrategyUsed != types.StrategyQualityWeighted {
		t.Errorf("strategy = %s, want quality_weighted fallback", out.StrategyUsed)
	}
}

func TestAggregateDeterministicAcrossRuns(t *testing.T) {
	results := map[string]types.NodeResult{
		"med": {NodeID: "med", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{
				{Content: "one.", Score: 0.5, SourceNode: "med"},
				{Content: "two.", Score: 0.5, SourceNode: "med"},
			}},
		"gen": {NodeID: "gen", Success: true, Outcome: types.OutcomeSuccess,
			Documents: []types.Document{{Content: "three.", Score: 0.5, SourceNode: "gen"}}},
	}
	agg := NewAggregator(DefaultConfig(), nil)
	agg.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	first := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.StrategyQualityWeighted))
	for i := 0; i < 5; i++ {
		again := agg.Aggregate(results, aggTestNodes(), aggAnalysis(types.StrategyQualityWeighted))
		if len(again.Documents) != len(first.Documents) {
			t.Fatal("result length varies across runs")
		}
		for j := range again.Documents {
			if again.Documents[j].Content != first.Documents[j].Content {
				t.Fatalf("ordering varies across runs at %d: %q vs %q",
					j, again.Documents[j].Content, first.Documents[j].Content)
			}
		}
	}
}
