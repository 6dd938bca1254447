package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/BaSui01/fedsearch/types"
)

func testRankContext(max int) rankContext {
	return rankContext{
		domain:      "medical",
		nodeDomains: map[string]string{"a": "medical", "b": "general", "c": "legal"},
		breakdown: map[string]types.NodeBreakdown{
			"a": {Success: true, Count: 5, Latency: 20 * time.Millisecond},
			"b": {Success: true, Count: 5, Latency: 40 * time.Millisecond},
			"c": {Success: true, Count: 5, Latency: 80 * time.Millisecond},
		},
		maxResults: max,
		now:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestQualityWeightedBreakdownReproducesScore(t *testing.T) {
	docs := []types.Document{
		{Content: "recent clinical trial results for diabetes care.", Score: 0.9,
			SourceNode: "a", NodeConfidence: 0.8,
			Metadata: map[string]any{"title": "Trial", "published_at": "2026-07-01T00:00:00Z"}},
		{Content: "older overview of treatment options.", Score: 0.6,
			SourceNode: "b", NodeConfidence: 0.5},
	}

	ranked := rankQualityWeighted(docs, testRankContext(10))
	for _, doc := range ranked {
		bd := doc.ScoreBreakdown
		if bd == nil {
			t.Fatalf("document %q missing score breakdown", doc.Content)
		}
		sum := 0.30*bd.BaseRelevance + 0.25*bd.NodeQuality +
			0.15*bd.Freshness + 0.15*bd.DomainRelevance + 0.15*bd.ContentQuality
		if math.Abs(sum-bd.FederatedScore) > 1e-9 {
			t.Errorf("breakdown sum %v != federated score %v", sum, bd.FederatedScore)
		}
		if doc.Score != bd.FederatedScore {
			t.Errorf("document score %v != federated score %v", doc.Score, bd.FederatedScore)
		}
	}
}

func TestQualityWeightedOrdering(t *testing.T) {
	docs := []types.Document{
		{Content: "weak match.", Score: 0.1, SourceNode: "c", NodeConfidence: 0.2},
		{Content: "strong recent match from the right domain.", Score: 0.95,
			SourceNode: "a", NodeConfidence: 0.9,
			Metadata: map[string]any{"title": "Match", "published_at": "2026-07-15T00:00:00Z"}},
	}
	ranked := rankQualityWeighted(docs, testRankContext(10))
	if ranked[0].SourceNode != "a" {
		t.Errorf("expected the strong document first, got %+v", ranked[0])
	}
}

// 分数融合: 两个节点各报 0.9 与 0.8 的同一文档
// 融合为 (0.9+0.8)/2 + 0.05·2 = 0.95, 并记录 source_count=2.
func TestScoreFusionCrossNodeBoost(t *testing.T) {
	docs := []types.Document{
		{Content: "shared guideline document", Score: 0.9, SourceNode: "a"},
		{Content: "shared guideline document", Score: 0.8, SourceNode: "b"},
		{Content: "unique document", Score: 0.85, SourceNode: "c"},
	}

	ranked, removed := rankScoreFusion(docs, testRankContext(10))
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d documents, want 2", len(ranked))
	}

	fused := ranked[0]
	if math.Abs(fused.Score-0.95) > 1e-9 {
		t.Errorf("fused score = %v, want 0.95", fused.Score)
	}
	if fused.Metadata["source_count"] != 2 {
		t.Errorf("source_count = %v, want 2", fused.Metadata["source_count"])
	}
	// 单来源文档保持原始分数, 无 source_count 标记
	if math.Abs(ranked[1].Score-0.85) > 1e-9 {
		t.Errorf("single-source score = %v, want 0.85", ranked[1].Score)
	}
	if _, ok := ranked[1].Metadata["source_count"]; ok {
		t.Errorf("single-source document carries source_count = %v, want absent", ranked[1].Metadata["source_count"])
	}
}

func TestScoreFusionBoostCap(t *testing.T) {
	docs := make([]types.Document, 0, 6)
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		docs = append(docs, types.Document{Content: "everywhere", Score: 0.5, SourceNode: n})
	}
	ranked, _ := rankScoreFusion(docs, testRankContext(10))
	// 6 来源的加成封顶 0.2: 0.5 + 0.2
	if math.Abs(ranked[0].Score-0.7) > 1e-9 {
		t.Errorf("capped score = %v, want 0.7", ranked[0].Score)
	}
}

func TestRoundRobinInterleaves(t *testing.T) {
	docs := []types.Document{
		{Content: "a1", Score: 0.9, SourceNode: "a"},
		{Content: "a2", Score: 0.8, SourceNode: "a"},
		{Content: "b1", Score: 0.2, SourceNode: "b"},
		{Content: "b2", Score: 0.1, SourceNode: "b"},
	}
	ranked := rankRoundRobin(docs, testRankContext(10))

	want := []string{"a1", "b1", "a2", "b2"}
	for i, content := range want {
		if ranked[i].Content != content {
			t.Errorf("position %d = %q, want %q", i, ranked[i].Content, content)
		}
	}
}

func TestRoundRobinUnevenPartitions(t *testing.T) {
	docs := []types.Document{
		{Content: "a1", Score: 0.9, SourceNode: "a"},
		{Content: "b1", Score: 0.8, SourceNode: "b"},
		{Content: "b2", Score: 0.7, SourceNode: "b"},
		{Content: "b3", Score: 0.6, SourceNode: "b"},
	}
	ranked := rankRoundRobin(docs, testRankContext(10))
	if len(ranked) != 4 {
		t.Fatalf("got %d documents, want 4", len(ranked))
	}
	want := []string{"a1", "b1", "b2", "b3"}
	for i, content := range want {
		if ranked[i].Content != content {
			t.Errorf("position %d = %q, want %q", i, ranked[i].Content, content)
		}
	}
}

func TestDiversityAwareCapsResults(t *testing.T) {
	docs := make([]types.Document, 0, 30)
	for i := 0; i < 30; i++ {
		docs = append(docs, types.Document{
			Content:    "document number " + string(rune('a'+i)),
			Score:      float64(i) / 30.0,
			SourceNode: "a",
		})
	}
	ranked, _ := rankDiversityAware(docs, testRankContext(20))
	if len(ranked) != 20 {
		t.Errorf("got %d documents, want diversity cap 20", len(ranked))
	}
}

func TestDiversityAwareDedupsAfterScoring(t *testing.T) {
	docs := []types.Document{
		{Content: "duplicate entry", Score: 0.9, SourceNode: "a", NodeConfidence: 0.9},
		{Content: "duplicate entry", Score: 0.3, SourceNode: "c", NodeConfidence: 0.2},
		{Content: "distinct entry", Score: 0.5, SourceNode: "b", NodeConfidence: 0.5},
	}
	ranked, removed := rankDiversityAware(docs, testRankContext(10))
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d documents, want 2", len(ranked))
	}
	for _, doc := range ranked {
		if doc.Content == "duplicate entry" && doc.SourceNode != "a" {
			t.Errorf("kept the lower-quality copy: %+v", doc)
		}
	}
}
