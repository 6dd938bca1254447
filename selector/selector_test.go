package selector

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// stubHealth 固定健康视图.
type stubHealth struct {
	statuses map[string]types.HealthStatus
}

func (h *stubHealth) Status(id string) (types.HealthStatus, bool) {
	st, ok := h.statuses[id]
	return st, ok
}

func node(id, domain string, tier types.PrivacyTier, caps ...string) *types.Node {
	if len(caps) == 0 {
		caps = []string{"search"}
	}
	return &types.Node{
		ID:           id,
		Endpoint:     "http://127.0.0.1:9000/" + id,
		Domain:       domain,
		PrivacyTier:  tier,
		Capabilities: caps,
		Available:    true,
	}
}

func analysis(domain string, privacy types.PrivacyTier, maxNodes int) *types.QueryAnalysis {
	return &types.QueryAnalysis{
		Query:                "q",
		Domain:               domain,
		PrivacyRequirement:   privacy,
		RequiredCapabilities: []string{"search"},
		MaxNodes:             maxNodes,
	}
}

func newTestSelector(h HealthView) *Selector {
	if h == nil {
		h = &stubHealth{}
	}
	return New(DefaultConfig(), h, zap.NewNop())
}

func TestSelectFiltersUnavailable(t *testing.T) {
	s := newTestSelector(nil)
	down := node("down", "tech", types.TierPublic)
	down.Available = false

	got := s.Select(analysis("tech", types.TierPublic, 5), []*types.Node{down, node("up", "tech", types.TierPublic)})
	if len(got) != 1 || got[0].ID != "up" {
		t.Fatalf("expected only up node, got %v", ids(got))
	}
}

func TestSelectFiltersDomain(t *testing.T) {
	s := newTestSelector(nil)
	nodes := []*types.Node{
		node("tech-1", "tech", types.TierPublic),
		node("legal-1", "legal", types.TierPublic),
		node("gen-1", "general", types.TierPublic),
	}

	got := s.Select(analysis("tech", types.TierPublic, 5), nodes)
	if len(got) != 2 {
		t.Fatalf("expected tech + general nodes, got %v", ids(got))
	}
	// 精确域匹配得分高于通用域
	if got[0].ID != "tech-1" || got[1].ID != "gen-1" {
		t.Errorf("expected [tech-1 gen-1], got %v", ids(got))
	}
}

// 隐私单调序: 节点级别严于查询需求时绝不选中.
func TestSelectPrivacyInvariant(t *testing.T) {
	s := newTestSelector(nil)
	nodes := []*types.Node{
		node("pub", "general", types.TierPublic),
		node("conf", "general", types.TierConfidential),
		node("restr", "general", types.TierRestricted),
	}

	tests := []struct {
		requirement types.PrivacyTier
		want        []string
	}{
		{types.TierPublic, []string{"pub"}},
		{types.TierConfidential, []string{"conf", "pub"}},
		{types.TierRestricted, []string{"conf", "pub", "restr"}},
	}

	for _, tt := range tests {
		got := s.Select(analysis("general", tt.requirement, 5), nodes)
		for _, n := range got {
			if !n.PrivacyTier.AllowedBy(tt.requirement) {
				t.Errorf("requirement %s selected over-strict node %s", tt.requirement, n.ID)
			}
		}
		if len(got) != len(tt.want) {
			t.Errorf("requirement %s: got %v, want %v", tt.requirement, ids(got), tt.want)
		}
	}
}

func TestSelectRequiredCapabilities(t *testing.T) {
	s := newTestSelector(nil)
	nodes := []*types.Node{
		node("imgless", "tech", types.TierPublic, "search"),
		node("imgful", "tech", types.TierPublic, "search", "image_search"),
	}

	a := analysis("tech", types.TierPublic, 5)
	a.RequiredCapabilities = []string{"search", "image_search"}

	got := s.Select(a, nodes)
	if len(got) != 1 || got[0].ID != "imgful" {
		t.Fatalf("expected only node with image_search, got %v", ids(got))
	}
}

func TestSelectFiltersUnhealthy(t *testing.T) {
	h := &stubHealth{statuses: map[string]types.HealthStatus{
		"sick": {NodeID: "sick", IsHealthy: false, ConsecutiveFailures: 3},
		"ok":   {NodeID: "ok", IsHealthy: true},
	}}
	s := newTestSelector(h)

	got := s.Select(analysis("tech", types.TierPublic, 5), []*types.Node{
		node("sick", "tech", types.TierPublic),
		node("ok", "tech", types.TierPublic),
	})
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected unhealthy node filtered, got %v", ids(got))
	}
}

func TestSelectMaxNodesCap(t *testing.T) {
	s := newTestSelector(nil)
	nodes := []*types.Node{
		node("a", "tech", types.TierPublic),
		node("b", "tech", types.TierPublic),
		node("c", "tech", types.TierPublic),
	}

	got := s.Select(analysis("tech", types.TierPublic, 2), nodes)
	if len(got) != 2 {
		t.Fatalf("len(selected) = %d, want 2", len(got))
	}
}

func TestSelectLatencyScoring(t *testing.T) {
	s := newTestSelector(nil)
	fast := node("fast", "tech", types.TierPublic)
	fast.LastLatency = 10 * time.Millisecond
	slow := node("slow", "tech", types.TierPublic)
	slow.LastLatency = 3 * time.Second

	got := s.Select(analysis("tech", types.TierPublic, 5), []*types.Node{slow, fast})
	if got[0].ID != "fast" {
		t.Errorf("expected fast node ranked first, got %v", ids(got))
	}
}

func TestSelectOptionalCapabilityBonus(t *testing.T) {
	s := newTestSelector(nil)
	plain := node("plain", "tech", types.TierPublic)
	semantic := node("semantic", "tech", types.TierPublic, "search", "semantic_search")

	a := analysis("tech", types.TierPublic, 5)
	a.OptionalCapabilities = []string{"semantic_search"}

	got := s.Select(a, []*types.Node{plain, semantic})
	if got[0].ID != "semantic" {
		t.Errorf("expected optional-capability node ranked first, got %v", ids(got))
	}
}

// 平手按 ID 升序, 保证确定性.
func TestSelectDeterministicTieBreak(t *testing.T) {
	s := newTestSelector(nil)
	nodes := []*types.Node{
		node("zeta", "tech", types.TierPublic),
		node("alpha", "tech", types.TierPublic),
		node("mid", "tech", types.TierPublic),
	}

	for i := 0; i < 5; i++ {
		got := s.Select(analysis("tech", types.TierPublic, 5), nodes)
		want := []string{"alpha", "mid", "zeta"}
		for j := range want {
			if got[j].ID != want[j] {
				t.Fatalf("iteration %d: got %v, want %v", i, ids(got), want)
			}
		}
	}
}

func ids(nodes []*types.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
