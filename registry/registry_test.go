package registry

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

func testNode(id, domain string, tier types.PrivacyTier) *types.Node {
	return &types.Node{
		ID:           id,
		Endpoint:     "http://127.0.0.1:9000/" + id,
		Domain:       domain,
		Capabilities: []string{"search"},
		PrivacyTier:  tier,
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := New(zap.NewNop())

	if err := r.Register(testNode("legal-1", "legal", types.TierConfidential)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	n, ok := r.Get("legal-1")
	if !ok {
		t.Fatal("expected node to be found")
	}
	if n.Domain != "legal" {
		t.Errorf("expected domain legal, got %s", n.Domain)
	}
	if n.RegisteredAt.IsZero() {
		t.Error("expected RegisteredAt to be stamped")
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := New(nil)
	if err := r.Register(testNode("n1", "tech", types.TierPublic)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := r.Register(testNode("n1", "tech", types.TierPublic))
	if !types.IsCode(err, types.ErrNodeExists) {
		t.Errorf("expected NODE_EXISTS, got %v", err)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	r := New(nil)
	err := r.Register(&types.Node{ID: "bad"})
	if !types.IsCode(err, types.ErrInvalidNode) {
		t.Errorf("expected INVALID_NODE, got %v", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := New(nil)
	if err := r.Register(testNode("n1", "tech", types.TierPublic)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Remove("n1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := r.Get("n1"); ok {
		t.Error("expected node to be gone")
	}
	if err := r.Remove("n1"); !types.IsCode(err, types.ErrNodeNotFound) {
		t.Errorf("expected NODE_NOT_FOUND, got %v", err)
	}
}

func TestRegistryListIsSortedAndCloned(t *testing.T) {
	r := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		if err := r.Register(testNode(id, "general", types.TierPublic)); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	nodes := r.List()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	for i, want := range []string{"a", "b", "c"} {
		if nodes[i].ID != want {
			t.Errorf("expected nodes[%d] = %s, got %s", i, want, nodes[i].ID)
		}
	}

	// 修改返回的快照不应影响注册表内部状态
	nodes[0].Domain = "mutated"
	fresh, _ := r.Get("a")
	if fresh.Domain != "general" {
		t.Error("List must return clones")
	}
}

func TestRegistrySetAvailability(t *testing.T) {
	r := New(nil)
	if err := r.Register(testNode("n1", "tech", types.TierPublic)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := r.SetAvailability("n1", true, 120*time.Millisecond); err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}
	n, _ := r.Get("n1")
	if !n.Available {
		t.Error("expected node available")
	}
	if n.LastLatency != 120*time.Millisecond {
		t.Errorf("expected latency recorded, got %v", n.LastLatency)
	}

	if err := r.SetAvailability("ghost", true, 0); !types.IsCode(err, types.ErrNodeNotFound) {
		t.Errorf("expected NODE_NOT_FOUND, got %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := New(nil)
	if err := r.Register(testNode("n1", "tech", types.TierPublic)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = r.SetAvailability("n1", i%2 == 0, time.Duration(i)*time.Millisecond)
		}
	}()
	for i := 0; i < 500; i++ {
		r.List()
		r.Get("n1")
	}
	<-done
}
