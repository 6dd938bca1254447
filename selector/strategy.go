package selector

import (
	"sort"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 🎯 选择策略
// =============================================================================

const (
	// StrategyWeighted 按综合得分取前 N (默认)
	StrategyWeighted = "weighted"
	// StrategyRoundRobin 在排好序的候选间轮转起点, 分摊头部流量
	StrategyRoundRobin = "round_robin"
	// StrategyLeastConnections 优先在途调用最少的节点
	StrategyLeastConnections = "least_connections"
)

// Strategy 可插拔选择策略: 对已按得分排序的候选列表做最终编排.
type Strategy interface {
	Name() string
	Arrange(ranked []Candidate) []Candidate
}

func newStrategy(name string, conns *connTracker) Strategy {
	switch name {
	case StrategyRoundRobin:
		return &roundRobinStrategy{}
	case StrategyLeastConnections:
		return &leastConnectionsStrategy{conns: conns}
	default:
		return weightedStrategy{}
	}
}

// weightedStrategy 保持得分排序不变.
type weightedStrategy struct{}

func (weightedStrategy) Name() string                         { return StrategyWeighted }
func (weightedStrategy) Arrange(ranked []Candidate) []Candidate { return ranked }

// roundRobinStrategy 每次调用把起点向后轮转一位.
type roundRobinStrategy struct {
	counter atomic.Uint64
}

func (s *roundRobinStrategy) Name() string { return StrategyRoundRobin }

func (s *roundRobinStrategy) Arrange(ranked []Candidate) []Candidate {
	if len(ranked) < 2 {
		return ranked
	}
	offset := int(s.counter.Add(1)-1) % len(ranked)
	out := make([]Candidate, 0, len(ranked))
	out = append(out, ranked[offset:]...)
	out = append(out, ranked[:offset]...)
	return out
}

// leastConnectionsStrategy 按在途调用数升序稳定重排, 同计数保持得分序.
type leastConnectionsStrategy struct {
	conns *connTracker
}

func (s *leastConnectionsStrategy) Name() string { return StrategyLeastConnections }

func (s *leastConnectionsStrategy) Arrange(ranked []Candidate) []Candidate {
	out := append([]Candidate(nil), ranked...)
	sort.SliceStable(out, func(i, j int) bool {
		return s.conns.active(out[i].Node.ID) < s.conns.active(out[j].Node.ID)
	})
	return out
}

// =============================================================================
// 📊 连接计数
// =============================================================================

// connTracker 每节点在途调用计数, 原子更新.
// 这是查询路径上唯一的跨查询共享可变状态.
type connTracker struct {
	mu     sync.RWMutex
	counts map[string]*atomic.Int64
}

func newConnTracker() *connTracker {
	return &connTracker{counts: make(map[string]*atomic.Int64)}
}

func (t *connTracker) counter(id string) *atomic.Int64 {
	t.mu.RLock()
	c, ok := t.counts[id]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.counts[id]; ok {
		return c
	}
	c = &atomic.Int64{}
	t.counts[id] = c
	return c
}

func (t *connTracker) acquire(id string) { t.counter(id).Add(1) }

func (t *connTracker) release(id string) {
	if c := t.counter(id); c.Load() > 0 {
		c.Add(-1)
	}
}

func (t *connTracker) active(id string) int64 { return t.counter(id).Load() }
