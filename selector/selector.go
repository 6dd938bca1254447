// 包selector实现基于健康度与性能的节点选择与负载均衡.
// 过滤阶段淘汰不兼容节点, 排序阶段给幸存节点打分, 最后套用可插拔的选择策略.
package selector

import (
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// HealthView 选择器消费的健康状态只读视图, 由健康监控器实现.
// 读取是乐观的: 状态最多可能有一个探测间隔的陈旧度.
type HealthView interface {
	Status(nodeID string) (types.HealthStatus, bool)
}

// Config 配置节点选择器
type Config struct {
	// Strategy 选择策略: weighted, round_robin, least_connections
	Strategy string `json:"strategy"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{Strategy: StrategyWeighted}
}

// Candidate 一个打分后的候选节点
type Candidate struct {
	Node  *types.Node
	Score float64
}

// Selector 节点选择器 / 负载均衡器.
type Selector struct {
	config   Config
	health   HealthView
	strategy Strategy
	conns    *connTracker
	logger   *zap.Logger
}

// New 创建节点选择器.
func New(config Config, health HealthView, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	conns := newConnTracker()
	return &Selector{
		config:   config,
		health:   health,
		strategy: newStrategy(config.Strategy, conns),
		conns:    conns,
		logger:   logger.With(zap.String("component", "selector")),
	}
}

// Select 从候选节点中过滤并排序, 返回最多 analysis.MaxNodes 个节点.
//
// 过滤规则:
//   - 淘汰不可用节点
//   - 淘汰域既不匹配也非通用域的节点
//   - 淘汰隐私级别严于查询隐私需求的节点 (单调序不变量)
//   - 淘汰缺少任一必需能力的节点
//
// 打分规则:
//   - 域精确匹配 +2, 通用域 +1
//   - 时延反比加分, 上限 2
//   - 每命中一个可选能力 +0.5
//
// 平手按节点 ID 升序, 保证确定性.
func (s *Selector) Select(analysis *types.QueryAnalysis, nodes []*types.Node) []*types.Node {
	candidates := make([]Candidate, 0, len(nodes))

	for _, node := range nodes {
		if !s.eligible(analysis, node) {
			continue
		}
		candidates = append(candidates, Candidate{
			Node:  node,
			Score: s.score(analysis, node),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Node.ID < candidates[j].Node.ID
	})

	candidates = s.strategy.Arrange(candidates)

	max := analysis.MaxNodes
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}

	selected := make([]*types.Node, 0, max)
	for _, c := range candidates[:max] {
		selected = append(selected, c.Node)
	}

	s.logger.Debug("nodes selected",
		zap.Int("candidates", len(nodes)),
		zap.Int("eligible", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.String("strategy", s.strategy.Name()))
	return selected
}

// eligible 过滤阶段.
func (s *Selector) eligible(analysis *types.QueryAnalysis, node *types.Node) bool {
	if !node.Available {
		return false
	}
	if node.Domain != analysis.Domain && node.Domain != types.DomainGeneral {
		return false
	}
	if !node.PrivacyTier.AllowedBy(analysis.PrivacyRequirement) {
		return false
	}
	for _, cap := range analysis.RequiredCapabilities {
		if !node.HasCapability(cap) {
			return false
		}
	}
	// 健康视图有记录且明确不健康时淘汰; 无记录的新节点放行
	if st, ok := s.health.Status(node.ID); ok && !st.IsHealthy {
		return false
	}
	return true
}

// score 排序阶段.
func (s *Selector) score(analysis *types.QueryAnalysis, node *types.Node) float64 {
	score := 0.0

	if node.Domain == analysis.Domain {
		score += 2.0
	} else if node.Domain == types.DomainGeneral {
		score += 1.0
	}

	// 时延加分: 0s -> +2, 1s -> +1, 越慢越少
	latency := node.LastLatency
	if st, ok := s.health.Status(node.ID); ok && st.Latency > 0 {
		latency = st.Latency
	}
	score += 2.0 / (1.0 + latency.Seconds())

	for _, cap := range analysis.OptionalCapabilities {
		if node.HasCapability(cap) {
			score += 0.5
		}
	}

	return score
}

// Acquire 登记即将向这些节点发起的调用 (原子连接计数).
func (s *Selector) Acquire(nodeIDs []string) {
	for _, id := range nodeIDs {
		s.conns.acquire(id)
	}
}

// Release 释放已完成调用的连接计数.
func (s *Selector) Release(nodeIDs []string) {
	for _, id := range nodeIDs {
		s.conns.release(id)
	}
}

// ActiveConnections 返回节点当前在途调用数.
func (s *Selector) ActiveConnections(nodeID string) int64 {
	return s.conns.active(nodeID)
}
