package aggregate

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// Config 聚合器配置
type Config struct {
	// MaxResults 最终结果集上限
	MaxResults int `json:"max_results"`
}

// DefaultConfig 返回默认聚合配置
func DefaultConfig() Config {
	return Config{MaxResults: 20}
}

// Aggregator 把各节点的原始结果折叠为单一排序结果集.
// 去重与排序策略在这里收口; 失败节点以 node_breakdown 条目的形式保留.
type Aggregator struct {
	config Config
	logger *zap.Logger
	// now 可注入时钟, 新鲜度评分用
	now func() time.Time
}

// NewAggregator 创建聚合器.
func NewAggregator(config Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 20
	}
	return &Aggregator{
		config: config,
		logger: logger.With(zap.String("component", "result_aggregator")),
		now:    time.Now,
	}
}

// Aggregate 按策略聚合所有节点结果.
// results 必须对每个被调度节点恰含一个条目; nodes 提供域信息用于评分.
func (a *Aggregator) Aggregate(results map[string]types.NodeResult, nodes []*types.Node, analysis *types.QueryAnalysis) *types.AggregatedResult {
	strategy := analysis.RankingStrategy
	if !types.ValidStrategy(strategy) {
		strategy = types.StrategyQualityWeighted
	}

	breakdown := make(map[string]types.NodeBreakdown, len(results))
	contributing := 0
	var pool []types.Document

	// 按节点 ID 排序遍历, 保证文档池顺序可重现
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := results[id]
		breakdown[id] = types.NodeBreakdown{
			Success: res.Success,
			Outcome: res.Outcome,
			Count:   len(res.Documents),
			Latency: res.Latency,
			Error:   res.Error,
		}
		if res.Success && len(res.Documents) > 0 {
			contributing++
			pool = append(pool, res.Documents...)
		}
	}

	rc := rankContext{
		domain:      analysis.Domain,
		nodeDomains: nodeDomainIndex(nodes),
		breakdown:   breakdown,
		maxResults:  a.config.MaxResults,
		now:         a.now(),
	}

	var ranked []types.Document
	removed := 0
	switch strategy {
	case types.StrategyQualityWeighted:
		pool, removed = dedup(pool)
		ranked = rankQualityWeighted(pool, rc)
	case types.StrategyDiversityAware:
		ranked, removed = rankDiversityAware(pool, rc)
	case types.StrategyScoreFusion:
		ranked, removed = rankScoreFusion(pool, rc)
	case types.StrategyRoundRobin:
		pool, removed = dedup(pool)
		ranked = rankRoundRobin(pool, rc)
	}

	a.logger.Debug("results aggregated",
		zap.String("strategy", string(strategy)),
		zap.Int("nodes_contributing", contributing),
		zap.Int("documents", len(ranked)),
		zap.Int("duplicates_removed", removed))

	return &types.AggregatedResult{
		Documents:         ranked,
		NodesContributing: contributing,
		NodeBreakdown:     breakdown,
		StrategyUsed:      strategy,
		DuplicatesRemoved: removed,
	}
}

func nodeDomainIndex(nodes []*types.Node) map[string]string {
	index := make(map[string]string, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n.Domain
	}
	return index
}
