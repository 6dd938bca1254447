package api

import (
	"github.com/BaSui01/fedsearch/types"
)

// =============================================================================
// 联邦检索类型
// =============================================================================

// SearchRequest 表示一次联邦检索请求。
// @Description 联邦检索请求结构
type SearchRequest struct {
	// 检索查询文本
	Query string `json:"query" example:"latest diabetes treatment research" binding:"required"`
	// 调用方上下文: 身份, 业务域, 隐私需求与过滤器
	UserContext types.UserContext `json:"user_context,omitempty"`
	// 排序策略覆盖 (quality_weighted, diversity_aware, score_fusion, round_robin)
	RankingStrategy string `json:"ranking_strategy,omitempty" example:"quality_weighted"`
	// 最终结果数上限
	MaxResults int `json:"max_results,omitempty" example:"20"`
}

// SearchResponse 表示联邦检索响应。
// @Description 联邦检索响应结构
type SearchResponse struct {
	// 本次查询的唯一 ID
	QueryID string `json:"query_id"`
	// 结果摘要
	Summary string `json:"summary,omitempty"`
	// 去重排序后的文档
	Documents []types.Document `json:"documents"`
	// 最终结果总数
	TotalResults int `json:"total_results"`
	// 实际贡献结果的节点数
	NodesContributing int `json:"nodes_contributing"`
	// 本次被调度的节点 ID
	NodesQueried []string `json:"nodes_queried"`
	// 实际使用的排序策略
	StrategyUsed string `json:"strategy_used"`
	// 聚合期间移除的跨节点重复数
	DuplicatesRemoved int `json:"duplicates_removed"`
	// 所有被选节点均失败时为 true
	Unavailable bool `json:"unavailable,omitempty"`
	// 各节点的调度观测
	NodeBreakdown map[string]types.NodeBreakdown `json:"node_breakdown,omitempty"`
	// 各阶段耗时
	PerformanceMetrics types.PerformanceMetrics `json:"performance_metrics"`
}

// =============================================================================
// 节点管理类型
// =============================================================================

// RegisterNodeRequest 表示节点注册请求。
// @Description 节点注册请求结构
type RegisterNodeRequest struct {
	// 节点 ID, 留空时自动生成
	ID string `json:"id,omitempty" example:"med-node-1"`
	// 展示名
	Name string `json:"name,omitempty" example:"Medical Research Node"`
	// 节点基础 URL
	Endpoint string `json:"endpoint" example:"https://medsearch.example.com" binding:"required"`
	// 业务域 (medical, legal, finance, tech, general)
	Domain string `json:"domain" example:"medical" binding:"required"`
	// 节点声明的能力
	Capabilities []string `json:"capabilities" example:"search,semantic_search"`
	// 隐私级别 (public, confidential, restricted)
	PrivacyTier string `json:"privacy_tier" example:"confidential" binding:"required"`
}

// DiscoverRequest 表示自动发现请求。
// @Description 节点自动发现请求结构
type DiscoverRequest struct {
	// 发现端点, 返回候选节点清单
	Endpoint string `json:"endpoint" example:"https://registry.example.com/nodes" binding:"required"`
}

// DiscoverResponse 自动发现结果。
type DiscoverResponse struct {
	// 本次新注册的节点数
	Registered int `json:"registered"`
}

// NodeView 节点管理接口返回的节点视图。
type NodeView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Endpoint     string   `json:"endpoint"`
	Domain       string   `json:"domain"`
	Capabilities []string `json:"capabilities"`
	PrivacyTier  string   `json:"privacy_tier"`
	Available    bool     `json:"available"`
	// Health 健康监控器当前视图, 尚未探测时为空
	Health *types.HealthStatus `json:"health,omitempty"`
}
