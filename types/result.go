package types

import "time"

// Document 一篇跨节点文档。
// Content 与 Metadata 共同决定去重指纹；SourceNode 等来源字段不参与指纹计算。
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
	// SourceNode 返回该文档的节点 ID
	SourceNode string `json:"source_node"`
	// NodeConfidence 节点自报的置信度 (0-1)
	NodeConfidence float64 `json:"node_confidence"`
	// ScoreBreakdown 质量加权策略下的评分拆解，用于可解释性审计
	ScoreBreakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

// ScoreBreakdown 质量加权评分的各分量。
// 加权求和应在浮点误差内复现 FederatedScore。
type ScoreBreakdown struct {
	BaseRelevance   float64 `json:"base_relevance"`
	NodeQuality     float64 `json:"node_quality"`
	Freshness       float64 `json:"freshness"`
	DomainRelevance float64 `json:"domain_relevance"`
	ContentQuality  float64 `json:"content_quality"`
	FederatedScore  float64 `json:"federated_score"`
}

// NodeOutcome 单节点结果分类，用于 node_breakdown 观测。
type NodeOutcome string

const (
	OutcomeSuccess      NodeOutcome = "success"
	OutcomeTimeout      NodeOutcome = "timeout"
	OutcomeUnreachable  NodeOutcome = "unreachable"
	// OutcomeAccessDenied 节点侧鉴权拒绝: 零结果但非连接性失败
	OutcomeAccessDenied NodeOutcome = "access_denied"
	OutcomeMalformed    NodeOutcome = "malformed_response"
	// OutcomeEncryptFail 受限节点加密失败, fail-closed, 该节点被排除
	OutcomeEncryptFail NodeOutcome = "encryption_failed"
)

// NodeResult 一个节点对一次查询的响应。创建后不可变。
type NodeResult struct {
	NodeID    string        `json:"node_id"`
	Success   bool          `json:"success"`
	Outcome   NodeOutcome   `json:"outcome"`
	Documents []Document    `json:"documents,omitempty"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}

// NodeBreakdown 单节点在最终响应中的观测条目。
type NodeBreakdown struct {
	Success bool          `json:"success"`
	Outcome NodeOutcome   `json:"outcome"`
	Count   int           `json:"count"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// AggregatedResult 去重与排序后的最终结果集。
type AggregatedResult struct {
	Documents         []Document               `json:"documents"`
	NodesContributing int                      `json:"nodes_contributing"`
	NodeBreakdown     map[string]NodeBreakdown `json:"node_breakdown"`
	StrategyUsed      RankingStrategy          `json:"strategy_used"`
	DuplicatesRemoved int                      `json:"duplicates_removed"`
}

// PerformanceMetrics 单次联邦查询的耗时指标。
type PerformanceMetrics struct {
	TotalDuration    time.Duration `json:"total_duration"`
	AnalysisDuration time.Duration `json:"analysis_duration"`
	DispatchDuration time.Duration `json:"dispatch_duration"`
	AggregateDuration time.Duration `json:"aggregate_duration"`
	CacheHit         bool          `json:"cache_hit"`
}

// FederatedResponse 联邦检索对外响应。
type FederatedResponse struct {
	QueryID           string                   `json:"query_id"`
	Summary           string                   `json:"summary"`
	Documents         []Document               `json:"documents"`
	TotalResults      int                      `json:"total_results"`
	NodesContributing int                      `json:"nodes_contributing"`
	NodesQueried      []string                 `json:"nodes_queried"`
	StrategyUsed      RankingStrategy          `json:"strategy_used"`
	DuplicatesRemoved int                      `json:"duplicates_removed"`
	// Unavailable 所有被选节点均失败时置位，文档为空
	Unavailable        bool                     `json:"unavailable,omitempty"`
	PerformanceMetrics PerformanceMetrics       `json:"performance_metrics"`
	NodeBreakdown      map[string]NodeBreakdown `json:"node_breakdown"`
}
