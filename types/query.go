package types

import "time"

// RankingStrategy 结果聚合排序策略
type RankingStrategy string

const (
	// StrategyQualityWeighted 质量加权: 多信号加权求和，附带完整评分拆解
	StrategyQualityWeighted RankingStrategy = "quality_weighted"
	// StrategyDiversityAware 多样性优先: 质量排序后按内容指纹去重截断
	StrategyDiversityAware RankingStrategy = "diversity_aware"
	// StrategyScoreFusion 分数融合: 跨节点同文档取均值并加来源数加成
	StrategyScoreFusion RankingStrategy = "score_fusion"
	// StrategyRoundRobin 轮转交错: 按来源节点逐轮取一条，忽略数值分数
	StrategyRoundRobin RankingStrategy = "round_robin"
)

// ValidStrategy 报告策略是否为已知取值。
func ValidStrategy(s RankingStrategy) bool {
	switch s {
	case StrategyQualityWeighted, StrategyDiversityAware, StrategyScoreFusion, StrategyRoundRobin:
		return true
	}
	return false
}

// UserContext 调用方上下文，随查询传入。
type UserContext struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	// Domain 调用方声明的业务域，作为域分类的先验
	Domain string `json:"domain,omitempty"`
	// PrivacyRequirement 调用方声明的隐私需求，分析器可能就地升级
	PrivacyRequirement PrivacyTier       `json:"privacy_requirements,omitempty"`
	Filters            map[string]string `json:"filters,omitempty"`
}

// QueryAnalysis 一次查询的分析结果。
// 每次查询派生一次，之后不可变。
type QueryAnalysis struct {
	Query  string `json:"query"`
	Domain string `json:"domain"`
	// PrivacyRequirement 查询允许的最严节点级别（单调序上界）
	PrivacyRequirement PrivacyTier `json:"privacy_requirement"`
	// RequiredCapabilities 节点必须全部具备
	RequiredCapabilities []string `json:"required_capabilities"`
	// OptionalCapabilities 命中时为节点加分但不淘汰
	OptionalCapabilities []string `json:"optional_capabilities,omitempty"`
	MaxNodes             int             `json:"max_nodes"`
	RankingStrategy      RankingStrategy `json:"ranking_strategy"`
	UserContext          UserContext     `json:"user_context"`
	AnalyzedAt           time.Time       `json:"analyzed_at"`
}
