// 包query为联邦检索提供查询分析能力.
// 这个模块把自由文本查询映射为域分类,隐私需求和能力需求.
package query

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// Classifier 域分类器接口。
// 默认实现为关键词匹配,可替换为学习型分类器而不改变契约.
type Classifier interface {
	Classify(query string, userCtx types.UserContext) string
}

// AnalyzerConfig 配置查询分析器
type AnalyzerConfig struct {
	// DefaultMaxNodes 单查询节点数上限
	DefaultMaxNodes int `json:"default_max_nodes"`
	// DefaultStrategy 默认排序策略
	DefaultStrategy types.RankingStrategy `json:"default_strategy"`
	// DomainKeywords 域 -> 关键词表
	DomainKeywords map[string][]string `json:"domain_keywords,omitempty"`
	// SensitiveTerms 命中即把隐私需求升级到 restricted
	SensitiveTerms []string `json:"sensitive_terms,omitempty"`
}

// DefaultAnalyzerConfig 返回默认配置
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		DefaultMaxNodes: 5,
		DefaultStrategy: types.StrategyQualityWeighted,
		DomainKeywords: map[string][]string{
			"medical": {"patient", "diagnosis", "treatment", "symptom", "medical", "clinical", "disease", "medication"},
			"legal":   {"contract", "lawsuit", "legal", "court", "attorney", "regulation", "compliance", "statute"},
			"finance": {"invoice", "payment", "revenue", "salary", "tax", "investment", "financial", "budget"},
			"tech":    {"software", "server", "database", "api", "deployment", "code", "bug", "kubernetes"},
		},
		SensitiveTerms: []string{
			"ssn", "social security", "medical record", "diagnosis", "patient",
			"salary", "password", "credential", "confidential", "classified",
		},
	}
}

// 敏感结构特征

var (
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// Analyzer 查询分析器.
// Analyze 是确定性的纯函数: 相同输入必然产生相同的 QueryAnalysis,
// 不产生任何副作用 — 这是可测试性的关键.
type Analyzer struct {
	config     AnalyzerConfig
	classifier Classifier
	logger     *zap.Logger
}

// NewAnalyzer 创建查询分析器。classifier 传 nil 时使用内置关键词分类器.
func NewAnalyzer(config AnalyzerConfig, classifier Classifier, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultMaxNodes <= 0 {
		config.DefaultMaxNodes = 5
	}
	if config.DefaultStrategy == "" {
		config.DefaultStrategy = types.StrategyQualityWeighted
	}
	if config.DomainKeywords == nil {
		config.DomainKeywords = DefaultAnalyzerConfig().DomainKeywords
	}
	if config.SensitiveTerms == nil {
		config.SensitiveTerms = DefaultAnalyzerConfig().SensitiveTerms
	}
	if classifier == nil {
		classifier = &keywordClassifier{keywords: config.DomainKeywords}
	}
	return &Analyzer{
		config:     config,
		classifier: classifier,
		logger:     logger.With(zap.String("component", "query_analyzer")),
	}
}

// Analyze 把自由文本查询 + 调用方上下文映射为 QueryAnalysis.
func (a *Analyzer) Analyze(q string, userCtx types.UserContext) (*types.QueryAnalysis, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return nil, types.NewError(types.ErrInvalidQuery, "query must not be empty")
	}

	domain := a.classifier.Classify(trimmed, userCtx)

	privacy := userCtx.PrivacyRequirement
	if privacy == "" {
		privacy = types.TierPublic
	}
	// 文本含敏感标记时就地升级到最高隐私需求
	if a.containsSensitiveMarkers(trimmed) {
		privacy = types.TierRestricted
	}

	required, optional := deriveCapabilities(trimmed)

	strategy := a.config.DefaultStrategy
	if s, ok := userCtx.Filters["ranking_strategy"]; ok && types.ValidStrategy(types.RankingStrategy(s)) {
		strategy = types.RankingStrategy(s)
	}

	return &types.QueryAnalysis{
		Query:                trimmed,
		Domain:               domain,
		PrivacyRequirement:   privacy,
		RequiredCapabilities: required,
		OptionalCapabilities: optional,
		MaxNodes:             a.config.DefaultMaxNodes,
		RankingStrategy:      strategy,
		UserContext:          userCtx,
		AnalyzedAt:           time.Now(),
	}, nil
}

// containsSensitiveMarkers 检查敏感词与结构化敏感模式.
func (a *Analyzer) containsSensitiveMarkers(q string) bool {
	lower := strings.ToLower(q)
	for _, term := range a.config.SensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return ssnPattern.MatchString(q) || phonePattern.MatchString(q) || emailPattern.MatchString(q)
}

// deriveCapabilities 从查询表面特征推导能力需求.
// 返回 (必需能力, 可选加分能力), 两者都按字典序排列保证确定性.
func deriveCapabilities(q string) (required []string, optional []string) {
	lower := strings.ToLower(q)

	required = []string{"search"}
	if containsAny(lower, "image", "photo", "picture", "diagram", "screenshot") {
		required = append(required, "image_search")
	}

	if containsAny(lower, "semantic", "similar", "related", "meaning") {
		optional = append(optional, "semantic_search")
	}
	if containsAny(lower, "latest", "recent", "news", "today") {
		optional = append(optional, "freshness")
	}
	if strings.Contains(lower, "\"") || containsAny(lower, "exact", "verbatim") {
		optional = append(optional, "keyword_search")
	}

	sort.Strings(required)
	sort.Strings(optional)
	return required, optional
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// 关键词分类器

// keywordClassifier 基于关键词命中数的域分类器.
type keywordClassifier struct {
	keywords map[string][]string
}

// Classify 统计每个域的关键词命中数, 取最高者;
// 无命中时回退到调用方声明的域, 再回退到通用域.
// 平手时按域名字典序取最小, 保证确定性.
func (c *keywordClassifier) Classify(q string, userCtx types.UserContext) string {
	lower := strings.ToLower(q)

	best := ""
	bestHits := 0

	domains := make([]string, 0, len(c.keywords))
	for d := range c.keywords {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, d := range domains {
		hits := 0
		for _, kw := range c.keywords[d] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = d
			bestHits = hits
		}
	}

	if best != "" {
		return best
	}
	if userCtx.Domain != "" {
		return userCtx.Domain
	}
	return types.DomainGeneral
}
