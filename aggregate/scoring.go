package aggregate

import (
	"strings"
	"time"

	"github.com/BaSui01/fedsearch/types"
)

// 评分信号均为 [0,1] 区间的纯函数, 便于独立测试与属性验证.

// freshnessSpan 新鲜度线性衰减跨度: 一年前的文档衰减到 0
const freshnessSpan = 365 * 24 * time.Hour

// freshnessScore 按发布时间线性衰减.
// 元数据缺失或不可解析时返回中性值 0.5, 不惩罚无时间戳的来源.
func freshnessScore(doc *types.Document, now time.Time) float64 {
	published, ok := publishedAt(doc)
	if !ok {
		return 0.5
	}
	age := now.Sub(published)
	if age <= 0 {
		return 1.0
	}
	if age >= freshnessSpan {
		return 0.0
	}
	return 1.0 - float64(age)/float64(freshnessSpan)
}

// publishedAt 从元数据提取发布时间, 支持 RFC3339 与日期两种格式.
func publishedAt(doc *types.Document) (time.Time, bool) {
	for _, key := range []string{"published_at", "date", "timestamp"} {
		raw, ok := doc.Metadata[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// contentQualityScore 四个内容启发式的均值:
// 篇幅充分度, 标题存在性, 词汇多样性, 句子结构.
func contentQualityScore(doc *types.Document) float64 {
	words := strings.Fields(doc.Content)
	if len(words) == 0 {
		return 0.0
	}

	// 篇幅: 50 词及以上视为充分
	length := float64(len(words)) / 50.0
	if length > 1.0 {
		length = 1.0
	}

	title := 0.0
	if t, ok := doc.Metadata["title"].(string); ok && strings.TrimSpace(t) != "" {
		title = 1.0
	}

	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = true
	}
	diversity := float64(len(unique)) / float64(len(words))

	// 结构: 3 个及以上句终符视为成段内容
	sentences := float64(strings.Count(doc.Content, ".") +
		strings.Count(doc.Content, "!") + strings.Count(doc.Content, "?"))
	structure := sentences / 3.0
	if structure > 1.0 {
		structure = 1.0
	}

	return (length + title + diversity + structure) / 4.0
}

// nodeQualityScore 来源节点质量: 置信度, 延迟与返回量的混合.
func nodeQualityScore(doc *types.Document, breakdown map[string]types.NodeBreakdown) float64 {
	confidence := clamp01(doc.NodeConfidence)

	latencyComp := 0.5
	countComp := 0.5
	if entry, ok := breakdown[doc.SourceNode]; ok {
		latencyComp = 1.0 / (1.0 + entry.Latency.Seconds())
		countComp = float64(entry.Count) / 10.0
		if countComp > 1.0 {
			countComp = 1.0
		}
	}
	return 0.4*confidence + 0.4*latencyComp + 0.2*countComp
}

// domainRelevanceScore 来源节点域与查询域的匹配度.
func domainRelevanceScore(nodeDomain, queryDomain string) float64 {
	switch {
	case nodeDomain == queryDomain:
		return 1.0
	case nodeDomain == types.DomainGeneral || queryDomain == types.DomainGeneral:
		return 0.7
	default:
		return 0.3
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
