package aggregate

import (
	"sort"
	"time"

	"github.com/BaSui01/fedsearch/types"
)

// 质量加权策略的信号权重, 总和为 1.
const (
	weightBaseRelevance   = 0.30
	weightNodeQuality     = 0.25
	weightFreshness       = 0.15
	weightDomainRelevance = 0.15
	weightContentQuality  = 0.15
)

// sourceCountBoost 分数融合的来源数加成: 每个额外来源 +0.05, 封顶 0.2
const (
	fusionBoostPerSource = 0.05
	fusionBoostCap       = 0.20
)

// rankContext 一次排序所需的查询侧上下文.
type rankContext struct {
	domain      string
	nodeDomains map[string]string
	breakdown   map[string]types.NodeBreakdown
	maxResults  int
	now         time.Time
}

// rankQualityWeighted 多信号加权求和, 每篇文档附带评分拆解.
func rankQualityWeighted(docs []types.Document, rc rankContext) []types.Document {
	out := make([]types.Document, len(docs))
	for i, doc := range docs {
		bd := types.ScoreBreakdown{
			BaseRelevance:   clamp01(doc.Score),
			NodeQuality:     nodeQualityScore(&doc, rc.breakdown),
			Freshness:       freshnessScore(&doc, rc.now),
			DomainRelevance: domainRelevanceScore(rc.nodeDomains[doc.SourceNode], rc.domain),
			ContentQuality:  contentQualityScore(&doc),
		}
		bd.FederatedScore = weightBaseRelevance*bd.BaseRelevance +
			weightNodeQuality*bd.NodeQuality +
			weightFreshness*bd.Freshness +
			weightDomainRelevance*bd.DomainRelevance +
			weightContentQuality*bd.ContentQuality

		doc.Score = bd.FederatedScore
		doc.ScoreBreakdown = &bd
		out[i] = doc
	}

	sortByScore(out)
	return truncate(out, rc.maxResults)
}

// rankDiversityAware 先按质量加权排序, 去重后截断.
// 去重发生在评分之后, 留下的都是每个指纹下分数最高的那份.
func rankDiversityAware(docs []types.Document, rc rankContext) ([]types.Document, int) {
	ranked := rankQualityWeighted(docs, rankContext{
		domain:      rc.domain,
		nodeDomains: rc.nodeDomains,
		breakdown:   rc.breakdown,
		maxResults:  len(docs),
		now:         rc.now,
	})
	deduped, removed := dedup(ranked)
	sortByScore(deduped)
	return truncate(deduped, rc.maxResults), removed
}

// rankScoreFusion 跨节点同文档取分数均值并加来源数加成.
// 融合后的文档记录 source_count 元数据.
func rankScoreFusion(docs []types.Document, rc rankContext) ([]types.Document, int) {
	groups := groupByFingerprint(docs)
	out := make([]types.Document, 0, len(groups))
	removed := 0

	for _, group := range groups {
		best := group[0]
		sum := 0.0
		for _, doc := range group {
			sum += doc.Score
			if doc.Score > best.Score {
				best = doc
			}
		}
		removed += len(group) - 1

		// 单来源文档保持原始分数, 不加成也不标记 source_count.
		if len(group) > 1 {
			boost := fusionBoostPerSource * float64(len(group))
			if boost > fusionBoostCap {
				boost = fusionBoostCap
			}
			best.Score = sum/float64(len(group)) + boost
			if best.Metadata == nil {
				best.Metadata = make(map[string]any, 1)
			} else {
				meta := make(map[string]any, len(best.Metadata)+1)
				for k, v := range best.Metadata {
					meta[k] = v
				}
				best.Metadata = meta
			}
			best.Metadata["source_count"] = len(group)
		}
		out = append(out, best)
	}

	sortByScore(out)
	return truncate(out, rc.maxResults), removed
}

// rankRoundRobin 按来源节点逐轮交错, 忽略数值分数.
// 节点按 ID 升序轮转, 每个节点的文档保持其自报分数的降序.
func rankRoundRobin(docs []types.Document, rc rankContext) []types.Document {
	byNode := make(map[string][]types.Document)
	for _, doc := range docs {
		byNode[doc.SourceNode] = append(byNode[doc.SourceNode], doc)
	}

	nodeIDs := make([]string, 0, len(byNode))
	for id := range byNode {
		sortByScore(byNode[id])
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	out := make([]types.Document, 0, len(docs))
	for round := 0; len(out) < len(docs); round++ {
		emitted := false
		for _, id := range nodeIDs {
			queue := byNode[id]
			if round < len(queue) {
				out = append(out, queue[round])
				emitted = true
			}
		}
		if !emitted {
			break
		}
	}
	return truncate(out, rc.maxResults)
}

// sortByScore 分数降序, 同分按内容字典序保证稳定可重现.
func sortByScore(docs []types.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].Content < docs[j].Content
	})
}

func truncate(docs []types.Document, max int) []types.Document {
	if max > 0 && len(docs) > max {
		return docs[:max]
	}
	return docs
}
