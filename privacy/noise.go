package privacy

import (
	"hash/fnv"
	"math/rand"
	"strings"
)

// defaultSynonyms 默认同义词表, 用于低概率词元替换.
func defaultSynonyms() map[string]string {
	return map[string]string{
		"find":    "locate",
		"show":    "display",
		"get":     "retrieve",
		"list":    "enumerate",
		"make":    "create",
		"use":     "apply",
		"best":    "optimal",
		"fast":    "quick",
		"big":     "large",
		"small":   "minor",
		"issue":   "problem",
		"error":   "fault",
		"check":   "verify",
		"change":  "modify",
		"delete":  "remove",
		"help":    "assist",
		"start":   "initiate",
		"stop":    "halt",
		"new":     "recent",
		"old":     "prior",
	}
}

// NoiseInjector 噪声注入器: 对查询词元做低概率同义词替换.
//
// 扰动强度由 ε 参数预算: 替换概率 p = min(0.5, 1/(1+ε)), ε 越小扰动越强.
// 这是启发式扰动而非形式化差分隐私机制 — 随机源由查询内容播种,
// 同一查询的替换结果是确定性的, 便于测试与审计.
type NoiseInjector struct {
	epsilon  float64
	synonyms map[string]string
}

// NewNoiseInjector 创建噪声注入器. synonyms 传 nil 时使用默认同义词表.
func NewNoiseInjector(epsilon float64, synonyms map[string]string) *NoiseInjector {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	if synonyms == nil {
		synonyms = defaultSynonyms()
	}
	return &NoiseInjector{epsilon: epsilon, synonyms: synonyms}
}

// probability 返回单词元替换概率.
func (n *NoiseInjector) probability() float64 {
	p := 1.0 / (1.0 + n.epsilon)
	if p > 0.5 {
		p = 0.5
	}
	return p
}

// Inject 对查询注入同义词噪声, 返回扰动后的文本与替换数.
func (n *NoiseInjector) Inject(query string) (string, int) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(query))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	p := n.probability()
	tokens := strings.Fields(query)
	substitutions := 0

	for i, tok := range tokens {
		// 每个词元都消耗一次随机数, 保证替换决策与词表内容解耦
		draw := rng.Float64()
		syn, ok := n.synonyms[strings.ToLower(tok)]
		if !ok || draw >= p {
			continue
		}
		tokens[i] = syn
		substitutions++
	}

	return strings.Join(tokens, " "), substitutions
}
