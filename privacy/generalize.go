package privacy

import (
	"regexp"
	"sort"
)

// redactionPattern 一类结构化敏感子串及其类型化占位符.
type redactionPattern struct {
	name        string
	re          *regexp.Regexp
	placeholder string
}

// defaultRedactionPatterns 返回默认脱敏模式.
// 顺序有意义: SSN 先于 PHONE, 避免 3-2-4 结构被当作电话号吞掉.
func defaultRedactionPatterns() []redactionPattern {
	return []redactionPattern{
		{"email", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL]"},
		{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
		{"phone", regexp.MustCompile(`\b(?:\+?1[-.\s]?)?(?:\(\d{3}\)\s?|\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`), "[PHONE]"},
		{"date", regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`), "[DATE]"},
		{"id", regexp.MustCompile(`\b[A-Z]{2,}-?\d{4,}\b`), "[ID]"},
	}
}

// defaultDomainVocabulary 返回默认的域词汇替换表,
// 在脱敏后进一步降低再识别风险, 同时保留查询意图.
func defaultDomainVocabulary() map[string]map[string]string {
	return map[string]map[string]string{
		"medical": {
			"patient":   "individual",
			"diagnosis": "assessment",
			"doctor":    "practitioner",
			"hospital":  "facility",
		},
		"legal": {
			"plaintiff": "party",
			"defendant": "party",
			"client":    "individual",
		},
		"finance": {
			"salary":  "compensation",
			"account": "record",
		},
	}
}

// Generalizer 泛化变换器: 先做模式脱敏, 再做域词汇替换.
type Generalizer struct {
	patterns []redactionPattern
	// vocab: 域 -> 预编译的词边界替换
	vocab map[string][]vocabRule
}

type vocabRule struct {
	re          *regexp.Regexp
	replacement string
}

// NewGeneralizer 创建泛化变换器. vocabulary 传 nil 时使用默认域词汇表.
func NewGeneralizer(vocabulary map[string]map[string]string) *Generalizer {
	if vocabulary == nil {
		vocabulary = defaultDomainVocabulary()
	}

	vocab := make(map[string][]vocabRule, len(vocabulary))
	for domain, terms := range vocabulary {
		rules := make([]vocabRule, 0, len(terms))
		// map 迭代无序, 按词排序保证规则应用顺序确定
		keys := make([]string, 0, len(terms))
		for term := range terms {
			keys = append(keys, term)
		}
		sort.Strings(keys)
		for _, term := range keys {
			rules = append(rules, vocabRule{
				re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
				replacement: terms[term],
			})
		}
		vocab[domain] = rules
	}

	return &Generalizer{
		patterns: defaultRedactionPatterns(),
		vocab:    vocab,
	}
}

// Generalize 对查询做泛化变换, 返回变换后的文本与脱敏命中数.
// 确定性: 相同输入必然产生相同输出.
func (g *Generalizer) Generalize(query, domain string) (string, int) {
	out := query
	redactions := 0

	for _, p := range g.patterns {
		matches := p.re.FindAllStringIndex(out, -1)
		if len(matches) == 0 {
			continue
		}
		redactions += len(matches)
		out = p.re.ReplaceAllString(out, p.placeholder)
	}

	for _, rule := range g.vocab[domain] {
		out = rule.re.ReplaceAllString(out, rule.replacement)
	}

	return out, redactions
}
