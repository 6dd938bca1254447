package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/fedsearch/types"
)

// provenanceKeys 不参与内容指纹的元数据键.
// 这些字段随来源节点变化, 跨节点的同一文档必须得到同一指纹.
var provenanceKeys = map[string]bool{
	"source_node":     true,
	"node_confidence": true,
	"score":           true,
	"source_count":    true,
	"retrieved_at":    true,
}

// fingerprint 计算文档的内容指纹.
// 归一化正文 (小写, 折叠空白) 加上按键排序的非来源元数据共同决定身份.
func fingerprint(doc *types.Document) string {
	h := sha256.New()
	h.Write([]byte(normalizeContent(doc.Content)))

	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		if provenanceKeys[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%v", k, doc.Metadata[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeContent(content string) string {
	return strings.Join(strings.Fields(strings.ToLower(content)), " ")
}

// dedup 按内容指纹去重, 重复时保留分数更高的那份.
// 幂等: 对已去重的输入再跑一遍结果不变.
func dedup(docs []types.Document) ([]types.Document, int) {
	seen := make(map[string]int, len(docs))
	out := make([]types.Document, 0, len(docs))
	removed := 0

	for _, doc := range docs {
		fp := fingerprint(&doc)
		if idx, ok := seen[fp]; ok {
			removed++
			if doc.Score > out[idx].Score {
				out[idx] = doc
			}
			continue
		}
		seen[fp] = len(out)
		out = append(out, doc)
	}
	return out, removed
}

// groupByFingerprint 按内容指纹分组, 保持首次出现顺序.
func groupByFingerprint(docs []types.Document) [][]types.Document {
	index := make(map[string]int, len(docs))
	groups := make([][]types.Document, 0, len(docs))

	for _, doc := range docs {
		fp := fingerprint(&doc)
		if idx, ok := index[fp]; ok {
			groups[idx] = append(groups[idx], doc)
			continue
		}
		index[fp] = len(groups)
		groups = append(groups, []types.Document{doc})
	}
	return groups
}
