// 包privacy实现按节点隐私级别的查询变换.
// 这个模块对公开节点透传查询, 对机密节点做泛化脱敏,
// 对受限节点做噪声注入加对称加密.
package privacy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// Config 配置隐私变换器
type Config struct {
	// Mode 隐私模式: standard 下公开节点透传原文;
	// strict 下公开节点也做泛化脱敏
	Mode string `json:"mode"`
	// SharedSecret 受限节点对称加密共享密钥
	SharedSecret string `json:"shared_secret"`
	// Epsilon 噪声注入预算参数
	Epsilon float64 `json:"epsilon"`
	// Vocabulary 域词汇替换表, nil 时使用内置表
	Vocabulary map[string]map[string]string `json:"vocabulary,omitempty"`
	// Synonyms 噪声同义词表, nil 时使用内置表
	Synonyms map[string]string `json:"synonyms,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Mode:    "standard",
		Epsilon: 1.0,
	}
}

// ModeStrict 严格隐私模式
const ModeStrict = "strict"

// TransformedQuery 一次按节点变换的结果.
// 变换是单向的: 本层从不隐式解密.
type TransformedQuery struct {
	NodeID   string            `json:"node_id"`
	Tier     types.PrivacyTier `json:"tier"`
	Original string            `json:"-"`
	// Payload 实际发往节点的查询文本 (受限节点为不透明密文)
	Payload string `json:"payload"`
	// Encrypted 载荷是否为密文
	Encrypted bool `json:"encrypted"`
	// Redactions 泛化阶段的脱敏命中数
	Redactions int `json:"redactions"`
	// Substitutions 噪声阶段的同义词替换数
	Substitutions int `json:"substitutions"`
}

// Transformer 按节点隐私级别分发查询变换.
// 三个级别各有一个处理分支, 经单一类型化 switch 分发;
// 未知级别一律 fail-closed.
type Transformer struct {
	config      Config
	generalizer *Generalizer
	noiser      *NoiseInjector
	cipher      *QueryCipher
	logger      *zap.Logger
}

// NewTransformer 创建隐私变换器.
// 未配置共享密钥时 cipher 为 nil, 任何受限节点的变换都会失败 (fail-closed),
// 而不是静默退回明文.
func NewTransformer(config Config, logger *zap.Logger) (*Transformer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Epsilon <= 0 {
		config.Epsilon = 1.0
	}

	t := &Transformer{
		config:      config,
		generalizer: NewGeneralizer(config.Vocabulary),
		noiser:      NewNoiseInjector(config.Epsilon, config.Synonyms),
		logger:      logger.With(zap.String("component", "privacy_transformer")),
	}

	if config.SharedSecret != "" {
		cipher, err := NewQueryCipher(config.SharedSecret)
		if err != nil {
			return nil, err
		}
		t.cipher = cipher
	}

	return t, nil
}

// Transform 按节点隐私级别变换查询.
//
//   - public: 恒等变换 (strict 模式下仍做泛化)
//   - confidential: 泛化 — 模式脱敏 + 域词汇替换
//   - restricted: 噪声注入 + 对称加密; 加密失败对该节点是硬错误
func (t *Transformer) Transform(query string, node *types.Node, _ types.UserContext) (*TransformedQuery, error) {
	out := &TransformedQuery{
		NodeID:   node.ID,
		Tier:     node.PrivacyTier,
		Original: query,
	}

	switch node.PrivacyTier {
	case types.TierPublic:
		if t.config.Mode == ModeStrict {
			out.Payload, out.Redactions = t.generalizer.Generalize(query, node.Domain)
		} else {
			out.Payload = query
		}

	case types.TierConfidential:
		out.Payload, out.Redactions = t.generalizer.Generalize(query, node.Domain)

	case types.TierRestricted:
		if t.cipher == nil {
			return nil, types.NewError(types.ErrEncryptionFailed,
				"no shared secret configured for restricted node").WithNode(node.ID)
		}
		perturbed, subs := t.noiser.Inject(query)
		encrypted, err := t.cipher.Encrypt(perturbed)
		if err != nil {
			// 绝不退回明文
			return nil, types.NewError(types.ErrEncryptionFailed,
				"failed to encrypt query for restricted node").WithNode(node.ID).WithCause(err)
		}
		out.Payload = encrypted
		out.Encrypted = true
		out.Substitutions = subs

	default:
		return nil, types.NewError(types.ErrPrivacyViolation,
			fmt.Sprintf("unknown privacy tier %q", node.PrivacyTier)).WithNode(node.ID)
	}

	t.logger.Debug("query transformed",
		zap.String("node_id", node.ID),
		zap.String("tier", string(node.PrivacyTier)),
		zap.Bool("encrypted", out.Encrypted),
		zap.Int("redactions", out.Redactions))
	return out, nil
}
