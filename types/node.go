package types

import (
	"fmt"
	"time"
)

// PrivacyTier 节点隐私级别
// 有序分类，决定节点可以接收哪种查询变换。
type PrivacyTier string

const (
	// TierPublic 公开节点，接收原始查询
	TierPublic PrivacyTier = "public"
	// TierConfidential 机密节点，接收泛化（脱敏）后的查询
	TierConfidential PrivacyTier = "confidential"
	// TierRestricted 受限节点，接收噪声注入并加密后的查询
	TierRestricted PrivacyTier = "restricted"
)

// tierOrder 隐私级别单调序: public < confidential < restricted
var tierOrder = map[PrivacyTier]int{
	TierPublic:       0,
	TierConfidential: 1,
	TierRestricted:   2,
}

// Level 返回隐私级别的序数，未知级别视为最严格。
func (t PrivacyTier) Level() int {
	if l, ok := tierOrder[t]; ok {
		return l
	}
	return tierOrder[TierRestricted]
}

// Valid 报告级别是否为已知取值。
func (t PrivacyTier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// AllowedBy 报告该节点级别是否可被给定查询隐私需求使用。
// 查询需求级别必须 ≥ 节点级别（单调序不变量）。
func (t PrivacyTier) AllowedBy(requirement PrivacyTier) bool {
	return t.Level() <= requirement.Level()
}

// DomainGeneral 通用域。节点声明此域时可响应任意域的查询。
const DomainGeneral = "general"

// Node 联邦中的一个数据节点。
// 身份字段（ID、Endpoint、Domain、Capabilities、PrivacyTier）注册后不可变；
// Available 与 LastLatency 仅由健康监控器更新。
type Node struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	Endpoint     string      `json:"endpoint"`
	Domain       string      `json:"domain"`
	Capabilities []string    `json:"capabilities"`
	PrivacyTier  PrivacyTier `json:"privacy_tier"`

	// 可变状态，仅由健康监控器写入
	Available   bool          `json:"available"`
	LastLatency time.Duration `json:"last_latency"`
	RegisteredAt time.Time    `json:"registered_at,omitempty"`
}

// HasCapability 报告节点是否声明了指定能力。
func (n *Node) HasCapability(cap string) bool {
	for _, c := range n.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Validate 校验节点描述符的身份字段。
func (n *Node) Validate() error {
	if n.ID == "" {
		return NewError(ErrInvalidNode, "node id is required")
	}
	if n.Endpoint == "" {
		return NewError(ErrInvalidNode, fmt.Sprintf("node %s: endpoint is required", n.ID))
	}
	if n.Domain == "" {
		return NewError(ErrInvalidNode, fmt.Sprintf("node %s: domain is required", n.ID))
	}
	if !n.PrivacyTier.Valid() {
		return NewError(ErrInvalidNode, fmt.Sprintf("node %s: unknown privacy tier %q", n.ID, n.PrivacyTier))
	}
	return nil
}

// Clone 返回节点的深拷贝，供读多写少的快照语义使用。
func (n *Node) Clone() *Node {
	c := *n
	c.Capabilities = append([]string(nil), n.Capabilities...)
	return &c
}

// HealthStatus 节点健康快照，与节点一一对应。
// 仅由健康监控器写入，节点选择器只读消费。
type HealthStatus struct {
	NodeID              string        `json:"node_id"`
	IsHealthy           bool          `json:"is_healthy"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Latency             time.Duration `json:"latency"`
	// UptimePct 滚动窗口（默认 24h）内成功探测占比，0-100
	UptimePct float64   `json:"uptime_pct"`
	LastCheck time.Time `json:"last_check"`
}
