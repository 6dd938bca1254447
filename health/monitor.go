package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// Config 健康监控配置
type Config struct {
	// ProbeInterval 探测轮询间隔
	ProbeInterval time.Duration `json:"probe_interval"`
	// ProbeTimeout 单次探测超时
	ProbeTimeout time.Duration `json:"probe_timeout"`
	// MaxConsecutiveFailures 连续失败阈值，达到后才标记不健康（抗抖动滞回）
	MaxConsecutiveFailures int `json:"max_consecutive_failures"`
	// UptimeWindow 可用率滚动窗口
	UptimeWindow time.Duration `json:"uptime_window"`
}

// DefaultConfig 返回默认健康监控配置
func DefaultConfig() Config {
	return Config{
		ProbeInterval:          30 * time.Second,
		ProbeTimeout:           5 * time.Second,
		MaxConsecutiveFailures: 3,
		UptimeWindow:           24 * time.Hour,
	}
}

// NodeSource 监控器消费的节点视图，由 registry 实现。
type NodeSource interface {
	List() []*types.Node
	SetAvailability(id string, available bool, latency time.Duration) error
}

// Prober 对节点端点执行一次有界超时的存活检查，由联邦节点客户端实现。
type Prober interface {
	Probe(ctx context.Context, node *types.Node) (time.Duration, error)
}

// nodeHealth 单节点健康状态与其滚动历史。
type nodeHealth struct {
	status types.HealthStatus
	window *probeWindow
}

// Monitor 后台健康监控器。
//
// 在独立的 goroutine 中按固定间隔探测所有已注册节点，与查询路径完全解耦；
// 查询路径通过 Status/Snapshot 乐观读取（最多一个探测间隔的陈旧度）。
// 调度引擎可通过 RecordOutcome 把实时调用结果灌入计数器，
// 使异常节点早于下一轮探测被发现。
type Monitor struct {
	config Config
	source NodeSource
	prober Prober
	logger *zap.Logger

	mu       sync.RWMutex
	statuses map[string]*nodeHealth

	done      chan struct{}
	closeOnce sync.Once
}

// NewMonitor 创建健康监控器。
func NewMonitor(config Config, source NodeSource, prober Prober, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ProbeInterval <= 0 {
		config.ProbeInterval = 30 * time.Second
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 5 * time.Second
	}
	if config.MaxConsecutiveFailures <= 0 {
		config.MaxConsecutiveFailures = 3
	}
	if config.UptimeWindow <= 0 {
		config.UptimeWindow = 24 * time.Hour
	}

	return &Monitor{
		config:   config,
		source:   source,
		prober:   prober,
		logger:   logger.With(zap.String("component", "health_monitor")),
		statuses: make(map[string]*nodeHealth),
		done:     make(chan struct{}),
	}
}

// Start 启动后台探测循环。循环随 ctx 取消或 Stop 调用而退出。
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
	m.logger.Info("health monitor started",
		zap.Duration("interval", m.config.ProbeInterval),
		zap.Int("failure_threshold", m.config.MaxConsecutiveFailures))
}

// Stop 停止后台探测循环。幂等。
func (m *Monitor) Stop() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	// 启动即探测一轮，避免冷启动期间选择器只有零值状态
	m.ProbeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.ProbeAll(ctx)
		}
	}
}

// ProbeAll 并发探测所有已注册节点，并清理已注销节点的状态。
func (m *Monitor) ProbeAll(ctx context.Context) {
	nodes := m.source.List()

	var wg sync.WaitGroup
	for _, node := range nodes {
		wg.Add(1)
		go func(n *types.Node) {
			defer wg.Done()
			m.ProbeNode(ctx, n)
		}(node)
	}
	wg.Wait()

	m.pruneUnknown(nodes)
}

// ProbeNode 对单个节点执行一次有界超时探测并更新其状态。
func (m *Monitor) ProbeNode(ctx context.Context, node *types.Node) types.HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()

	latency, err := m.prober.Probe(probeCtx, node)
	return m.record(node.ID, err == nil, latency)
}

// RecordOutcome 记录一次来自调度引擎的实时调用结果。
// 与周期探测共用同一状态机，调用失败会立刻累计到失败计数。
func (m *Monitor) RecordOutcome(nodeID string, success bool, latency time.Duration) types.HealthStatus {
	return m.record(nodeID, success, latency)
}

// record 健康状态机:
//   - 成功: 连续失败清零，恢复健康（单次成功即恢复）
//   - 失败: 连续失败 +1，达到阈值才标记不健康（滞回）
//
// 每次更新都重算滚动窗口可用率，并把可用性镜像回节点表。
func (m *Monitor) record(nodeID string, success bool, latency time.Duration) types.HealthStatus {
	m.mu.Lock()

	nh, ok := m.statuses[nodeID]
	if !ok {
		nh = &nodeHealth{
			status: types.HealthStatus{NodeID: nodeID, IsHealthy: true},
			window: newProbeWindow(m.config.UptimeWindow),
		}
		m.statuses[nodeID] = nh
	}

	wasHealthy := nh.status.IsHealthy

	if success {
		nh.status.ConsecutiveFailures = 0
		nh.status.IsHealthy = true
		nh.status.Latency = latency
	} else {
		nh.status.ConsecutiveFailures++
		if nh.status.ConsecutiveFailures >= m.config.MaxConsecutiveFailures {
			nh.status.IsHealthy = false
		}
	}
	nh.status.LastCheck = time.Now()
	nh.window.add(success)
	nh.status.UptimePct = nh.window.uptimePct()

	status := nh.status
	m.mu.Unlock()

	if err := m.source.SetAvailability(nodeID, status.IsHealthy, latency); err != nil &&
		!types.IsCode(err, types.ErrNodeNotFound) {
		m.logger.Warn("failed to mirror availability", zap.String("node_id", nodeID), zap.Error(err))
	}

	if wasHealthy && !status.IsHealthy {
		m.logger.Warn("node marked unhealthy",
			zap.String("node_id", nodeID),
			zap.Int("consecutive_failures", status.ConsecutiveFailures))
	} else if !wasHealthy && status.IsHealthy {
		m.logger.Info("node recovered", zap.String("node_id", nodeID))
	}

	return status
}

// Status 返回节点健康快照。
func (m *Monitor) Status(nodeID string) (types.HealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nh, ok := m.statuses[nodeID]
	if !ok {
		return types.HealthStatus{}, false
	}
	return nh.status, true
}

// Snapshot 返回所有被跟踪节点的健康快照。
func (m *Monitor) Snapshot() map[string]types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]types.HealthStatus, len(m.statuses))
	for id, nh := range m.statuses {
		out[id] = nh.status
	}
	return out
}

// pruneUnknown 丢弃已经不在节点表中的状态。
func (m *Monitor) pruneUnknown(nodes []*types.Node) {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.statuses {
		if !known[id] {
			delete(m.statuses, id)
		}
	}
}
