package federation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/privacy"
	"github.com/BaSui01/fedsearch/types"
)

// Config 调度引擎配置
type Config struct {
	// NodeTimeout 单节点调用超时, 独立于整体查询超时
	NodeTimeout time.Duration `json:"node_timeout"`
	// PerNodeLimit 要求每个节点返回的最大文档数
	PerNodeLimit int `json:"per_node_limit"`
}

// DefaultConfig 返回默认调度配置
func DefaultConfig() Config {
	return Config{
		NodeTimeout:  30 * time.Second,
		PerNodeLimit: 20,
	}
}

// Searcher 节点检索调用, 由 Client 实现.
type Searcher interface {
	Search(ctx context.Context, node *types.Node, payload string, encrypted bool, userCtx types.UserContext, limit int) ([]types.Document, float64, error)
}

// OutcomeRecorder 把实时调用结果回灌健康监控, 由 health.Monitor 实现.
type OutcomeRecorder interface {
	RecordOutcome(nodeID string, success bool, latency time.Duration) types.HealthStatus
}

// Transformer 按节点隐私级别变换查询, 由 privacy.Transformer 实现.
type Transformer interface {
	Transform(query string, node *types.Node, userCtx types.UserContext) (*privacy.TransformedQuery, error)
}

// Engine 散发-汇聚调度引擎.
//
// 对每个被选节点在独立 goroutine 中执行变换与调用, 单节点失败
// 只影响自身条目, 永不中止其余节点. 变换在各自的 goroutine 内完成,
// 受限节点的加密开销不会阻塞其他节点的派发.
type Engine struct {
	config      Config
	searcher    Searcher
	transformer Transformer
	recorder    OutcomeRecorder
	logger      *zap.Logger
}

// NewEngine 创建调度引擎. recorder 可为 nil (不回灌健康状态).
func NewEngine(config Config, searcher Searcher, transformer Transformer, recorder OutcomeRecorder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.NodeTimeout <= 0 {
		config.NodeTimeout = 30 * time.Second
	}
	if config.PerNodeLimit <= 0 {
		config.PerNodeLimit = 20
	}
	return &Engine{
		config:      config,
		searcher:    searcher,
		transformer: transformer,
		recorder:    recorder,
		logger:      logger.With(zap.String("component", "federation_engine")),
	}
}

// Execute 并发调用所有被选节点, 返回按节点 ID 键控的完整结果表.
// 表中每个节点恰有一个条目, 无论成败; 调用方据此构建 node_breakdown.
func (e *Engine) Execute(ctx context.Context, analysis *types.QueryAnalysis, nodes []*types.Node) map[string]types.NodeResult {
	results := make(map[string]types.NodeResult, len(nodes))
	if len(nodes) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, node := range nodes {
		wg.Add(1)
		go func(n *types.Node) {
			defer wg.Done()
			res := e.callNode(ctx, analysis, n)
			mu.Lock()
			results[n.ID] = res
			mu.Unlock()
		}(node)
	}
	wg.Wait()
	return results
}

// callNode 对单个节点执行变换与调用, 把任何失败折叠为结果条目.
func (e *Engine) callNode(ctx context.Context, analysis *types.QueryAnalysis, node *types.Node) types.NodeResult {
	transformed, err := e.transformer.Transform(analysis.Query, node, analysis.UserContext)
	if err != nil {
		// 加密失败是 fail-closed: 该节点被排除, 不派发任何载荷
		e.logger.Warn("query transform failed",
			zap.String("node_id", node.ID), zap.Error(err))
		return types.NodeResult{
			NodeID:  node.ID,
			Success: false,
			Outcome: types.OutcomeEncryptFail,
			Error:   err.Error(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.NodeTimeout)
	defer cancel()

	start := time.Now()
	docs, _, err := e.searcher.Search(callCtx, node, transformed.Payload, transformed.Encrypted,
		analysis.UserContext, e.config.PerNodeLimit)
	latency := time.Since(start)

	denied := types.IsCode(err, types.ErrAccessDenied)

	if e.recorder != nil {
		// 鉴权拒绝说明节点可达, 不计入健康失败
		e.recorder.RecordOutcome(node.ID, err == nil || denied, latency)
	}

	if denied {
		// 授权拒绝是零结果的正常结局, 不是连接性失败
		e.logger.Debug("node denied access",
			zap.String("node_id", node.ID),
			zap.Duration("latency", latency))
		return types.NodeResult{
			NodeID:  node.ID,
			Success: true,
			Outcome: types.OutcomeAccessDenied,
			Latency: latency,
			Error:   err.Error(),
		}
	}

	if err != nil {
		outcome := classifyFailure(callCtx, err)
		e.logger.Warn("node call failed",
			zap.String("node_id", node.ID),
			zap.String("outcome", string(outcome)),
			zap.Duration("latency", latency),
			zap.Error(err))
		return types.NodeResult{
			NodeID:  node.ID,
			Success: false,
			Outcome: outcome,
			Latency: latency,
			Error:   err.Error(),
		}
	}

	e.logger.Debug("node call succeeded",
		zap.String("node_id", node.ID),
		zap.Int("documents", len(docs)),
		zap.Duration("latency", latency))
	return types.NodeResult{
		NodeID:    node.ID,
		Success:   true,
		Outcome:   types.OutcomeSuccess,
		Documents: docs,
		Latency:   latency,
	}
}

// classifyFailure 把调用错误折叠为结果分类.
func classifyFailure(ctx context.Context, err error) types.NodeOutcome {
	switch {
	case types.IsCode(err, types.ErrNodeTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return types.OutcomeTimeout
	case types.IsCode(err, types.ErrMalformedResponse):
		return types.OutcomeMalformed
	default:
		return types.OutcomeUnreachable
	}
}
