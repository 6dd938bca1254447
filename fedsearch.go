// Package fedsearch wires the federated search pipeline into a single
// service facade.
//
// Usage:
//
//	import "github.com/BaSui01/fedsearch"
//
//	svc, err := fedsearch.NewService(cfg, logger)
//	svc.Start(ctx)
//	resp, err := svc.Search(ctx, "latest diabetes research", userCtx)
//
// The pipeline is analyze -> select -> transform-per-node -> dispatch ->
// aggregate. Every stage is its own package; this facade only owns the
// wiring and the response envelope.
package fedsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/aggregate"
	"github.com/BaSui01/fedsearch/config"
	"github.com/BaSui01/fedsearch/federation"
	"github.com/BaSui01/fedsearch/health"
	"github.com/BaSui01/fedsearch/internal/cache"
	"github.com/BaSui01/fedsearch/internal/metrics"
	"github.com/BaSui01/fedsearch/privacy"
	"github.com/BaSui01/fedsearch/query"
	"github.com/BaSui01/fedsearch/registry"
	"github.com/BaSui01/fedsearch/selector"
	"github.com/BaSui01/fedsearch/types"
)

// Service 联邦检索编排服务.
// 持有整条散发-汇聚流水线的所有组件, 对外只暴露检索与节点管理两组操作.
type Service struct {
	config *config.Config
	logger *zap.Logger

	registry    *registry.Registry
	store       *registry.Store
	discoverer  *registry.Discoverer
	client      *federation.Client
	monitor     *health.Monitor
	analyzer    *query.Analyzer
	selector    *selector.Selector
	transformer *privacy.Transformer
	engine      *federation.Engine
	aggregator  *aggregate.Aggregator

	cache     *cache.Manager
	collector *metrics.Collector
}

// Option 配置 Service 的可选依赖.
type Option func(*Service)

// WithMetrics 注入指标收集器.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.collector = c }
}

// NewService 按配置装配整条流水线.
func NewService(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	// 注册表, 可选 SQLite 持久化
	var regOpts []registry.Option
	if cfg.Registry.PersistEnabled {
		store, err := registry.NewStore(cfg.Registry.StorePath, logger)
		if err != nil {
			return nil, err
		}
		s.store = store
		regOpts = append(regOpts, registry.WithStore(store))
	}
	s.registry = registry.New(logger, regOpts...)
	if s.store != nil {
		n, err := s.registry.LoadPersisted()
		if err != nil {
			return nil, err
		}
		logger.Info("persisted nodes loaded", zap.Int("count", n))
	}

	// 节点协议客户端同时充当发现准入与健康探测的探测器
	s.client = federation.NewClient(cfg.Federation.NodeTimeout, logger)

	s.monitor = health.NewMonitor(health.Config{
		ProbeInterval:          cfg.Health.ProbeInterval,
		ProbeTimeout:           cfg.Health.ProbeTimeout,
		MaxConsecutiveFailures: cfg.Health.MaxConsecutiveFailures,
		UptimeWindow:           cfg.Health.UptimeWindow,
	}, s.registry, s.client, logger)

	s.analyzer = query.NewAnalyzer(query.AnalyzerConfig{
		DefaultMaxNodes: cfg.Federation.MaxNodesPerQuery,
		DefaultStrategy: types.RankingStrategy(cfg.Federation.DefaultStrategy),
	}, nil, logger)

	s.selector = selector.New(selector.Config{
		Strategy: cfg.Federation.SelectionStrategy,
	}, s.monitor, logger)

	transformer, err := privacy.NewTransformer(privacy.Config{
		Mode:         cfg.Privacy.Mode,
		SharedSecret: cfg.Privacy.SharedSecret,
		Epsilon:      cfg.Privacy.Epsilon,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.transformer = transformer

	s.engine = federation.NewEngine(federation.Config{
		NodeTimeout:  cfg.Federation.NodeTimeout,
		PerNodeLimit: cfg.Federation.PerNodeLimit,
	}, s.client, s.transformer, s.monitor, logger)

	s.aggregator = aggregate.NewAggregator(aggregate.Config{
		MaxResults: cfg.Federation.MaxResults,
	}, logger)

	s.discoverer = registry.NewDiscoverer(registry.DiscovererConfig{
		Concurrency:      cfg.Registry.DiscoveryConcurrency,
		AdmissionTimeout: cfg.Registry.DiscoveryTimeout,
	}, s.registry, s.client, nil, logger)

	if cfg.Redis.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = cfg.Redis.Addr
		cacheCfg.Password = cfg.Redis.Password
		cacheCfg.DB = cfg.Redis.DB
		cacheCfg.ResultTTL = cfg.Redis.ResultTTL
		cacheCfg.PoolSize = cfg.Redis.PoolSize
		cacheCfg.MinIdleConns = cfg.Redis.MinIdleConns
		manager, err := cache.NewManager(cacheCfg, logger)
		if err != nil {
			return nil, err
		}
		s.cache = manager
	}

	return s, nil
}

// Start 启动后台健康监控.
func (s *Service) Start(ctx context.Context) {
	s.monitor.Start(ctx)
}

// Stop 停止后台组件并释放持有的资源.
func (s *Service) Stop() {
	s.monitor.Stop()
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

// Search 执行一次端到端联邦检索.
//
// 所有被选节点均失败时返回不可用响应和 NO_NODES_AVAILABLE 错误,
// 响应携带完整的 node_breakdown 供调用方观测.
func (s *Service) Search(ctx context.Context, q string, userCtx types.UserContext) (*types.FederatedResponse, error) {
	totalStart := time.Now()

	analysisStart := time.Now()
	analysis, err := s.analyzer.Analyze(q, userCtx)
	if err != nil {
		return nil, err
	}
	analysisDur := time.Since(analysisStart)

	// 缓存命中时跳过整条流水线
	cacheKey := ""
	if s.cache != nil {
		cacheKey = cache.ResultKey(analysis.Query, userCtx, analysis.RankingStrategy)
		if cached, err := s.cache.GetResponse(ctx, cacheKey); err == nil {
			cached.PerformanceMetrics.CacheHit = true
			s.recordCacheLookup(true)
			return cached, nil
		}
		s.recordCacheLookup(false)
	}

	selected := s.selector.Select(analysis, s.registry.List())
	if len(selected) == 0 {
		return nil, types.NewError(types.ErrNoNodesAvailable,
			"no registered node matches the query requirements")
	}

	selectedIDs := make([]string, 0, len(selected))
	for _, n := range selected {
		selectedIDs = append(selectedIDs, n.ID)
	}
	s.selector.Acquire(selectedIDs)
	defer s.selector.Release(selectedIDs)

	dispatchStart := time.Now()
	results := s.engine.Execute(ctx, analysis, selected)
	dispatchDur := time.Since(dispatchStart)

	aggregateStart := time.Now()
	agg := s.aggregator.Aggregate(results, selected, analysis)
	aggregateDur := time.Since(aggregateStart)

	allFailed := true
	for _, res := range results {
		if res.Success {
			allFailed = false
			break
		}
	}

	resp := &types.FederatedResponse{
		QueryID:           uuid.NewString(),
		Documents:         agg.Documents,
		TotalResults:      len(agg.Documents),
		NodesContributing: agg.NodesContributing,
		NodesQueried:      selectedIDs,
		StrategyUsed:      agg.StrategyUsed,
		DuplicatesRemoved: agg.DuplicatesRemoved,
		Unavailable:       allFailed,
		NodeBreakdown:     agg.NodeBreakdown,
		PerformanceMetrics: types.PerformanceMetrics{
			TotalDuration:     time.Since(totalStart),
			AnalysisDuration:  analysisDur,
			DispatchDuration:  dispatchDur,
			AggregateDuration: aggregateDur,
		},
	}
	resp.Summary = fmt.Sprintf("%d results from %d of %d nodes",
		resp.TotalResults, resp.NodesContributing, len(selectedIDs))

	s.recordQuery(resp, results)

	if allFailed {
		return resp, types.NewError(types.ErrNoNodesAvailable, "all selected nodes failed").
			WithRetryable(true)
	}

	if s.cache != nil {
		if err := s.cache.StoreResponse(ctx, cacheKey, resp); err != nil {
			s.logger.Warn("failed to cache response", zap.Error(err))
		}
	}
	return resp, nil
}

// RegisterNode 注册节点并立即做一次健康探测.
// 注册变更会清空结果缓存: 旧响应的节点集合已经过期.
func (s *Service) RegisterNode(ctx context.Context, node *types.Node) error {
	if err := s.registry.Register(node); err != nil {
		return err
	}
	s.monitor.ProbeNode(ctx, node)
	s.flushCache(ctx)
	s.updateAvailabilityGauge()
	return nil
}

// RemoveNode 移除节点.
func (s *Service) RemoveNode(ctx context.Context, id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	s.flushCache(ctx)
	s.updateAvailabilityGauge()
	return nil
}

// ListNodes 返回所有已注册节点的快照.
func (s *Service) ListNodes() []*types.Node {
	return s.registry.List()
}

// AutoDiscover 从发现端点抓取候选节点清单, 准入探测通过后注册.
func (s *Service) AutoDiscover(ctx context.Context, endpoint string) (int, error) {
	admitted, err := s.discoverer.Discover(ctx, endpoint)
	if len(admitted) > 0 {
		s.flushCache(ctx)
		s.updateAvailabilityGauge()
	}
	return len(admitted), err
}

// HealthSnapshot 返回健康监控器的当前视图.
func (s *Service) HealthSnapshot() map[string]types.HealthStatus {
	return s.monitor.Snapshot()
}

func (s *Service) flushCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn("failed to flush result cache", zap.Error(err))
	}
}

func (s *Service) recordCacheLookup(hit bool) {
	if s.collector == nil {
		return
	}
	if hit {
		s.collector.RecordCacheHit("result")
	} else {
		s.collector.RecordCacheMiss("result")
	}
}

func (s *Service) recordQuery(resp *types.FederatedResponse, results map[string]types.NodeResult) {
	if s.collector == nil {
		return
	}
	status := "ok"
	if resp.Unavailable {
		status = "unavailable"
	}
	s.collector.RecordFederatedQuery(string(resp.StrategyUsed), status,
		resp.PerformanceMetrics.TotalDuration, resp.TotalResults, resp.DuplicatesRemoved)
	for id, res := range results {
		s.collector.RecordNodeDispatch(id, string(res.Outcome), res.Latency)
	}
	s.updateAvailabilityGauge()
}

func (s *Service) updateAvailabilityGauge() {
	if s.collector == nil {
		return
	}
	available := 0
	for _, n := range s.registry.List() {
		if n.Available {
			available++
		}
	}
	s.collector.SetNodesAvailable(available)
}
