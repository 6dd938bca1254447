package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/api"
	"github.com/BaSui01/fedsearch/types"
)

// =============================================================================
// 🔎 联邦检索 Handler
// =============================================================================

// SearchService 联邦检索入口, 由服务门面实现.
type SearchService interface {
	Search(ctx context.Context, query string, userCtx types.UserContext) (*types.FederatedResponse, error)
}

// SearchHandler 联邦检索处理器
type SearchHandler struct {
	service SearchService
	logger  *zap.Logger
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(service SearchService, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		service: service,
		logger:  logger.With(zap.String("handler", "search")),
	}
}

// Search 处理 POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteErrorMessage(w, types.ErrInvalidQuery, "query must not be empty", h.logger)
		return
	}

	userCtx := req.UserContext
	// 请求级策略覆盖通过过滤器传给分析器
	if req.RankingStrategy != "" {
		if !types.ValidStrategy(types.RankingStrategy(req.RankingStrategy)) {
			WriteErrorMessage(w, types.ErrInvalidStrategy,
				"unknown ranking strategy: "+req.RankingStrategy, h.logger)
			return
		}
		if userCtx.Filters == nil {
			userCtx.Filters = make(map[string]string, 1)
		}
		userCtx.Filters["ranking_strategy"] = req.RankingStrategy
	}

	resp, err := h.service.Search(r.Context(), req.Query, userCtx)
	if err != nil && resp == nil {
		WriteError(w, err, h.logger)
		return
	}
	// 所有节点失败时仍返回 200: 响应携带 unavailable 与完整 node_breakdown
	WriteSuccess(w, toSearchResponse(resp))
}

func toSearchResponse(resp *types.FederatedResponse) api.SearchResponse {
	return api.SearchResponse{
		QueryID:            resp.QueryID,
		Summary:            resp.Summary,
		Documents:          resp.Documents,
		TotalResults:       resp.TotalResults,
		NodesContributing:  resp.NodesContributing,
		NodesQueried:       resp.NodesQueried,
		StrategyUsed:       string(resp.StrategyUsed),
		DuplicatesRemoved:  resp.DuplicatesRemoved,
		Unavailable:        resp.Unavailable,
		NodeBreakdown:      resp.NodeBreakdown,
		PerformanceMetrics: resp.PerformanceMetrics,
	}
}
