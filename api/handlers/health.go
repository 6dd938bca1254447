package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// =============================================================================
// 🏥 服务健康检查 Handler
// =============================================================================

// HealthStatus 服务健康状态响应
type HealthStatus struct {
	Status    string    `json:"status"` // "healthy", "degraded"
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	// NodesTotal 已注册节点数
	NodesTotal int `json:"nodes_total"`
	// NodesAvailable 当前可用节点数
	NodesAvailable int `json:"nodes_available"`
	// Nodes 各节点健康视图
	Nodes map[string]types.HealthStatus `json:"nodes,omitempty"`
}

// HealthHandler 服务健康检查处理器.
// 服务本身无节点可用时报告 degraded 而不是 unhealthy:
// 编排层仍然存活, 只是联邦暂时无法供给结果.
type HealthHandler struct {
	service NodeService
	version string
	logger  *zap.Logger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(service NodeService, version string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		service: service,
		version: version,
		logger:  logger.With(zap.String("handler", "health")),
	}
}

// Health 处理 GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	nodes := h.service.ListNodes()
	snapshot := h.service.HealthSnapshot()

	available := 0
	for _, n := range nodes {
		if n.Available {
			available++
		}
	}

	status := "healthy"
	if len(nodes) > 0 && available == 0 {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthStatus{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        h.version,
		NodesTotal:     len(nodes),
		NodesAvailable: available,
		Nodes:          snapshot,
	})
}
