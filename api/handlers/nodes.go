package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/api"
	"github.com/BaSui01/fedsearch/types"
)

// =============================================================================
// 🗂️ 节点管理 Handler
// =============================================================================

// NodeService 节点注册与发现入口, 由服务门面实现.
type NodeService interface {
	RegisterNode(ctx context.Context, node *types.Node) error
	RemoveNode(ctx context.Context, id string) error
	ListNodes() []*types.Node
	AutoDiscover(ctx context.Context, endpoint string) (int, error)
	HealthSnapshot() map[string]types.HealthStatus
}

// NodeHandler 节点管理处理器
type NodeHandler struct {
	service NodeService
	logger  *zap.Logger
}

// NewNodeHandler 创建节点管理处理器
func NewNodeHandler(service NodeService, logger *zap.Logger) *NodeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeHandler{
		service: service,
		logger:  logger.With(zap.String("handler", "nodes")),
	}
}

// List 处理 GET /api/v1/nodes
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	nodes := h.service.ListNodes()
	health := h.service.HealthSnapshot()

	views := make([]api.NodeView, 0, len(nodes))
	for _, n := range nodes {
		view := api.NodeView{
			ID:           n.ID,
			Name:         n.Name,
			Endpoint:     n.Endpoint,
			Domain:       n.Domain,
			Capabilities: n.Capabilities,
			PrivacyTier:  string(n.PrivacyTier),
			Available:    n.Available,
		}
		if hs, ok := health[n.ID]; ok {
			view.Health = &hs
		}
		views = append(views, view)
	}
	WriteSuccess(w, views)
}

// Register 处理 POST /api/v1/nodes
func (h *NodeHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterNodeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	node := &types.Node{
		ID:           req.ID,
		Name:         req.Name,
		Endpoint:     req.Endpoint,
		Domain:       req.Domain,
		Capabilities: req.Capabilities,
		PrivacyTier:  types.PrivacyTier(req.PrivacyTier),
	}
	if err := h.service.RegisterNode(r.Context(), node); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.logger.Info("node registered",
		zap.String("node_id", node.ID),
		zap.String("domain", node.Domain),
		zap.String("privacy_tier", string(node.PrivacyTier)))
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: node, Timestamp: time.Now()})
}

// Remove 处理 DELETE /api/v1/nodes/{id}
func (h *NodeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/nodes/")
	if id == "" || strings.Contains(id, "/") {
		WriteErrorMessage(w, types.ErrInvalidNode, "missing node id", h.logger)
		return
	}

	if err := h.service.RemoveNode(r.Context(), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.logger.Info("node removed", zap.String("node_id", id))
	WriteSuccess(w, map[string]string{"removed": id})
}

// Discover 处理 POST /api/v1/nodes/discover
func (h *NodeHandler) Discover(w http.ResponseWriter, r *http.Request) {
	var req api.DiscoverRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		WriteErrorMessage(w, types.ErrInvalidQuery, "discovery endpoint is required", h.logger)
		return
	}

	registered, err := h.service.AutoDiscover(r.Context(), req.Endpoint)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, api.DiscoverResponse{Registered: registered})
}
