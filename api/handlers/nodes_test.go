package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/fedsearch/types"
)

type stubNodeService struct {
	nodes      []*types.Node
	health     map[string]types.HealthStatus
	registered []*types.Node
	removed    []string
	discovered int
	err        error
}

func (s *stubNodeService) RegisterNode(_ context.Context, node *types.Node) error {
	if s.err != nil {
		return s.err
	}
	s.registered = append(s.registered, node)
	return nil
}

func (s *stubNodeService) RemoveNode(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, id)
	return nil
}

func (s *stubNodeService) ListNodes() []*types.Node { return s.nodes }

func (s *stubNodeService) AutoDiscover(_ context.Context, endpoint string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.discovered, nil
}

func (s *stubNodeService) HealthSnapshot() map[string]types.HealthStatus { return s.health }

func TestNodeHandlerRegister(t *testing.T) {
	svc := &stubNodeService{}
	h := NewNodeHandler(svc, nil)

	body := `{"id": "med-1", "endpoint": "https://med.example.com", "domain": "medical",
		"capabilities": ["search"], "privacy_tier": "confidential"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nodes", strings.NewReader(body))
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "med-1", svc.registered[0].ID)
	assert.Equal(t, types.TierConfidential, svc.registered[0].PrivacyTier)
}

func TestNodeHandlerRegisterDuplicate(t *testing.T) {
	svc := &stubNodeService{err: types.NewError(types.ErrNodeExists, "already registered")}
	h := NewNodeHandler(svc, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nodes",
		strings.NewReader(`{"id": "dup", "endpoint": "https://x", "domain": "tech", "privacy_tier": "public"}`))
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNodeHandlerRemove(t *testing.T) {
	svc := &stubNodeService{}
	h := NewNodeHandler(svc, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/nodes/med-1", nil)
	h.Remove(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"med-1"}, svc.removed)
}

func TestNodeHandlerRemoveUnknown(t *testing.T) {
	svc := &stubNodeService{err: types.NewError(types.ErrNodeNotFound, "no such node")}
	h := NewNodeHandler(svc, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/nodes/ghost", nil)
	h.Remove(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNodeHandlerRemoveMissingID(t *testing.T) {
	h := NewNodeHandler(&stubNodeService{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/nodes/", nil)
	h.Remove(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeHandlerListIncludesHealth(t *testing.T) {
	svc := &stubNodeService{
		nodes: []*types.Node{
			{ID: "a", Endpoint: "https://a", Domain: "medical", PrivacyTier: types.TierPublic, Available: true},
			{ID: "b", Endpoint: "https://b", Domain: "legal", PrivacyTier: types.TierRestricted},
		},
		health: map[string]types.HealthStatus{
			"a": {NodeID: "a", IsHealthy: true, UptimePct: 99.5},
		},
	}
	h := NewNodeHandler(svc, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(data, &views))
	require.Len(t, views, 2)
	assert.NotNil(t, views[0]["health"], "probed node should expose health view")
	assert.Nil(t, views[1]["health"], "unprobed node should omit health view")
}

func TestNodeHandlerDiscover(t *testing.T) {
	svc := &stubNodeService{discovered: 3}
	h := NewNodeHandler(svc, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nodes/discover",
		strings.NewReader(`{"endpoint": "https://registry.example.com/nodes"}`))
	h.Discover(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registered":3`)
}

func TestHealthHandlerDegradedWhenNoneAvailable(t *testing.T) {
	svc := &stubNodeService{
		nodes: []*types.Node{{ID: "a", Available: false}},
	}
	h := NewHealthHandler(svc, "1.0.0", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, 1, status.NodesTotal)
	assert.Equal(t, 0, status.NodesAvailable)
}

func TestHealthHandlerHealthy(t *testing.T) {
	svc := &stubNodeService{
		nodes: []*types.Node{{ID: "a", Available: true}},
		health: map[string]types.HealthStatus{
			"a": {NodeID: "a", IsHealthy: true},
		},
	}
	h := NewHealthHandler(svc, "1.0.0", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(rec, req)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
}
