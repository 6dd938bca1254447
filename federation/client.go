package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/internal/tlsutil"
	"github.com/BaSui01/fedsearch/types"
)

// headerQueryEncrypted 标记载荷为密文的请求头, 值为加密方案
const headerQueryEncrypted = "X-Query-Encrypted"

// Client 联邦节点协议的 HTTP 客户端.
// 每个节点暴露 GET /health 与 POST /search 两个端点,
// 客户端同时充当注册与健康监控的探测器.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建节点客户端. timeout 为 0 时使用 30 秒.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: tlsutil.SecureHTTPClient(timeout),
		logger:     logger.With(zap.String("component", "node_client")),
	}
}

// healthResponse 节点 /health 端点的线格式
type healthResponse struct {
	Status       string   `json:"status"`
	NodeID       string   `json:"node_id"`
	Domain       string   `json:"domain,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// searchRequest POST /search 的请求体
type searchRequest struct {
	Query       string            `json:"query"`
	UserContext types.UserContext `json:"user_context,omitempty"`
	Limit       int               `json:"limit,omitempty"`
}

// searchResponse POST /search 的响应体
type searchResponse struct {
	Documents   []types.Document `json:"documents"`
	ResultCount int              `json:"result_count"`
	NodeID      string           `json:"node_id"`
	Domain      string           `json:"domain,omitempty"`
	Confidence  float64          `json:"confidence"`
	Success     bool             `json:"success"`
	Error       string           `json:"error,omitempty"`
}

// Probe 对节点做一次存活检查, 返回往返延迟.
// 同一实现同时满足 registry 发现准入与 health 周期探测的接口.
func (c *Client) Probe(ctx context.Context, node *types.Node) (time.Duration, error) {
	endpoint := strings.TrimRight(node.Endpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, types.NewError(types.ErrNodeUnreachable, "health probe failed").
			WithNode(node.ID).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return latency, types.NewError(types.ErrNodeUnreachable,
			fmt.Sprintf("health probe returned status %d", resp.StatusCode)).
			WithNode(node.ID).WithRetryable(true)
	}

	var payload healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err != nil {
		return latency, types.NewError(types.ErrMalformedResponse, "invalid health payload").
			WithNode(node.ID).WithCause(err)
	}
	if payload.Status != "healthy" && payload.Status != "ok" {
		return latency, types.NewError(types.ErrNodeUnreachable,
			fmt.Sprintf("node reports status %q", payload.Status)).
			WithNode(node.ID).WithRetryable(true)
	}
	return latency, nil
}

// Search 向节点提交一次检索调用.
// payload 为经隐私变换的查询文本; encrypted 标记其为受限节点密文,
// 通过请求头告知节点侧解密.
func (c *Client) Search(ctx context.Context, node *types.Node, payload string, encrypted bool, userCtx types.UserContext, limit int) ([]types.Document, float64, error) {
	body, err := json.Marshal(searchRequest{
		Query:       payload,
		UserContext: userCtx,
		Limit:       limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(node.Endpoint, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if encrypted {
		req.Header.Set(headerQueryEncrypted, "aes-gcm")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, 0, types.NewError(types.ErrNodeTimeout, "search call timed out").
				WithNode(node.ID).WithCause(err).WithRetryable(true)
		}
		return nil, 0, types.NewError(types.ErrNodeUnreachable, "search call failed").
			WithNode(node.ID).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, types.NewError(types.ErrAccessDenied,
			fmt.Sprintf("node rejected the query: status %d", resp.StatusCode)).WithNode(node.ID)
	case resp.StatusCode != http.StatusOK:
		return nil, 0, types.NewError(types.ErrNodeUnreachable,
			fmt.Sprintf("search returned status %d", resp.StatusCode)).
			WithNode(node.ID).WithRetryable(true)
	}

	var result searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&result); err != nil {
		return nil, 0, types.NewError(types.ErrMalformedResponse, "invalid search payload").
			WithNode(node.ID).WithCause(err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "node reported failure"
		}
		return nil, 0, types.NewError(types.ErrMalformedResponse, msg).WithNode(node.ID)
	}

	// 文档校验: 丢弃缺内容的条目而不是让它们污染聚合
	docs := make([]types.Document, 0, len(result.Documents))
	for _, d := range result.Documents {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		d.SourceNode = node.ID
		if d.NodeConfidence == 0 {
			d.NodeConfidence = result.Confidence
		}
		docs = append(docs, d)
	}
	return docs, result.Confidence, nil
}
