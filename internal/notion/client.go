package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/habbits/internal/metrics"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	// APIVersion 固定协议版本，带 multi-source database 支持
	APIVersion = "2025-09-03"
)

// httpDoer 抽象 http.Client，便于测试替换
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client 是唯一持有 Notion 凭证的组件。
// 所有出站调用都经过 Request：注入 Bearer 凭证和协议版本头，
// 原样向调用方转交远端的响应体与状态码，不做重试。
type Client struct {
	token string
	base  string
	http  httpDoer
}

// NewClient 构造客户端；token 的缺失由配置层在启动时拦截
func NewClient(token string) *Client {
	return &Client{
		token: token,
		base:  defaultBaseURL,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，传 nil 恢复默认
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
		return
	}
	c.http = client
}

// SetBaseURL 指向其它地址（测试用 httptest server）
func (c *Client) SetBaseURL(base string) {
	c.base = strings.TrimRight(strings.TrimSpace(base), "/")
}

// RemoteError 携带远端返回的原始错误：状态码、消息和响应体。
// 网关不解释领域错误码，调用方按需检查。
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Body    json.RawMessage
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion api %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion api error %d", e.Status)
}

// Request 把相对子路径转发到 Notion API 对应端点。
// 返回解码前的响应体和原始状态码；非 2xx 时返回 *RemoteError，
// 其中保留远端 payload 供网关端点原样回传。
func (c *Client) Request(ctx context.Context, method, path string, body []byte) (json.RawMessage, int, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNotionRequest(method, 0, time.Since(started))
		return nil, 0, fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	metrics.ObserveNotionRequest(method, resp.StatusCode, time.Since(started))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read notion response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		// 解析失败不致命，消息留空时退回状态文本
		_ = json.Unmarshal(respBody, &payload)
		if payload.Message == "" {
			payload.Message = strings.TrimSpace(resp.Status)
		}
		return respBody, resp.StatusCode, &RemoteError{
			Status:  resp.StatusCode,
			Code:    payload.Code,
			Message: payload.Message,
			Body:    respBody,
		}
	}

	return respBody, resp.StatusCode, nil
}

// call 发送请求并把成功响应解码到 out
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode notion payload: %w", err)
		}
		body = encoded
	}

	raw, _, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode notion response: %w", err)
		}
	}
	return nil
}

// Database 拉取数据库元数据
func (c *Client) Database(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.call(ctx, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDataSource 查询指定 data source 下的记录
func (c *Client) QueryDataSource(ctx context.Context, dataSourceID string, q *Query) (*QueryResult, error) {
	if q == nil {
		q = &Query{}
	}
	var result QueryResult
	if err := c.call(ctx, http.MethodPost, "/data_sources/"+dataSourceID+"/query", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type pageCreateRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

type pageUpdateRequest struct {
	Properties map[string]PropertyValue `json:"properties"`
}

// CreatePage 在指定 data source 下新增一条记录
func (c *Client) CreatePage(ctx context.Context, dataSourceID string, props map[string]PropertyValue) (*Page, error) {
	payload := pageCreateRequest{
		Parent:     Parent{Type: "data_source_id", DataSourceID: dataSourceID},
		Properties: props,
	}

	var page Page
	if err := c.call(ctx, http.MethodPost, "/pages", payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage 原地修改已有记录的属性集合
func (c *Client) UpdatePage(ctx context.Context, pageID string, props map[string]PropertyValue) (*Page, error) {
	payload := pageUpdateRequest{Properties: props}

	var page Page
	if err := c.call(ctx, http.MethodPatch, "/pages/"+pageID, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
