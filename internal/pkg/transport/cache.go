package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultCacheTTL 未配置有效期时的缓存时间
const DefaultCacheTTL = 30 * time.Second

// cachedResponse 缓存中保存的响应
type cachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`
}

// CachingTransport 查询缓存与并发去重
//   - 只缓存 GET 且非导出的请求，后端拒绝不缓存
//   - 相同的并发查询只发送一次，不受单个调用方取消的影响
//   - 任何修改类请求成功后清空缓存
//
// 缓存存储出错只记录日志，不影响请求
type CachingTransport struct {
	next   command.Transport
	store  Store
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewCachingTransport 包装下一层传输
func NewCachingTransport(next command.Transport, store Store, prefix string, ttl time.Duration) *CachingTransport {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingTransport{next: next, store: store, prefix: prefix, ttl: ttl}
}

// Do 实现 command.Transport
func (c *CachingTransport) Do(ctx context.Context, req command.Request) (*command.RawResponse, error) {
	if !cacheable(req) {
		resp, err := c.next.Do(ctx, req)
		if err == nil && req.Method != http.MethodGet {
			c.Invalidate(ctx)
		}
		return resp, err
	}

	key := c.key(req)
	if resp, ok := c.lookup(ctx, key); ok {
		logger.Debugf("cache hit: %s", req.Cmd())
		return resp, nil
	}

	// 共享请求不随某一个调用方取消，调用方各自按自己的 ctx 放弃等待
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		resp, err := c.next.Do(flightCtx, req)
		if err != nil {
			return nil, err
		}
		c.save(flightCtx, key, resp)
		return resp, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debugf("shared in-flight request: %s", req.Cmd())
		}
		return copyResponse(res.Val.(*command.RawResponse)), nil
	}
}

// Invalidate 清空本实例的全部缓存
func (c *CachingTransport) Invalidate(ctx context.Context) {
	if err := c.store.DeletePrefix(ctx, c.prefix); err != nil {
		logger.Warnf("failed to invalidate response cache: %v", err)
	}
}

func cacheable(req command.Request) bool {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return method == http.MethodGet && !req.Raw && req.Params != nil
}

func (c *CachingTransport) key(req command.Request) string {
	return c.prefix + req.Params.Encode()
}

func (c *CachingTransport) lookup(ctx context.Context, key string) (*command.RawResponse, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warnf("failed to read response cache: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warnf("discarding corrupt cache entry %s: %v", key, err)
		return nil, false
	}
	return &command.RawResponse{StatusCode: cached.StatusCode, Header: cached.Header, Body: cached.Body}, true
}

func (c *CachingTransport) save(ctx context.Context, key string, resp *command.RawResponse) {
	data, err := json.Marshal(cachedResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body})
	if err != nil {
		logger.Warnf("failed to encode cache entry: %v", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		logger.Warnf("failed to write response cache: %v", err)
	}
}

// copyResponse 共享的响应复制一份，调用方可以安全修改
func copyResponse(resp *command.RawResponse) *command.RawResponse {
	return &command.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       append([]byte(nil), resp.Body...),
	}
}
