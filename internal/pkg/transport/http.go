/**
 * gsad HTTP 传输层
 * @description: 命令层的 Transport 实现，将 Request 编码为 gsad 的表单请求
 *               GET 查询按配置重试，POST 修改不重试；会话 token 自动附加
 * @func:
 *   - NewHTTPTransport 根据后端配置创建
 *   - Do 发送命令
 *   - Login / Logout 会话管理
 */
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"
	"github.com/greenbone/gsa-sub043/internal/pkg/version"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// TokenParam 会话 token 的请求参数名
const TokenParam = "token"

// Session 登录后的会话信息
type Session struct {
	Username string `json:"username"`
	Token    string `json:"-"`
	Timezone string `json:"timezone,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// HTTPTransport 基于 go-retryablehttp 的 gsad 客户端
type HTTPTransport struct {
	endpoint string
	username string
	password string

	retrying *retryablehttp.Client // GET
	once     *retryablehttp.Client // POST，不重试

	session *Session
	mu      sync.RWMutex
	login   singleflight.Group
}

// NewHTTPTransport 根据后端配置创建传输层
func NewHTTPTransport(cfg config.BackendConfig) (*HTTPTransport, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	endpoint, err := url.JoinPath(cfg.URL, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", cfg.URL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 gsad 默认使用自签名证书
	}
	httpClient := &http.Client{
		Jar:       jar,
		Timeout:   cfg.Timeout,
		Transport: base,
	}

	return &HTTPTransport{
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		retrying: newRetryClient(httpClient, cfg.RetryMax, cfg.RetryWaitMin, cfg.RetryWaitMax),
		once:     newRetryClient(httpClient, 0, 0, 0),
	}, nil
}

func newRetryClient(httpClient *http.Client, retryMax int, waitMin, waitMax time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.Logger = leveledLogger{}
	client.RetryMax = retryMax
	if waitMin > 0 {
		client.RetryWaitMin = waitMin
	}
	if waitMax > 0 {
		client.RetryWaitMax = waitMax
	}
	// 重试耗尽后返回最后一次响应，由调用方转换为 RawRejection
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// Endpoint 命令接口地址
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

// Session 当前会话，未登录返回 nil
func (t *HTTPTransport) Session() *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return nil
	}
	s := *t.session
	return &s
}

// Do 实现 command.Transport
// 配置了凭据时按需登录，会话失效（401）时重新登录一次
func (t *HTTPTransport) Do(ctx context.Context, req command.Request) (*command.RawResponse, error) {
	token, err := t.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.send(ctx, req, token)
	var rej *command.RawRejection
	if errors.As(err, &rej) && rej.StatusCode == http.StatusUnauthorized && t.hasCredentials() {
		logger.WithFields(map[string]interface{}{
			"cmd":  req.Cmd(),
			"type": logger.SystemLog,
		}).Info("session expired, logging in again")
		t.clearSession(token)
		if token, err = t.ensureSession(ctx); err != nil {
			return nil, err
		}
		return t.send(ctx, req, token)
	}
	return resp, err
}

// Login 登录 gsad，保存会话 token，GSAD_SID cookie 由 cookie jar 保存
func (t *HTTPTransport) Login(ctx context.Context, username, password string) (*Session, error) {
	params := command.NewParams().
		Set("cmd", "login").
		Set("login", username).
		Set("password", password)

	raw, err := t.send(ctx, command.Request{Method: http.MethodPost, Params: params}, "")
	if err != nil {
		return nil, toRejection(err)
	}
	resp, err := envelope.Decode(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	token := stringValue(resp.Data[TokenParam])
	if token == "" {
		return nil, envelope.NewRejection(raw.StatusCode, envelope.ReasonUnauthorized, "login response contains no token")
	}

	session := &Session{
		Username: username,
		Token:    token,
		Timezone: stringValue(resp.Meta.Timezone),
		Locale:   stringValue(resp.Meta.I18n),
	}
	t.mu.Lock()
	t.session = session
	t.mu.Unlock()

	logger.LogSystemEvent("transport", "login", "logged in to gsad", logrus.InfoLevel, map[string]interface{}{
		"username": username,
		"endpoint": t.endpoint,
	})
	s := *session
	return &s, nil
}

// Logout 注销当前会话
func (t *HTTPTransport) Logout(ctx context.Context) error {
	t.mu.Lock()
	session := t.session
	t.session = nil
	t.mu.Unlock()
	if session == nil {
		return nil
	}

	params := command.NewParams().Set("cmd", "logout")
	if _, err := t.send(ctx, command.Request{Method: http.MethodPost, Params: params}, session.Token); err != nil {
		return toRejection(err)
	}
	logger.LogSystemEvent("transport", "logout", "logged out from gsad", logrus.InfoLevel, map[string]interface{}{
		"username": session.Username,
	})
	return nil
}

func (t *HTTPTransport) hasCredentials() bool {
	return t.username != ""
}

// ensureSession 返回当前 token，未登录且配置了凭据时登录
// 并发调用只登录一次
func (t *HTTPTransport) ensureSession(ctx context.Context) (string, error) {
	if s := t.Session(); s != nil {
		return s.Token, nil
	}
	if !t.hasCredentials() {
		// 不需要登录的后端（测试或代理）直接发送
		return "", nil
	}
	v, err, _ := t.login.Do("login", func() (interface{}, error) {
		if s := t.Session(); s != nil {
			return s.Token, nil
		}
		s, err := t.Login(ctx, t.username, t.password)
		if err != nil {
			return "", err
		}
		return s.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// clearSession 只清除仍是 token 的会话，避免覆盖并发请求刚建立的新会话
func (t *HTTPTransport) clearSession(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil && t.session.Token == token {
		t.session = nil
	}
}

// send 发送一次 HTTP 请求
// 非 2xx 返回 *command.RawRejection；超时与取消同样转换为 RawRejection
func (t *HTTPTransport) send(ctx context.Context, req command.Request, token string) (*command.RawResponse, error) {
	if req.Params == nil || req.Cmd() == "" {
		return nil, fmt.Errorf("request has no cmd")
	}
	params := req.Params.Clone()
	if token != "" {
		params.Set(TokenParam, token)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		httpReq *retryablehttp.Request
		err     error
		client  = t.once
	)
	switch method {
	case http.MethodGet:
		httpReq, err = retryablehttp.NewRequestWithContext(ctx, method, t.endpoint+"?"+params.Encode(), nil)
		client = t.retrying
	default:
		httpReq, err = retryablehttp.NewRequestWithContext(ctx, method, t.endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.Cmd(), err)
	}
	httpReq.Header.Set("User-Agent", version.GetUserAgent())

	resp, err := client.Do(httpReq)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read %s response: %w", req.Cmd(), err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &command.RawRejection{StatusCode: resp.StatusCode, Body: body}
	}
	return &command.RawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// classify 超时与取消转为 RawRejection，其余错误原样返回
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return &command.RawRejection{Reason: envelope.ReasonCancel}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &command.RawRejection{Reason: envelope.ReasonTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &command.RawRejection{Reason: envelope.ReasonTimeout}
	}
	return err
}

// toRejection 将 RawRejection 解码为 Rejection
func toRejection(err error) error {
	var raw *command.RawRejection
	if !errors.As(err, &raw) {
		return err
	}
	rej := envelope.DecodeRejection(raw.StatusCode, raw.Body)
	if raw.Reason != "" {
		rej.Reason = raw.Reason
	}
	return rej
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	}
	if s, ok := envelope.TextOf(v); ok {
		return s
	}
	return ""
}
