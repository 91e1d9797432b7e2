package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/pkg/httpclient"
	"github.com/ayxworxfr/wm_console/pkg/logger"
)

// ErrSessionExpired 刷新令牌失效，需要重新登录
var ErrSessionExpired = errors.New("session expired, please login again")

const defaultRefreshPath = "/auth/refresh/"

// TokenStore 网关依赖的令牌存取接口，由session.Store实现
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	Save(sess *models.Session) error
	Clear() error
	CurrentUser() *models.User
	IsAuthenticated() bool
}

// APIError 后端返回的业务错误，携带HTTP状态码与信封内容
type APIError struct {
	StatusCode int
	Message    string
	Response   *vo.Response
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf 提取错误对应的HTTP状态码，非APIError时返回0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// refreshCall 一次进行中的令牌刷新，并发401请求共享同一次刷新
type refreshCall struct {
	done chan struct{}
	err  error
}

// Gateway 带认证的API网关
// 自动附加Bearer令牌；收到401时触发单航班令牌刷新，
// 刷新期间到达的请求等待同一次刷新结果，成功后各自用新令牌重放一次
type Gateway struct {
	client        *httpclient.Client
	tokens        TokenStore
	refreshPath   string
	onAuthFailure func()
	tracer        trace.Tracer

	mu      sync.Mutex
	refresh *refreshCall
}

// Option 配置网关的函数类型
type Option func(*Gateway)

// WithAuthFailureHandler 设置刷新失败（会话过期）时的回调
func WithAuthFailureHandler(fn func()) Option {
	return func(g *Gateway) {
		g.onAuthFailure = fn
	}
}

// WithRefreshPath 自定义令牌刷新端点路径
func WithRefreshPath(path string) Option {
	return func(g *Gateway) {
		g.refreshPath = path
	}
}

// New 创建API网关
func New(client *httpclient.Client, tokens TokenStore, opts ...Option) *Gateway {
	g := &Gateway{
		client:      client,
		tokens:      tokens,
		refreshPath: defaultRefreshPath,
		tracer:      otel.Tracer("wm_console/gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do 发送认证请求并解析统一响应信封
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body any) (*vo.Response, error) {
	ctx, span := g.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	resp, err := g.doWithAuth(ctx, method, path, query, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	envelope, err := decodeEnvelope(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return envelope, nil
}

// doWithAuth 附加令牌发送请求，401时刷新令牌并重放一次
func (g *Gateway) doWithAuth(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	usedToken := g.tokens.AccessToken()
	resp, err := g.client.Do(ctx, method, path, query, body, bearerHeaders(usedToken))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// 401：排空响应体后尝试刷新令牌并重放，且仅重放一次
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := g.refreshAccessToken(ctx, usedToken); err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "replaying request after token refresh: %s %s", method, path)
	return g.client.Do(ctx, method, path, query, body, bearerHeaders(g.tokens.AccessToken()))
}

// bearerHeaders 构造认证头，无令牌时返回nil
func bearerHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// Refresh 主动刷新访问令牌，定时任务在过期窗口内调用
// 与401触发的刷新共享同一单航班通道
func (g *Gateway) Refresh(ctx context.Context) error {
	return g.refreshAccessToken(ctx, g.tokens.AccessToken())
}

// refreshAccessToken 单航班令牌刷新
// 已有刷新在途时等待其结果；领头者执行真正的刷新请求
// staleToken为失败请求所用的令牌，用于识别已被他人刷新的情况
func (g *Gateway) refreshAccessToken(ctx context.Context, staleToken string) error {
	g.mu.Lock()
	if call := g.refresh; call != nil {
		g.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	g.refresh = call
	g.mu.Unlock()

	call.err = g.doRefresh(ctx, staleToken)

	g.mu.Lock()
	g.refresh = nil
	g.mu.Unlock()
	close(call.done)

	return call.err
}

// doRefresh 执行刷新请求，失败时清除会话并通知上层
func (g *Gateway) doRefresh(ctx context.Context, staleToken string) error {
	// 令牌已被先行的刷新替换，直接用新令牌重放
	if current := g.tokens.AccessToken(); current != "" && current != staleToken {
		return nil
	}

	refreshToken := g.tokens.RefreshToken()
	if refreshToken == "" {
		return g.authFailure(ctx, errors.New("no refresh token"))
	}

	resp, err := g.client.Post(ctx, g.refreshPath, params.RefreshTokenRequest{Refresh: refreshToken})
	if err != nil {
		return g.authFailure(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.authFailure(ctx, errors.Errorf("refresh endpoint returned %d", resp.StatusCode))
	}

	// 刷新端点返回裸响应 {"access": "..."}，无信封包装
	var data vo.RefreshData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return g.authFailure(ctx, errors.Wrap(err, "invalid refresh response"))
	}
	if data.Access == "" {
		return g.authFailure(ctx, errors.New("refresh response missing access token"))
	}

	if err := g.tokens.SetAccessToken(data.Access); err != nil {
		return err
	}
	logger.Info(ctx, "access token refreshed")
	return nil
}

// authFailure 刷新失败：清除本地会话并触发回调，所有等待者收到会话过期错误
func (g *Gateway) authFailure(ctx context.Context, cause error) error {
	logger.Warn(ctx, "token refresh failed, clearing session", zap.Error(cause))
	if err := g.tokens.Clear(); err != nil {
		logger.Error(ctx, "failed to clear session", zap.Error(err))
	}
	if g.onAuthFailure != nil {
		g.onAuthFailure()
	}
	return ErrSessionExpired
}

// decodeEnvelope 解析统一响应信封，失败响应转换为APIError
func decodeEnvelope(resp *http.Response) (*vo.Response, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var envelope vo.Response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, &APIError{
					StatusCode: resp.StatusCode,
					Message:    http.StatusText(resp.StatusCode),
				}
			}
			return nil, errors.Wrap(err, "invalid response envelope")
		}
	} else {
		// 部分端点成功时返回空体（如204删除）
		envelope.Success = resp.StatusCode < http.StatusBadRequest
	}

	if resp.StatusCode >= http.StatusBadRequest || !envelope.Success {
		statusCode := resp.StatusCode
		if statusCode < http.StatusBadRequest {
			statusCode = http.StatusBadRequest
		}
		return nil, &APIError{
			StatusCode: statusCode,
			Message:    envelope.ErrorMessage("request failed"),
			Response:   &envelope,
		}
	}
	return &envelope, nil
}

// Get 发送认证GET请求
func (g *Gateway) Get(ctx context.Context, path string, query url.Values) (*vo.Response, error) {
	return g.Do(ctx, http.MethodGet, path, query, nil)
}

// Post 发送认证POST请求
func (g *Gateway) Post(ctx context.Context, path string, body any) (*vo.Response, error) {
	return g.Do(ctx, http.MethodPost, path, nil, body)
}

// Put 发送认证PUT请求
func (g *Gateway) Put(ctx context.Context, path string, body any) (*vo.Response, error) {
	return g.Do(ctx, http.MethodPut, path, nil, body)
}

// Patch 发送认证PATCH请求
func (g *Gateway) Patch(ctx context.Context, path string, body any) (*vo.Response, error) {
	return g.Do(ctx, http.MethodPatch, path, nil, body)
}

// Delete 发送认证DELETE请求
func (g *Gateway) Delete(ctx context.Context, path string) (*vo.Response, error) {
	return g.Do(ctx, http.MethodDelete, path, nil, nil)
}
