package gateway

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/pkg/logger"
)

const loginPath = "/auth/login/"

// Login 执行登录并持久化会话
// 登录请求不携带Bearer头，因此直接走底层客户端
func (g *Gateway) Login(ctx context.Context, username, password string) (*models.User, error) {
	resp, err := g.client.Post(ctx, loginPath, params.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	envelope, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var data vo.LoginData
	if err := envelope.DecodeData(&data); err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, errors.New("login response missing access token")
	}

	if err := g.tokens.Save(&models.Session{
		User:         data.User,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	logger.Info(ctx, "user logged in", zap.String("username", username))
	return data.User, nil
}

// Logout 清除本地会话，登出是纯客户端行为
func (g *Gateway) Logout(ctx context.Context) error {
	user := g.tokens.CurrentUser()
	if user != nil {
		logger.Info(ctx, "user logged out", zap.String("username", user.Username))
	}
	return g.tokens.Clear()
}

// CurrentUser 返回当前登录用户
func (g *Gateway) CurrentUser() *models.User {
	return g.tokens.CurrentUser()
}

// IsAuthenticated 判断是否存在有效会话
func (g *Gateway) IsAuthenticated() bool {
	return g.tokens.IsAuthenticated()
}
