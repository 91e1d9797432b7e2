package cron

import (
	"context"

	"go.uber.org/zap"

	"github.com/ayxworxfr/wm_console/internal/config"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/session"
	"github.com/ayxworxfr/wm_console/pkg/cron"
	"github.com/ayxworxfr/wm_console/pkg/jwtauth"
	"github.com/ayxworxfr/wm_console/pkg/logger"
)

// tokenRefresh 令牌预刷新任务
// 访问令牌进入过期窗口时主动刷新，交互请求尽量不走401路径；
// 401路径仍然是权威兜底，此任务失败不影响正确性
func tokenRefresh(gw *gateway.Gateway, tokens *session.Store) cron.TaskHandlerFunc {
	return func() {
		ctx := context.Background()

		access := tokens.AccessToken()
		if access == "" {
			return
		}

		window, err := jwtauth.ParseDuration(config.Get().API.RefreshWindow)
		if err != nil {
			logger.Warn(ctx, "[TASK] Invalid refresh window config", zap.Error(err))
			return
		}
		if !jwtauth.ExpiresWithin(access, window) {
			return
		}

		logger.Info(ctx, "[TASK] Access token expiring soon, refreshing...")
		if err := gw.Refresh(ctx); err != nil {
			logger.Errorf(ctx, "[TASK] Proactive token refresh failed: %v", err)
			return
		}
		logger.Info(ctx, "[TASK] Access token refreshed ahead of expiry")
	}
}
