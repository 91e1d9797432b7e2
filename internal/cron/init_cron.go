package cron

import (
	"github.com/ayxworxfr/wm_console/internal/config"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/session"
	"github.com/ayxworxfr/wm_console/pkg/cron"
)

// InitCronTask 按配置装配定时任务：后端健康探测与令牌预刷新
func InitCronTask(gw *gateway.Gateway, tokens *session.Store) (*cron.TaskManager, error) {
	manager := cron.NewTaskManager(nil)

	registry := cron.NewTaskRegistry()
	registry.Register("health_task", healthCheck)
	registry.Register("token_refresh_task", tokenRefresh(gw, tokens))

	tasks := config.GetCronTasks()
	if tasks == nil {
		return manager, nil
	}
	if err := manager.LoadTasks(tasks, registry); err != nil {
		return nil, err
	}
	manager.Start()
	return manager, nil
}
