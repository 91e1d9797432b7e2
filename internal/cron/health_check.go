package cron

import (
	"context"
	"time"

	"github.com/ayxworxfr/wm_console/internal/config"
	"github.com/ayxworxfr/wm_console/pkg/httpclient"
	"github.com/ayxworxfr/wm_console/pkg/logger"
)

var HttpClient *httpclient.Client

const (
	Timeout = 5 * time.Second        // 请求超时时间
	Retries = 2                      // 失败时重试次数
	Backoff = 200 * time.Millisecond // 退避时间
)

func init() {
	// 创建HTTP客户端
	client := httpclient.NewClient(
		"",
		httpclient.WithTimeout(Timeout),
		httpclient.WithRetries(Retries),
		httpclient.WithBackoff(Backoff),
	)
	HttpClient = client
}

// 后端健康探测任务
func healthCheck() {
	ctx := context.Background()
	logger.Info(ctx, "[TASK] Performing backend health check...")

	// 探测后端API的健康端点
	url := config.GetAPIBaseURL() + config.Get().API.HealthEndpoint
	rsp, err := HttpClient.Get(ctx, url, nil)
	if err != nil || rsp.StatusCode/100 != 2 {
		logger.Errorf(ctx, "[TASK] Backend health check failed: %v", err)
		return
	}
	rsp.Body.Close()

	logger.Info(ctx, "[TASK] Backend health check successful")
}
