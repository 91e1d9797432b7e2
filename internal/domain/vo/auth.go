package vo

import "github.com/ayxworxfr/wm_console/internal/domain/models"

// LoginData 登录成功时data字段的结构
type LoginData struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// RefreshData 令牌刷新端点的响应（无信封包装）
type RefreshData struct {
	Access string `json:"access"`
}

// Result 动作执行结果 - store动作对预期失败不抛错，统一返回该结构
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK 构造成功结果
func OK() Result {
	return Result{Success: true}
}

// Fail 构造失败结果
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}
