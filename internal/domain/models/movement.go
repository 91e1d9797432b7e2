package models

import "time"

// 审计动作类型
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// MovementUser 审计条目中的用户引用（被删除用户仅保留全名文本）
type MovementUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// MovementWork 审计条目中的工作引用（被删除工作仅保留名称文本）
type MovementWork struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Changes 更新动作的差异快照
type Changes struct {
	Old map[string]any `json:"old"`
	New map[string]any `json:"new"`
}

// Movement 审计日志条目 - 客户端只读，不可修改或删除
type Movement struct {
	ID           uint64        `json:"id"`
	Action       string        `json:"action"`
	Description  string        `json:"description"`
	User         *MovementUser `json:"user"`
	UserFullname string        `json:"user_fullname"`
	Work         *MovementWork `json:"work"`
	WorkName     string        `json:"work_name"`
	Changes      *Changes      `json:"changes"`
	Created      time.Time     `json:"created"`
}

// DisplayUser 返回用于展示和搜索的用户名
func (m *Movement) DisplayUser() string {
	if m.User != nil && m.User.Username != "" {
		return m.User.Username
	}
	return m.UserFullname
}

// DisplayWork 返回用于展示和搜索的工作名称
func (m *Movement) DisplayWork() string {
	if m.Work != nil && m.Work.Name != "" {
		return m.Work.Name
	}
	return m.WorkName
}
