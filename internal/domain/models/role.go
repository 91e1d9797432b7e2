package models

import "time"

// 系统级权限标志
const (
	SystemPermWorkCreate = "work_create"
	SystemPermWorkDelete = "work_delete"
)

// ColumnPermission 角色在单个字段上的授权
type ColumnPermission struct {
	ID                uint64 `json:"id,omitempty"`
	ColumnName        string `json:"column_name"`
	ColumnDisplay     string `json:"column_display,omitempty"`
	Permission        string `json:"permission"`
	PermissionDisplay string `json:"permission_display,omitempty"`
}

// SystemPermission 角色的粗粒度能力标志
type SystemPermission struct {
	ID             uint64 `json:"id,omitempty"`
	PermissionType string `json:"permission_type"`
	Granted        bool   `json:"granted"`
}

// Role 角色 - 字段级授权与系统级授权的集合
type Role struct {
	ID                uint64             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	ColumnPermissions []ColumnPermission `json:"column_permissions"`
	SystemPermissions []SystemPermission `json:"system_permissions"`
	Created           time.Time          `json:"created,omitempty"`
	Updated           time.Time          `json:"updated,omitempty"`
}

// UserRole 用户与角色的绑定关系
type UserRole struct {
	ID   uint64 `json:"id"`
	User uint64 `json:"user"`
	Role uint64 `json:"role"`
}

// AvailableColumn 角色编辑界面使用的可授权字段目录项
type AvailableColumn struct {
	ColumnName    string `json:"column_name" mapstructure:"column_name"`
	ColumnDisplay string `json:"column_display" mapstructure:"column_display"`
}
