package form

import (
	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/permission"
)

// RoleForm 角色编辑表单
// 与工作记录不同，角色提交始终是全量对象：每个目录字段都带级别（含none）
type RoleForm struct {
	ID          uint64
	Name        string
	Description string

	permissions map[string]string
	system      map[string]bool
	columns     []models.AvailableColumn
}

// NewRoleForm 基于可授权字段目录创建角色表单
// role为nil时是新建模式，目录中每个字段初始为none
func NewRoleForm(role *models.Role, columns []models.AvailableColumn) *RoleForm {
	f := &RoleForm{
		permissions: make(map[string]string),
		system: map[string]bool{
			models.SystemPermWorkCreate: false,
			models.SystemPermWorkDelete: false,
		},
		columns: columns,
	}
	for _, col := range columns {
		f.permissions[col.ColumnName] = string(permission.LevelNone)
	}

	if role != nil {
		f.ID = role.ID
		f.Name = role.Name
		f.Description = role.Description
		for _, cp := range role.ColumnPermissions {
			f.permissions[cp.ColumnName] = string(permission.ParseLevel(cp.Permission))
		}
		for _, sp := range role.SystemPermissions {
			f.system[sp.PermissionType] = sp.Granted
		}
	}
	return f
}

// Columns 可授权字段目录
func (f *RoleForm) Columns() []models.AvailableColumn {
	return f.columns
}

// Permission 读取某字段当前级别
func (f *RoleForm) Permission(column string) string {
	if level, ok := f.permissions[column]; ok {
		return level
	}
	return string(permission.LevelNone)
}

// SetPermission 设置某字段级别，未知级别按none处理
func (f *RoleForm) SetPermission(column string, level string) {
	f.permissions[column] = string(permission.ParseLevel(level))
}

// CyclePermission 在none→read→write间轮转（TUI空格键交互）
func (f *RoleForm) CyclePermission(column string) string {
	var next string
	switch f.Permission(column) {
	case string(permission.LevelNone):
		next = string(permission.LevelRead)
	case string(permission.LevelRead):
		next = string(permission.LevelWrite)
	default:
		next = string(permission.LevelNone)
	}
	f.permissions[column] = next
	return next
}

// SystemGranted 读取系统级能力标志
func (f *RoleForm) SystemGranted(permType string) bool {
	return f.system[permType]
}

// ToggleSystem 翻转系统级能力标志
func (f *RoleForm) ToggleSystem(permType string) bool {
	f.system[permType] = !f.system[permType]
	return f.system[permType]
}

// BuildRequest 构造全量提交请求
func (f *RoleForm) BuildRequest() params.SaveRoleRequest {
	permissions := make(map[string]string, len(f.permissions))
	for column, level := range f.permissions {
		permissions[column] = level
	}
	system := make(map[string]bool, len(f.system))
	for permType, granted := range f.system {
		system[permType] = granted
	}
	return params.SaveRoleRequest{
		Name:              f.Name,
		Description:       f.Description,
		Permissions:       permissions,
		SystemPermissions: system,
	}
}
