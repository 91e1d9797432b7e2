package params

// SaveRoleRequest 角色创建/更新请求
// 角色采用全量对象提交（POST/PUT），与工作记录的差量PATCH语义不同
type SaveRoleRequest struct {
	Name              string            `json:"name" validate:"required,max=100"`
	Description       string            `json:"description" validate:"max=500"`
	Permissions       map[string]string `json:"permissions" validate:"dive,oneof=none read write"`
	SystemPermissions map[string]bool   `json:"system_permissions"`
}

// SaveDropdownRequest 下拉引用数据项创建/更新请求
type SaveDropdownRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active,omitempty"`
	Order    *int   `json:"order,omitempty"`
}
