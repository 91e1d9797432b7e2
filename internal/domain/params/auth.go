package params

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest 令牌刷新请求
type RefreshTokenRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// RegisterUserRequest 创建用户请求
type RegisterUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=6"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	IsStaff   bool   `json:"is_staff"`
}

// UpdateUserRequest 更新用户请求（PATCH，零值字段不发送）
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	IsStaff   *bool   `json:"is_staff,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// AssignUserRoleRequest 用户角色绑定请求
type AssignUserRoleRequest struct {
	User uint64 `json:"user" validate:"required"`
	Role uint64 `json:"role" validate:"required"`
}
