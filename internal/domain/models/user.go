package models

// User 用户信息（来自登录响应或用户列表）
type User struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
	IsStaff     bool   `json:"is_staff"`
	IsActive    bool   `json:"is_active"`
}

// FullName 返回用户全名，为空时退回用户名
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// Session 当前登录会话，持久化到本地存储
// access_token的存在与否是唯一的"已登录"判据
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsAuthenticated 判断会话是否有效
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccessToken != ""
}
