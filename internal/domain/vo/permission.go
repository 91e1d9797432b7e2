package vo

// SystemPermissions 当前用户的系统级能力标志
type SystemPermissions struct {
	WorkCreate bool `json:"work_create" mapstructure:"work_create"`
	WorkDelete bool `json:"work_delete" mapstructure:"work_delete"`
}

// MyPermissionsData /permissions/my-permissions/ 端点data字段的结构
// permissions列表与user信息混装在同一对象中，字段形态不保证稳定，
// 由store用mapstructure做宽松解码
type MyPermissionsData struct {
	User struct {
		IsSuperuser bool `json:"is_superuser" mapstructure:"is_superuser"`
	} `json:"user" mapstructure:"user"`
	Permissions []PermissionEntry `json:"permissions" mapstructure:"permissions"`
}

// PermissionEntry my-permissions列表中的单条授权
type PermissionEntry struct {
	ColumnName string `json:"column_name" mapstructure:"column_name"`
	Permission string `json:"permission" mapstructure:"permission"`
	CanWrite   bool   `json:"can_write" mapstructure:"can_write"`
}

// AvailableColumnsData available_columns端点data字段的结构
type AvailableColumnsData struct {
	Columns []ColumnEntry `json:"columns" mapstructure:"columns"`
}

// ColumnEntry 可授权字段目录项
type ColumnEntry struct {
	ColumnName    string `json:"column_name" mapstructure:"column_name"`
	ColumnDisplay string `json:"column_display" mapstructure:"column_display"`
}
