package models

// Option 下拉引用数据项（分类/工作类型/销售渠道/用户搜索结果）
type Option struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsActive    bool   `json:"is_active,omitempty"`
	Order       int    `json:"order,omitempty"`
}

// Label 返回用于展示的文本
func (o Option) Label() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Name
}

// 下拉数据集类型标识，store按此标识整组替换
const (
	DropdownCategories    = "categories"
	DropdownWorkTypes     = "work_types"
	DropdownSalesChannels = "sales_channels"
)
