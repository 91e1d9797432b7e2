package models

import "time"

// 服务端计算的工作状态码
const (
	StatusWaiting   = "waiting"   // 等待中
	StatusPrinting  = "printing"  // 印刷中
	StatusCompleted = "completed" // 已完成
)

// Link 工作记录附带的链接条目
type Link struct {
	URL         string    `json:"url" mapstructure:"url"`
	Title       string    `json:"title" mapstructure:"title"`
	Description string    `json:"description" mapstructure:"description"`
	AddedBy     string    `json:"added_by" mapstructure:"added_by"`
	AddedAt     time.Time `json:"added_at" mapstructure:"added_at"`
}

// Work 工作记录 - 核心业务实体
// 日期字段与后端保持"2006-01-02"字符串格式，空值表示未填写
// status_*三个字段由服务端计算下发，客户端只读
type Work struct {
	ID                 uint64   `json:"id"`
	Name               string   `json:"name"`
	Category           *uint64  `json:"category"`
	CategoryDetail     *Option  `json:"category_detail,omitempty"`
	Price              *float64 `json:"price"`
	Type               *uint64  `json:"type"`
	TypeDetail         *Option  `json:"type_detail,omitempty"`
	SalesChannel       *uint64  `json:"sales_channel"`
	SalesChannelDetail *Option  `json:"sales_channel_detail,omitempty"`
	Designer           *uint64  `json:"designer"`
	DesignStartDate    string   `json:"design_start_date"`
	DesignEndDate      string   `json:"design_end_date"`
	ConfirmDate        string   `json:"confirm_date"`
	PrintingLocation   string   `json:"printing_location"`
	PrintingControl    bool     `json:"printing_control"`
	PrintingController *uint64  `json:"printing_controller"`
	PrintingStartDate  string   `json:"printing_start_date"`
	PrintingEndDate    string   `json:"printing_end_date"`
	Mixed              bool     `json:"mixed"`
	PackagingDate      string   `json:"packaging_date"`
	StockEntry         bool     `json:"stock_entry"`
	ShippingDate       string   `json:"shipping_date"`
	Links              []Link   `json:"links"`
	Note               string   `json:"note"`

	StatusCode  string `json:"status_code"`
	StatusText  string `json:"status_text"`
	StatusColor string `json:"status_color"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// IsCompleted 判断工作是否已完成
func (w *Work) IsCompleted() bool {
	return w.StatusCode == StatusCompleted
}

// WorkStats 工作统计信息，随工作列表一并推导
type WorkStats struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}
