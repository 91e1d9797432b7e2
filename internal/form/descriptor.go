package form

import (
	"github.com/samber/lo"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
)

// FieldKind 字段输入类型
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindDate     FieldKind = "date"
	KindBool     FieldKind = "bool"
	KindRef      FieldKind = "ref"   // 下拉引用（分类/类型/渠道）
	KindUser     FieldKind = "user"  // 用户搜索选择器
	KindLinks    FieldKind = "links" // 链接条目列表
)

// Section 表单分区
type Section string

const (
	SectionBasic      Section = "basic"
	SectionDesign     Section = "design"
	SectionPrinting   Section = "printing"
	SectionShipping   Section = "shipping"
	SectionAdditional Section = "additional"
)

// FieldDescriptor 一个工作记录字段的声明式描述
// 渲染由单一的通用函数按描述驱动，可见性与可编辑性完全来自权限求值器
type FieldDescriptor struct {
	Name    string // 后端字段名，同时是权限映射的键
	Label   string // 展示名
	Kind    FieldKind
	Section Section
	Ref     string // KindRef时对应的下拉数据集标识
}

// WorkFields 工作记录的完整字段目录，按分区顺序排列
func WorkFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "name", Label: "Name", Kind: KindText, Section: SectionBasic},
		{Name: "category", Label: "Category", Kind: KindRef, Section: SectionBasic, Ref: models.DropdownCategories},
		{Name: "price", Label: "Price", Kind: KindNumber, Section: SectionBasic},
		{Name: "type", Label: "Type", Kind: KindRef, Section: SectionBasic, Ref: models.DropdownWorkTypes},
		{Name: "sales_channel", Label: "Sales Channel", Kind: KindRef, Section: SectionBasic, Ref: models.DropdownSalesChannels},

		{Name: "designer", Label: "Designer", Kind: KindUser, Section: SectionDesign},
		{Name: "design_start_date", Label: "Design Start", Kind: KindDate, Section: SectionDesign},
		{Name: "design_end_date", Label: "Design End", Kind: KindDate, Section: SectionDesign},
		{Name: "confirm_date", Label: "Confirm Date", Kind: KindDate, Section: SectionDesign},

		{Name: "printing_location", Label: "Printing Location", Kind: KindText, Section: SectionPrinting},
		{Name: "printing_control", Label: "Printing Control", Kind: KindBool, Section: SectionPrinting},
		{Name: "printing_controller", Label: "Printing Controller", Kind: KindUser, Section: SectionPrinting},
		{Name: "printing_start_date", Label: "Printing Start", Kind: KindDate, Section: SectionPrinting},
		{Name: "printing_end_date", Label: "Printing End", Kind: KindDate, Section: SectionPrinting},
		{Name: "mixed", Label: "Mixed", Kind: KindBool, Section: SectionPrinting},

		{Name: "packaging_date", Label: "Packaging Date", Kind: KindDate, Section: SectionShipping},
		{Name: "stock_entry", Label: "Stock Entry", Kind: KindBool, Section: SectionShipping},
		{Name: "shipping_date", Label: "Shipping Date", Kind: KindDate, Section: SectionShipping},

		{Name: "links", Label: "Links", Kind: KindLinks, Section: SectionAdditional},
		{Name: "note", Label: "Note", Kind: KindTextarea, Section: SectionAdditional},
	}
}

// GroupBySection 按分区分组字段描述
func GroupBySection(fields []FieldDescriptor) map[Section][]FieldDescriptor {
	return lo.GroupBy(fields, func(f FieldDescriptor) Section {
		return f.Section
	})
}
