package form

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/permission"
)

var validate = validator.New()

// Form 权限驱动的工作记录表单
// 不可见字段完全不出现，只读字段的写入在此处兜底拒绝；
// 编辑模式持有加载时的快照，提交只发送可写且发生变化的字段
type Form struct {
	eval     *permission.Evaluator
	fields   []FieldDescriptor
	values   map[string]any
	snapshot map[string]any
	editing  bool
}

// NewWorkForm 创建工作记录表单，work为nil时是新建模式
func NewWorkForm(eval *permission.Evaluator, work *models.Work) (*Form, error) {
	f := &Form{
		eval:    eval,
		fields:  WorkFields(),
		editing: work != nil,
	}
	f.values = workValues(work)

	if f.editing {
		// 深拷贝快照，后续编辑不会污染diff基线
		snapshot := make(map[string]any)
		if err := copier.CopyWithOption(&snapshot, &f.values, copier.Option{DeepCopy: true}); err != nil {
			return nil, errors.Wrap(err, "failed to snapshot form values")
		}
		f.snapshot = snapshot
	}
	return f, nil
}

// workValues 将工作记录展开为字段名到值的映射
// 指针字段解引用，nil保持为nil
func workValues(w *models.Work) map[string]any {
	if w == nil {
		w = &models.Work{}
	}
	return map[string]any{
		"name":                w.Name,
		"category":            deref(w.Category),
		"price":               deref(w.Price),
		"type":                deref(w.Type),
		"sales_channel":       deref(w.SalesChannel),
		"designer":            deref(w.Designer),
		"design_start_date":   w.DesignStartDate,
		"design_end_date":     w.DesignEndDate,
		"confirm_date":        w.ConfirmDate,
		"printing_location":   w.PrintingLocation,
		"printing_control":    w.PrintingControl,
		"printing_controller": deref(w.PrintingController),
		"printing_start_date": w.PrintingStartDate,
		"printing_end_date":   w.PrintingEndDate,
		"mixed":               w.Mixed,
		"packaging_date":      w.PackagingDate,
		"stock_entry":         w.StockEntry,
		"shipping_date":       w.ShippingDate,
		"links":               w.Links,
		"note":                w.Note,
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Editing 是否为编辑模式
func (f *Form) Editing() bool {
	return f.editing
}

// VisibleFields 当前用户可见的字段描述，顺序与目录一致
// 无授权条目的字段完全不出现，连禁用占位都没有
func (f *Form) VisibleFields() []FieldDescriptor {
	return lo.Filter(f.fields, func(fd FieldDescriptor, _ int) bool {
		return f.eval.HasField(fd.Name)
	})
}

// CanWrite 字段是否可编辑
func (f *Form) CanWrite(name string) bool {
	return f.eval.CanWrite(name)
}

// Value 读取字段当前值
func (f *Form) Value(name string) any {
	return f.values[name]
}

// SetValue 写入字段值，只读字段的写入被拒绝（纵深防御）
// printing_control取消勾选时在同一次变更中清空printing_controller
func (f *Form) SetValue(name string, value any) bool {
	if !f.eval.CanWrite(name) {
		return false
	}
	f.values[name] = value

	if name == "printing_control" {
		if checked, ok := value.(bool); ok && !checked {
			f.values["printing_controller"] = nil
		}
	}
	return true
}

// Validate 字段级校验，失败返回首个不通过的原因
func (f *Form) Validate() error {
	name, _ := f.values["name"].(string)
	if err := validate.Var(name, "required,max=200"); err != nil {
		return errors.New("name is required")
	}

	if links, ok := f.values["links"].([]models.Link); ok {
		for _, link := range links {
			if err := validate.Var(link.URL, "required,url"); err != nil {
				return errors.Errorf("invalid link url: %s", link.URL)
			}
		}
	}
	return nil
}

// BuildCreatePayload 新建提交：包含全部可写字段，空字符串转为null
func (f *Form) BuildCreatePayload() map[string]any {
	payload := make(map[string]any)
	for _, fd := range f.fields {
		if !f.eval.CanWrite(fd.Name) {
			continue
		}
		payload[fd.Name] = normalize(f.values[fd.Name])
	}
	return payload
}

// BuildUpdatePayload 编辑提交：只包含可写且与快照不同的字段
// 空映射表示无变更，调用方应跳过网络调用
func (f *Form) BuildUpdatePayload() map[string]any {
	payload := make(map[string]any)
	for _, fd := range f.fields {
		if !f.eval.CanWrite(fd.Name) {
			continue
		}
		if reflect.DeepEqual(f.values[fd.Name], f.snapshot[fd.Name]) {
			continue
		}
		payload[fd.Name] = normalize(f.values[fd.Name])
	}
	return payload
}

// normalize 提交前的值转换：空字符串按后端约定转为null
func normalize(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
