package permission

// Level 字段授权级别
type Level string

const (
	LevelNone  Level = "none"
	LevelRead  Level = "read"
	LevelWrite Level = "write"
)

// Map 字段名到授权级别的映射，未出现的字段视为完全隐藏
type Map map[string]Level

// SystemFlags 系统级能力标志
type SystemFlags struct {
	WorkCreate bool
	WorkDelete bool
}

// Evaluator 字段级权限求值器
// 超级用户覆盖逻辑集中在此处，调用方不需要在各处重复 isSuperuser 判断；
// 权限未加载完成前，一切字段都视为隐藏，避免权限到达前表单全量放开
type Evaluator struct {
	fields    Map
	system    SystemFlags
	superuser bool
	loaded    bool
}

// NewEvaluator 创建权限求值器
func NewEvaluator(fields Map, system SystemFlags, superuser, loaded bool) *Evaluator {
	if fields == nil {
		fields = Map{}
	}
	return &Evaluator{
		fields:    fields,
		system:    system,
		superuser: superuser,
		loaded:    loaded,
	}
}

// Empty 返回未加载状态的求值器，所有检查均为否
func Empty() *Evaluator {
	return NewEvaluator(nil, SystemFlags{}, false, false)
}

// Loaded 权限映射是否已从服务端加载
func (e *Evaluator) Loaded() bool {
	return e.loaded
}

// HasField 字段是否可见（映射中存在条目即可见，与级别无关）
// none级别的字段可见但既不可读也不可写
func (e *Evaluator) HasField(field string) bool {
	if !e.loaded {
		return false
	}
	if e.superuser {
		return true
	}
	_, ok := e.fields[field]
	return ok
}

// CanRead 字段是否可读（read或write级别）
func (e *Evaluator) CanRead(field string) bool {
	if !e.loaded {
		return false
	}
	if e.superuser {
		return true
	}
	level := e.fields[field]
	return level == LevelRead || level == LevelWrite
}

// CanWrite 字段是否可写（仅write级别）
func (e *Evaluator) CanWrite(field string) bool {
	if !e.loaded {
		return false
	}
	if e.superuser {
		return true
	}
	return e.fields[field] == LevelWrite
}

// CanCreateWork 是否允许创建工作记录
func (e *Evaluator) CanCreateWork() bool {
	if !e.loaded {
		return false
	}
	return e.superuser || e.system.WorkCreate
}

// CanDeleteWork 是否允许删除工作记录
func (e *Evaluator) CanDeleteWork() bool {
	if !e.loaded {
		return false
	}
	return e.superuser || e.system.WorkDelete
}

// ParseLevel 解析服务端下发的授权级别字面值，未知值按none处理
func ParseLevel(s string) Level {
	switch s {
	case "read", "r":
		return LevelRead
	case "write", "rw", "w":
		return LevelWrite
	default:
		return LevelNone
	}
}
