package store

import (
	"time"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/permission"
)

// ToastLevel 提示消息级别
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast 自动过期的提示消息，FIFO队列
type Toast struct {
	ID       string
	Level    ToastLevel
	Message  string
	Created  time.Time
	Duration time.Duration
}

// ModalKind 模态框类型，每类对应一个可见性标志
type ModalKind string

const (
	ModalWorkForm      ModalKind = "work_form"
	ModalRoleForm      ModalKind = "role_form"
	ModalUserForm      ModalKind = "user_form"
	ModalConfirmDelete ModalKind = "confirm_delete"
)

// WorkStatusFilter 仪表盘工作状态过滤值
const (
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// MovementActionAll 动作过滤的"全部"取值
const MovementActionAll = "all"

// Filters 列表过滤条件
type Filters struct {
	WorkStatus     string // active | completed
	MovementAction string // all | create | update | delete
	SearchTerm     string
}

// 集合标识，loading与error按集合记账
type collection string

const (
	colWorks       collection = "works"
	colMovements   collection = "movements"
	colUsers       collection = "users"
	colRoles       collection = "roles"
	colDropdowns   collection = "dropdowns"
	colPermissions collection = "permissions"
	colUserSearch  collection = "user_search"
)

// State 全局状态树 - 扁平的独立切片集合，reducer是唯一修改者
type State struct {
	CurrentUser *models.User
	Permissions *permission.Evaluator

	Works            []models.Work
	WorkStats        models.WorkStats
	Movements        []models.Movement
	Users            []models.User
	Roles            []models.Role
	AvailableColumns []models.AvailableColumn
	Dropdowns        map[string][]models.Option
	SearchResults    []models.User

	SelectedWork *models.Work
	Filters      Filters
	Modals       map[ModalKind]bool
	Toasts       []Toast

	Loading map[collection]bool
	Errors  map[collection]string
}

// newState 构造初始状态
func newState() State {
	return State{
		Permissions: permission.Empty(),
		Dropdowns:   make(map[string][]models.Option),
		Modals:      make(map[ModalKind]bool),
		Loading:     make(map[collection]bool),
		Errors:      make(map[collection]string),
		Filters: Filters{
			WorkStatus:     FilterActive,
			MovementAction: MovementActionAll,
		},
	}
}

// IsLoading 指定集合是否有请求在途
func (s *State) IsLoading(key collection) bool {
	return s.Loading[key]
}

// WorksLoading 工作列表是否加载中
func (s *State) WorksLoading() bool { return s.Loading[colWorks] }

// MovementsLoading 日志列表是否加载中
func (s *State) MovementsLoading() bool { return s.Loading[colMovements] }

// PermissionsLoaded 权限映射是否就绪
func (s *State) PermissionsLoaded() bool {
	return s.Permissions != nil && s.Permissions.Loaded()
}
