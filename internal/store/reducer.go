package store

import (
	"time"

	"github.com/samber/lo"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/permission"
)

// Action 状态变更动作，reducer按类型分派
type Action interface {
	isAction()
}

type sessionStarted struct{ user *models.User }
type sessionEnded struct{}
type permissionsLoaded struct{ eval *permission.Evaluator }
type worksLoaded struct{ works []models.Work }
type movementsLoaded struct{ movements []models.Movement }
type usersLoaded struct{ users []models.User }
type rolesLoaded struct{ roles []models.Role }
type availableColumnsLoaded struct{ columns []models.AvailableColumn }
type dropdownLoaded struct {
	kind    string
	options []models.Option
}
type searchResultsLoaded struct{ users []models.User }
type loadingSet struct {
	key   collection
	value bool
}
type errorSet struct {
	key     collection
	message string
}
type toastPushed struct{ toast Toast }
type toastRemoved struct{ id string }
type toastsPruned struct{ now time.Time }
type modalSet struct {
	kind    ModalKind
	visible bool
}
type workStatusFilterSet struct{ value string }
type movementFilterSet struct {
	action string
	search string
}
type workSelected struct{ work *models.Work }

func (sessionStarted) isAction()         {}
func (sessionEnded) isAction()           {}
func (permissionsLoaded) isAction()      {}
func (worksLoaded) isAction()            {}
func (movementsLoaded) isAction()        {}
func (usersLoaded) isAction()            {}
func (rolesLoaded) isAction()            {}
func (availableColumnsLoaded) isAction() {}
func (dropdownLoaded) isAction()         {}
func (searchResultsLoaded) isAction()    {}
func (loadingSet) isAction()             {}
func (errorSet) isAction()               {}
func (toastPushed) isAction()            {}
func (toastRemoved) isAction()           {}
func (toastsPruned) isAction()           {}
func (modalSet) isAction()               {}
func (workStatusFilterSet) isAction()    {}
func (movementFilterSet) isAction()      {}
func (workSelected) isAction()           {}

// reduce 状态树的唯一修改入口
func reduce(state *State, action Action) {
	switch a := action.(type) {
	case sessionStarted:
		state.CurrentUser = a.user

	case sessionEnded:
		// 登出重置除toast队列外的所有切片
		toasts := state.Toasts
		*state = newState()
		state.Toasts = toasts

	case permissionsLoaded:
		state.Permissions = a.eval

	case worksLoaded:
		state.Works = a.works
		state.WorkStats = deriveWorkStats(a.works)

	case movementsLoaded:
		state.Movements = a.movements

	case usersLoaded:
		state.Users = a.users

	case rolesLoaded:
		state.Roles = a.roles

	case availableColumnsLoaded:
		state.AvailableColumns = a.columns

	case dropdownLoaded:
		state.Dropdowns[a.kind] = a.options

	case searchResultsLoaded:
		state.SearchResults = a.users

	case loadingSet:
		state.Loading[a.key] = a.value
		if a.value {
			delete(state.Errors, a.key)
		}

	case errorSet:
		state.Errors[a.key] = a.message

	case toastPushed:
		state.Toasts = append(state.Toasts, a.toast)

	case toastRemoved:
		state.Toasts = lo.Reject(state.Toasts, func(t Toast, _ int) bool {
			return t.ID == a.id
		})

	case toastsPruned:
		// 过期条目从状态中真正移除，长会话下队列不会无限增长
		state.Toasts = lo.Filter(state.Toasts, func(t Toast, _ int) bool {
			return a.now.Before(t.Created.Add(t.Duration))
		})

	case modalSet:
		state.Modals[a.kind] = a.visible

	case workStatusFilterSet:
		state.Filters.WorkStatus = a.value

	case movementFilterSet:
		state.Filters.MovementAction = a.action
		state.Filters.SearchTerm = a.search

	case workSelected:
		state.SelectedWork = a.work
	}
}

// deriveWorkStats 按状态聚合工作数量，completed之外一律计入进行中
func deriveWorkStats(works []models.Work) models.WorkStats {
	completed := lo.CountBy(works, func(w models.Work) bool {
		return w.IsCompleted()
	})
	return models.WorkStats{
		Total:      len(works),
		InProgress: len(works) - completed,
		Completed:  completed,
	}
}
