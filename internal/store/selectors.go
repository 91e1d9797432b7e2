package store

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
)

// FilteredWorks 按状态过滤器划分工作列表
// completed之外的所有状态都归入"进行中"
func FilteredWorks(state State) []models.Work {
	completed := state.Filters.WorkStatus == FilterCompleted
	return lo.Filter(state.Works, func(w models.Work, _ int) bool {
		return w.IsCompleted() == completed
	})
}

// FilteredMovements 按动作类型与搜索词过滤审计日志
// 搜索对描述、用户名、工作名做大小写不敏感的子串匹配
func FilteredMovements(state State) []models.Movement {
	action := state.Filters.MovementAction
	term := strings.ToLower(strings.TrimSpace(state.Filters.SearchTerm))

	return lo.Filter(state.Movements, func(m models.Movement, _ int) bool {
		if action != MovementActionAll && m.Action != action {
			return false
		}
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(m.Description), term) ||
			strings.Contains(strings.ToLower(m.DisplayUser()), term) ||
			strings.Contains(strings.ToLower(m.DisplayWork()), term)
	})
}

// CanCreateWork 当前用户是否可创建工作记录
func CanCreateWork(state State) bool {
	return state.Permissions.CanCreateWork()
}

// CanDeleteWork 当前用户是否可删除工作记录
func CanDeleteWork(state State) bool {
	return state.Permissions.CanDeleteWork()
}

// ActiveToasts 返回尚未过期的提示消息
func ActiveToasts(state State, now time.Time) []Toast {
	return lo.Filter(state.Toasts, func(t Toast, _ int) bool {
		return now.Before(t.Created.Add(t.Duration))
	})
}
