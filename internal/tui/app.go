// internal/tui/app.go
//
// 终端控制台的主模型，基于bubbletea的Elm架构：
// Model持有全部界面状态，Update按消息推进，View渲染为字符串。
// 业务状态全部在store中，这里只保存界面局部状态（焦点、输入框、表格）。

package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/internal/form"
	"github.com/ayxworxfr/wm_console/internal/store"
)

// screen 当前所在界面
type screen int

const (
	screenLogin screen = iota
	screenDashboard
	screenMovements
	screenSettings
	screenWorkForm
	screenRoleForm
	screenUserForm
	screenDropdownForm
)

const toastTickInterval = time.Second

// storeChangedMsg store状态变更通知，由订阅回调注入
type storeChangedMsg struct{}

// actionDoneMsg 一次store动作的结果
type actionDoneMsg struct {
	result vo.Result
}

// toastTickMsg 周期心跳，驱动toast过期重绘
type toastTickMsg time.Time

// App 主应用模型
type App struct {
	ctx   context.Context
	store *store.Store

	screen screen
	width  int
	height int

	// 登录界面
	usernameInput textinput.Model
	passwordInput textinput.Model
	loginFocus    int

	// 仪表盘与日志
	worksTable     table.Model
	movementsTable table.Model
	searchInput    textinput.Model
	searching      bool

	// 工作记录表单
	workForm   *form.Form
	formFields []form.FieldDescriptor
	formInputs map[string]textinput.Model
	formFocus  int

	// 用户搜索选择器（设计师/印刷管控人字段内嵌）
	picking     bool
	pickerField string
	pickerInput textinput.Model
	pickerIndex int

	// 链接条目编辑（links字段内嵌）
	addingLink     bool
	linkURLInput   textinput.Model
	linkTitleInput textinput.Model
	linkFocus      int

	// 角色表单
	roleForm  *form.RoleForm
	roleFocus int

	// 用户与下拉项表单
	userForm     *userFormState
	dropdownForm *dropdownFormState

	// 设置界面
	settingsTab   int
	settingsIndex int
	dropKindIdx   int

	statusMsg string
}

// NewApp 创建主应用模型
func NewApp(ctx context.Context, st *store.Store) *App {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64

	search := textinput.New()
	search.Placeholder = "search movements"
	search.CharLimit = 64

	a := &App{
		ctx:           ctx,
		store:         st,
		screen:        screenLogin,
		usernameInput: username,
		passwordInput: password,
		searchInput:   search,
		worksTable:    newWorksTable(),
		movementsTable: table.New(
			table.WithColumns(movementColumns()),
			table.WithHeight(12),
		),
	}

	// 已有持久会话时跳过登录界面
	if st.State().CurrentUser != nil {
		a.screen = screenDashboard
	}
	return a
}

func newWorksTable() table.Model {
	t := table.New(
		table.WithColumns(workColumns()),
		table.WithHeight(12),
	)
	t.Focus()
	return t
}

func workColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 28},
		{Title: "Status", Width: 12},
		{Title: "Designer", Width: 10},
		{Title: "Shipping", Width: 12},
	}
}

func movementColumns() []table.Column {
	return []table.Column{
		{Title: "Time", Width: 16},
		{Title: "Action", Width: 8},
		{Title: "User", Width: 14},
		{Title: "Work", Width: 20},
		{Title: "Description", Width: 36},
	}
}

// Init 启动时的首批命令
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.tickToasts()}
	if a.screen == screenDashboard {
		cmds = append(cmds, a.bootstrapCmd())
	}
	return tea.Batch(cmds...)
}

// bootstrapCmd 登录后的初始数据装载
func (a *App) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		a.store.LoadPermissions(a.ctx)
		a.store.FetchWorks(a.ctx)
		a.store.FetchDropdowns(a.ctx)
		return storeChangedMsg{}
	}
}

func (a *App) tickToasts() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// Update 消息分发
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.worksTable.SetHeight(max(4, msg.Height-14))
		a.movementsTable.SetHeight(max(4, msg.Height-14))
		return a, nil

	case toastTickMsg:
		a.store.PruneToasts(time.Time(msg))
		return a, a.tickToasts()

	case storeChangedMsg:
		a.syncTables()
		return a, nil

	case loginDoneMsg:
		if msg.result.Success {
			a.screen = screenDashboard
			a.statusMsg = ""
			a.syncTables()
		} else {
			a.statusMsg = msg.result.Message
		}
		return a, nil

	case userRolesLoadedMsg:
		if a.userForm != nil {
			for _, id := range msg.roleIDs {
				a.userForm.granted[id] = true
			}
		}
		return a, nil

	case actionDoneMsg:
		a.syncTables()
		if msg.result.Success {
			a.statusMsg = ""
		} else {
			a.statusMsg = msg.result.Message
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.screen {
		case screenLogin:
			return a.updateLogin(msg)
		case screenDashboard:
			return a.updateDashboard(msg)
		case screenMovements:
			return a.updateMovements(msg)
		case screenSettings:
			return a.updateSettings(msg)
		case screenWorkForm:
			return a.updateWorkForm(msg)
		case screenRoleForm:
			return a.updateRoleForm(msg)
		case screenUserForm:
			return a.updateUserForm(msg)
		case screenDropdownForm:
			return a.updateDropdownForm(msg)
		}
	}
	return a, nil
}

// syncTables 用store快照重建表格行
func (a *App) syncTables() {
	state := a.store.State()

	workRows := make([]table.Row, 0, len(state.Works))
	for _, w := range store.FilteredWorks(state) {
		designer := ""
		if w.Designer != nil {
			designer = strconv.FormatUint(*w.Designer, 10)
		}
		workRows = append(workRows, table.Row{
			strconv.FormatUint(w.ID, 10),
			w.Name,
			w.StatusText,
			designer,
			w.ShippingDate,
		})
	}
	a.worksTable.SetRows(workRows)

	movementRows := make([]table.Row, 0, len(state.Movements))
	for _, m := range store.FilteredMovements(state) {
		movementRows = append(movementRows, table.Row{
			m.Created.Format("2006-01-02 15:04"),
			m.Action,
			m.DisplayUser(),
			m.DisplayWork(),
			m.Description,
		})
	}
	a.movementsTable.SetRows(movementRows)
}

// updateLogin 登录界面按键处理
func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		a.loginFocus = 1 - a.loginFocus
		if a.loginFocus == 0 {
			a.passwordInput.Blur()
			return a, a.usernameInput.Focus()
		}
		a.usernameInput.Blur()
		return a, a.passwordInput.Focus()

	case "enter":
		username := a.usernameInput.Value()
		password := a.passwordInput.Value()
		a.statusMsg = "signing in..."
		return a, func() tea.Msg {
			res := a.store.Login(a.ctx, username, password)
			if res.Success {
				a.store.FetchWorks(a.ctx)
				a.store.FetchDropdowns(a.ctx)
			}
			return loginDoneMsg{result: res}
		}
	}

	var cmd tea.Cmd
	if a.loginFocus == 0 {
		a.usernameInput, cmd = a.usernameInput.Update(msg)
	} else {
		a.passwordInput, cmd = a.passwordInput.Update(msg)
	}
	return a, cmd
}

// loginDoneMsg 登录动作完成
type loginDoneMsg struct {
	result vo.Result
}

// updateDashboard 仪表盘按键处理
func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := a.store.State()
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "r":
		return a, func() tea.Msg {
			a.store.FetchWorks(a.ctx)
			return storeChangedMsg{}
		}

	case "f":
		if state.Filters.WorkStatus == store.FilterActive {
			a.store.SetWorkStatusFilter(store.FilterCompleted)
		} else {
			a.store.SetWorkStatusFilter(store.FilterActive)
		}
		a.syncTables()
		return a, nil

	case "n":
		if !store.CanCreateWork(state) {
			a.statusMsg = "you are not allowed to create works"
			return a, nil
		}
		return a, a.openWorkForm(nil)

	case "enter":
		if w := a.selectedWork(state); w != nil {
			return a, a.openWorkForm(w)
		}
		return a, nil

	case "d":
		if !store.CanDeleteWork(state) {
			a.statusMsg = "you are not allowed to delete works"
			return a, nil
		}
		if w := a.selectedWork(state); w != nil {
			id := w.ID
			return a, func() tea.Msg {
				return actionDoneMsg{result: a.store.DeleteWork(a.ctx, id)}
			}
		}
		return a, nil

	case "m":
		a.screen = screenMovements
		return a, func() tea.Msg {
			a.store.FetchMovements(a.ctx)
			return storeChangedMsg{}
		}

	case "s":
		a.screen = screenSettings
		a.settingsIndex = 0
		return a, func() tea.Msg {
			a.store.FetchUsers(a.ctx)
			a.store.FetchRoles(a.ctx)
			return storeChangedMsg{}
		}

	case "L":
		a.store.Logout(a.ctx)
		a.screen = screenLogin
		a.usernameInput.SetValue("")
		a.passwordInput.SetValue("")
		a.loginFocus = 0
		a.usernameInput.Focus()
		a.passwordInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.worksTable, cmd = a.worksTable.Update(msg)
	return a, cmd
}

// selectedWork 返回表格当前选中的工作记录
func (a *App) selectedWork(state store.State) *models.Work {
	row := a.worksTable.SelectedRow()
	if len(row) == 0 {
		return nil
	}
	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return nil
	}
	for i := range state.Works {
		if state.Works[i].ID == id {
			return &state.Works[i]
		}
	}
	return nil
}

// updateMovements 日志界面按键处理
func (a *App) updateMovements(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch msg.String() {
		case "enter", "esc":
			a.searching = false
			a.searchInput.Blur()
			state := a.store.State()
			a.store.SetMovementFilter(state.Filters.MovementAction, a.searchInput.Value())
			a.syncTables()
			return a, nil
		}
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "esc", "q":
		a.screen = screenDashboard
		return a, nil

	case "/":
		a.searching = true
		return a, a.searchInput.Focus()

	case "a":
		state := a.store.State()
		a.store.SetMovementFilter(nextMovementAction(state.Filters.MovementAction), state.Filters.SearchTerm)
		a.syncTables()
		return a, nil

	case "r":
		return a, func() tea.Msg {
			a.store.FetchMovements(a.ctx)
			return storeChangedMsg{}
		}
	}

	var cmd tea.Cmd
	a.movementsTable, cmd = a.movementsTable.Update(msg)
	return a, cmd
}

// nextMovementAction 在all→create→update→delete间轮转
func nextMovementAction(current string) string {
	switch current {
	case store.MovementActionAll:
		return models.ActionCreate
	case models.ActionCreate:
		return models.ActionUpdate
	case models.ActionUpdate:
		return models.ActionDelete
	default:
		return store.MovementActionAll
	}
}

// dropdownKinds 下拉数据集的固定展示顺序
var dropdownKinds = []string{
	models.DropdownCategories,
	models.DropdownWorkTypes,
	models.DropdownSalesChannels,
}

// settingsListLen 当前标签页可选条目数
func (a *App) settingsListLen(state store.State) int {
	switch a.settingsTab {
	case 0:
		return len(state.Users)
	case 1:
		return len(state.Roles)
	default:
		return len(state.Dropdowns[dropdownKinds[a.dropKindIdx]])
	}
}

// updateSettings 设置界面按键处理
// 三个标签页共用一个选中游标，切换标签或数据集时归零
func (a *App) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := a.store.State()
	switch msg.String() {
	case "esc", "q":
		a.screen = screenDashboard
		return a, nil

	case "tab":
		a.settingsTab = (a.settingsTab + 1) % 3
		a.settingsIndex = 0
		return a, nil

	case "up":
		if a.settingsIndex > 0 {
			a.settingsIndex--
		}
		return a, nil

	case "down":
		if a.settingsIndex+1 < a.settingsListLen(state) {
			a.settingsIndex++
		}
		return a, nil

	case "left", "right":
		if a.settingsTab == 2 {
			if msg.String() == "left" {
				a.dropKindIdx = (a.dropKindIdx + len(dropdownKinds) - 1) % len(dropdownKinds)
			} else {
				a.dropKindIdx = (a.dropKindIdx + 1) % len(dropdownKinds)
			}
			a.settingsIndex = 0
		}
		return a, nil

	case "r":
		return a, func() tea.Msg {
			a.store.FetchUsers(a.ctx)
			a.store.FetchRoles(a.ctx)
			a.store.FetchDropdowns(a.ctx)
			return storeChangedMsg{}
		}

	case "n":
		switch a.settingsTab {
		case 0:
			return a, a.openUserForm(nil)
		case 1:
			a.roleForm = form.NewRoleForm(nil, state.AvailableColumns)
			a.roleFocus = 0
			a.screen = screenRoleForm
		case 2:
			a.openDropdownForm(dropdownKinds[a.dropKindIdx], nil)
		}
		return a, nil

	case "enter":
		switch a.settingsTab {
		case 0:
			if a.settingsIndex < len(state.Users) {
				return a, a.openUserForm(&state.Users[a.settingsIndex])
			}
		case 1:
			if a.settingsIndex < len(state.Roles) {
				a.roleForm = form.NewRoleForm(&state.Roles[a.settingsIndex], state.AvailableColumns)
				a.roleFocus = 0
				a.screen = screenRoleForm
			}
		case 2:
			kind := dropdownKinds[a.dropKindIdx]
			options := state.Dropdowns[kind]
			if a.settingsIndex < len(options) {
				a.openDropdownForm(kind, &options[a.settingsIndex])
			}
		}
		return a, nil
	}
	return a, nil
}
