package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/store"
)

// 用户表单的文本输入下标
const (
	userFieldUsername = iota
	userFieldPassword
	userFieldEmail
	userFieldFirstName
	userFieldLastName
	userFieldCount
)

var userFieldLabels = [userFieldCount]string{
	"Username", "Password", "Email", "First Name", "Last Name",
}

// userRolesLoadedMsg 编辑用户时异步拉取到的现有角色绑定
type userRolesLoadedMsg struct {
	roleIDs []uint64
}

// userFormState 用户创建/编辑表单
// 焦点顺序：文本输入 → staff开关 → 角色条目
type userFormState struct {
	editing *models.User
	inputs  [userFieldCount]textinput.Model
	focus   int
	staff   bool
	roles   []models.Role
	granted map[uint64]bool
}

// openUserForm 打开用户表单（user为nil时新建）
// 编辑模式异步预拉用户的现有角色绑定，保存时才能按差异重绑定
func (a *App) openUserForm(user *models.User) tea.Cmd {
	state := a.store.State()
	f := &userFormState{
		editing: user,
		roles:   state.Roles,
		granted: make(map[uint64]bool),
	}
	for i := range f.inputs {
		input := textinput.New()
		input.Placeholder = userFieldLabels[i]
		input.CharLimit = 64
		f.inputs[i] = input
	}
	f.inputs[userFieldPassword].EchoMode = textinput.EchoPassword

	if user != nil {
		f.inputs[userFieldUsername].SetValue(user.Username)
		f.inputs[userFieldEmail].SetValue(user.Email)
		f.inputs[userFieldFirstName].SetValue(user.FirstName)
		f.inputs[userFieldLastName].SetValue(user.LastName)
		f.staff = user.IsStaff
	}

	a.userForm = f
	a.screen = screenUserForm
	if user == nil {
		a.focusUserField(0)
		return nil
	}
	a.focusUserField(userFieldPassword)
	return func() tea.Msg {
		ids, err := a.store.UserRoleIDs(a.ctx, user.ID)
		if err != nil {
			return userRolesLoadedMsg{}
		}
		return userRolesLoadedMsg{roleIDs: ids}
	}
}

// focusUserField 移动用户表单焦点（输入框之外的条目只高亮不聚焦）
func (a *App) focusUserField(idx int) {
	f := a.userForm
	total := userFieldCount + 1 + len(f.roles)
	down := idx > f.focus
	f.focus = (idx + total) % total

	// 编辑模式下用户名不可改，按移动方向跳过该输入框
	if f.editing != nil && f.focus == userFieldUsername {
		if down {
			f.focus = userFieldUsername + 1
		} else {
			f.focus = total - 1
		}
	}

	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if f.focus < userFieldCount {
		f.inputs[f.focus].Focus()
	}
}

// updateUserForm 用户表单按键处理
func (a *App) updateUserForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.userForm
	switch msg.String() {
	case "esc":
		a.userForm = nil
		a.screen = screenSettings
		return a, nil

	case "up", "shift+tab":
		a.focusUserField(f.focus - 1)
		return a, nil

	case "down", "tab":
		a.focusUserField(f.focus + 1)
		return a, nil

	case " ":
		switch {
		case f.focus == userFieldCount:
			f.staff = !f.staff
		case f.focus > userFieldCount:
			role := f.roles[f.focus-userFieldCount-1]
			f.granted[role.ID] = !f.granted[role.ID]
		}
		if f.focus >= userFieldCount {
			return a, nil
		}

	case "enter", "ctrl+s":
		return a.submitUserForm()
	}

	if f.focus < userFieldCount {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return a, cmd
	}
	return a, nil
}

// submitUserForm 组装创建/更新请求并提交
// 创建走注册端点，更新走PATCH，密码留空表示不修改
func (a *App) submitUserForm() (tea.Model, tea.Cmd) {
	f := a.userForm
	username := strings.TrimSpace(f.inputs[userFieldUsername].Value())
	password := f.inputs[userFieldPassword].Value()
	email := strings.TrimSpace(f.inputs[userFieldEmail].Value())
	firstName := strings.TrimSpace(f.inputs[userFieldFirstName].Value())
	lastName := strings.TrimSpace(f.inputs[userFieldLastName].Value())

	p := store.SaveUserParams{RoleIDs: f.grantedRoleIDs()}
	if f.editing == nil {
		p.Register = &params.RegisterUserRequest{
			Username:  username,
			Password:  password,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			IsStaff:   f.staff,
		}
	} else {
		p.ID = f.editing.ID
		staff := f.staff
		update := &params.UpdateUserRequest{
			Email:     &email,
			FirstName: &firstName,
			LastName:  &lastName,
			IsStaff:   &staff,
		}
		if password != "" {
			update.Password = &password
		}
		p.Update = update
	}

	a.userForm = nil
	a.screen = screenSettings
	return a, func() tea.Msg {
		return actionDoneMsg{result: a.store.SaveUser(a.ctx, p)}
	}
}

// grantedRoleIDs 按目录顺序收集勾选的角色ID
func (f *userFormState) grantedRoleIDs() []uint64 {
	ids := make([]uint64, 0, len(f.granted))
	for _, role := range f.roles {
		if f.granted[role.ID] {
			ids = append(ids, role.ID)
		}
	}
	return ids
}

func (a *App) viewUserForm() string {
	f := a.userForm
	title := "New User"
	if f.editing != nil {
		title = "Edit User: " + f.editing.Username
	}

	var b strings.Builder
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	for i := range f.inputs {
		cursor := "  "
		if f.focus == i {
			cursor = focusedStyle.Render("> ")
		}
		if f.editing != nil && i == userFieldUsername {
			b.WriteString(fmt.Sprintf("%s%s\n", cursor, readonlyStyle.Render(
				fmt.Sprintf("%s: %s (read-only)", userFieldLabels[i], f.editing.Username),
			)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s%s: %s\n", cursor, userFieldLabels[i], f.inputs[i].View()))
	}

	cursor := "  "
	if f.focus == userFieldCount {
		cursor = focusedStyle.Render("> ")
	}
	mark := "[ ]"
	if f.staff {
		mark = "[x]"
	}
	b.WriteString(fmt.Sprintf("%s%s Staff\n", cursor, mark))

	b.WriteString(sectionStyle.Render("roles") + "\n")
	for i, role := range f.roles {
		cursor := "  "
		if f.focus == userFieldCount+1+i {
			cursor = focusedStyle.Render("> ")
		}
		mark := "[ ]"
		if f.granted[role.ID] {
			mark = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, mark, role.Name))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/↑↓: move · space: toggle · enter: save · esc: cancel"))
	return b.String()
}

// dropdownFormState 下拉引用数据项的创建/编辑表单
type dropdownFormState struct {
	kind   string
	id     uint64
	name   textinput.Model
	order  textinput.Model
	active bool
	focus  int // 0 name, 1 order, 2 active
}

// openDropdownForm 打开下拉项表单（opt为nil时在当前数据集下新建）
func (a *App) openDropdownForm(kind string, opt *models.Option) {
	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = 100
	name.Focus()

	order := textinput.New()
	order.Placeholder = "Order"
	order.CharLimit = 6

	f := &dropdownFormState{kind: kind, name: name, order: order, active: true}
	if opt != nil {
		f.id = opt.ID
		f.name.SetValue(opt.Label())
		f.order.SetValue(strconv.Itoa(opt.Order))
		f.active = opt.IsActive
	}

	a.dropdownForm = f
	a.screen = screenDropdownForm
}

// updateDropdownForm 下拉项表单按键处理
func (a *App) updateDropdownForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.dropdownForm
	switch msg.String() {
	case "esc":
		a.dropdownForm = nil
		a.screen = screenSettings
		return a, nil

	case "up", "shift+tab":
		f.focus = (f.focus + 2) % 3
		a.syncDropdownFocus()
		return a, nil

	case "down", "tab":
		f.focus = (f.focus + 1) % 3
		a.syncDropdownFocus()
		return a, nil

	case " ":
		if f.focus == 2 {
			f.active = !f.active
			return a, nil
		}

	case "enter", "ctrl+s":
		return a.submitDropdownForm()
	}

	var cmd tea.Cmd
	switch f.focus {
	case 0:
		f.name, cmd = f.name.Update(msg)
	case 1:
		f.order, cmd = f.order.Update(msg)
	}
	return a, cmd
}

func (a *App) syncDropdownFocus() {
	f := a.dropdownForm
	f.name.Blur()
	f.order.Blur()
	switch f.focus {
	case 0:
		f.name.Focus()
	case 1:
		f.order.Focus()
	}
}

// submitDropdownForm 组装请求并提交，order留空表示不指定排序
func (a *App) submitDropdownForm() (tea.Model, tea.Cmd) {
	f := a.dropdownForm

	var orderPtr *int
	if raw := strings.TrimSpace(f.order.Value()); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			a.statusMsg = "invalid value for Order"
			return a, nil
		}
		orderPtr = &order
	}

	active := f.active
	req := params.SaveDropdownRequest{
		Name:     strings.TrimSpace(f.name.Value()),
		IsActive: &active,
		Order:    orderPtr,
	}

	kind, id := f.kind, f.id
	a.dropdownForm = nil
	a.screen = screenSettings
	return a, func() tea.Msg {
		return actionDoneMsg{result: a.store.SaveDropdownItem(a.ctx, kind, id, req)}
	}
}

func (a *App) viewDropdownForm() string {
	f := a.dropdownForm
	title := "New Item: " + f.kind
	if f.id != 0 {
		title = "Edit Item: " + f.kind
	}

	var b strings.Builder
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")

	rows := []string{
		"Name: " + f.name.View(),
		"Order: " + f.order.View(),
	}
	mark := "[ ]"
	if f.active {
		mark = "[x]"
	}
	rows = append(rows, mark+" Active")

	for i, row := range rows {
		cursor := "  "
		if f.focus == i {
			cursor = focusedStyle.Render("> ")
		}
		b.WriteString(cursor + row + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/↑↓: move · space: toggle · enter: save · esc: cancel"))
	return b.String()
}
