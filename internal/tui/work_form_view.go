package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/internal/form"
)

// openWorkForm 打开工作记录表单（work为nil时新建）
// 可见字段由权限求值器决定，输入框只为可见字段创建
func (a *App) openWorkForm(work *models.Work) tea.Cmd {
	state := a.store.State()
	f, err := form.NewWorkForm(state.Permissions, work)
	if err != nil {
		a.statusMsg = err.Error()
		return nil
	}

	// 编辑目标记入store，提交时由此取回目标ID
	a.store.SelectWork(work)

	a.workForm = f
	a.formFields = f.VisibleFields()
	a.formInputs = make(map[string]textinput.Model, len(a.formFields))
	a.formFocus = 0
	a.picking = false
	a.addingLink = false

	for _, fd := range a.formFields {
		if fd.Kind == form.KindBool || fd.Kind == form.KindLinks {
			continue
		}
		input := textinput.New()
		input.Placeholder = fd.Label
		input.CharLimit = 200
		input.SetValue(displayValue(f.Value(fd.Name)))
		a.formInputs[fd.Name] = input
	}

	a.screen = screenWorkForm
	a.focusFormField(0)
	return nil
}

// displayValue 字段值转为输入框文本
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// parseFieldValue 输入文本按字段类型转回值
func parseFieldValue(fd form.FieldDescriptor, text string) (any, bool) {
	text = strings.TrimSpace(text)
	switch fd.Kind {
	case form.KindNumber:
		if text == "" {
			return nil, true
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		return v, true

	case form.KindRef, form.KindUser:
		if text == "" {
			return nil, true
		}
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return v, true

	default:
		return text, true
	}
}

func (a *App) focusFormField(idx int) {
	if len(a.formFields) == 0 {
		return
	}
	a.formFocus = (idx + len(a.formFields)) % len(a.formFields)
	for name, input := range a.formInputs {
		input.Blur()
		a.formInputs[name] = input
	}
	fd := a.formFields[a.formFocus]
	if input, ok := a.formInputs[fd.Name]; ok && a.workForm.CanWrite(fd.Name) {
		input.Focus()
		a.formInputs[fd.Name] = input
	}
}

// updateWorkForm 工作记录表单按键处理
// 用户搜索选择器与链接编辑是表单内的两个子模式，激活时吞掉所有按键
func (a *App) updateWorkForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.picking {
		return a.updateUserPicker(msg)
	}
	if a.addingLink {
		return a.updateLinkEditor(msg)
	}

	switch msg.String() {
	case "esc":
		a.screen = screenDashboard
		a.workForm = nil
		a.store.SelectWork(nil)
		return a, nil

	case "up", "shift+tab":
		a.focusFormField(a.formFocus - 1)
		return a, nil

	case "down", "tab":
		a.focusFormField(a.formFocus + 1)
		return a, nil

	case " ":
		fd := a.currentField()
		if fd != nil && fd.Kind == form.KindBool {
			checked, _ := a.workForm.Value(fd.Name).(bool)
			if !a.workForm.SetValue(fd.Name, !checked) {
				a.statusMsg = "field is read-only"
			}
			// 管控取消勾选会同时清空管控人输入框
			if fd.Name == "printing_control" && checked {
				if input, ok := a.formInputs["printing_controller"]; ok {
					input.SetValue("")
					a.formInputs["printing_controller"] = input
				}
			}
			return a, nil
		}

	case "x":
		if fd := a.currentField(); fd != nil && fd.Kind == form.KindLinks {
			a.removeLastLink()
			return a, nil
		}

	case "enter":
		// 引用选择与链接录入占用enter，保存通过ctrl+s
		if fd := a.currentField(); fd != nil {
			switch fd.Kind {
			case form.KindUser:
				a.openUserPicker(fd.Name)
				return a, nil
			case form.KindLinks:
				a.openLinkEditor()
				return a, nil
			}
		}
		return a.submitWorkForm()

	case "ctrl+s":
		return a.submitWorkForm()
	}

	fd := a.currentField()
	if fd == nil {
		return a, nil
	}
	input, ok := a.formInputs[fd.Name]
	if !ok || !a.workForm.CanWrite(fd.Name) {
		return a, nil
	}
	var cmd tea.Cmd
	input, cmd = input.Update(msg)
	a.formInputs[fd.Name] = input
	return a, cmd
}

func (a *App) currentField() *form.FieldDescriptor {
	if a.formFocus < 0 || a.formFocus >= len(a.formFields) {
		return nil
	}
	return &a.formFields[a.formFocus]
}

// submitWorkForm 收集输入、校验并提交
func (a *App) submitWorkForm() (tea.Model, tea.Cmd) {
	for _, fd := range a.formFields {
		input, ok := a.formInputs[fd.Name]
		if !ok || !a.workForm.CanWrite(fd.Name) {
			continue
		}
		value, valid := parseFieldValue(fd, input.Value())
		if !valid {
			a.statusMsg = "invalid value for " + fd.Label
			return a, nil
		}
		a.workForm.SetValue(fd.Name, value)
	}

	if err := a.workForm.Validate(); err != nil {
		a.statusMsg = err.Error()
		return a, nil
	}

	editing := a.workForm.Editing()
	var selectedID uint64
	if editing {
		if w := a.store.State().SelectedWork; w != nil {
			selectedID = w.ID
		}
	}
	createPayload := map[string]any(nil)
	updatePayload := map[string]any(nil)
	if editing {
		updatePayload = a.workForm.BuildUpdatePayload()
		if len(updatePayload) == 0 {
			// 无变更：直接关闭，不发起网络调用
			a.screen = screenDashboard
			a.workForm = nil
			return a, nil
		}
	} else {
		createPayload = a.workForm.BuildCreatePayload()
	}

	a.workForm = nil
	a.screen = screenDashboard
	return a, func() tea.Msg {
		res := a.submitWork(editing, selectedID, createPayload, updatePayload)
		return actionDoneMsg{result: res}
	}
}

func (a *App) submitWork(editing bool, id uint64, create, update map[string]any) vo.Result {
	if editing {
		return a.store.UpdateWork(a.ctx, id, update)
	}
	return a.store.CreateWork(a.ctx, create)
}

// openUserPicker 在用户引用字段上打开搜索选择器
func (a *App) openUserPicker(field string) {
	if !a.workForm.CanWrite(field) {
		a.statusMsg = "field is read-only"
		return
	}

	input := textinput.New()
	input.Placeholder = "search users (min 2 chars)"
	input.CharLimit = 64
	input.Focus()

	a.picking = true
	a.pickerField = field
	a.pickerInput = input
	a.pickerIndex = 0
}

// updateUserPicker 搜索选择器按键处理
// 每次击键触发一次latest-wins搜索，过期结果被store丢弃
func (a *App) updateUserPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeUserPicker()
		return a, nil

	case "up":
		if a.pickerIndex > 0 {
			a.pickerIndex--
		}
		return a, nil

	case "down":
		if a.pickerIndex+1 < len(a.store.State().SearchResults) {
			a.pickerIndex++
		}
		return a, nil

	case "enter":
		results := a.store.State().SearchResults
		if a.pickerIndex < len(results) {
			picked := results[a.pickerIndex]
			if !a.workForm.SetValue(a.pickerField, picked.ID) {
				a.statusMsg = "field is read-only"
			} else if input, ok := a.formInputs[a.pickerField]; ok {
				input.SetValue(strconv.FormatUint(picked.ID, 10))
				a.formInputs[a.pickerField] = input
			}
		}
		a.closeUserPicker()
		return a, nil
	}

	var cmd tea.Cmd
	a.pickerInput, cmd = a.pickerInput.Update(msg)
	term := a.pickerInput.Value()
	a.pickerIndex = 0
	search := func() tea.Msg {
		a.store.SearchUsers(a.ctx, term)
		return storeChangedMsg{}
	}
	return a, tea.Batch(cmd, search)
}

func (a *App) closeUserPicker() {
	a.picking = false
	a.pickerField = ""
	// 清空上次的搜索结果，下次打开从空列表开始
	a.store.SearchUsers(a.ctx, "")
}

// openLinkEditor 在links字段上打开链接录入
func (a *App) openLinkEditor() {
	if !a.workForm.CanWrite("links") {
		a.statusMsg = "field is read-only"
		return
	}

	url := textinput.New()
	url.Placeholder = "URL"
	url.CharLimit = 200
	url.Focus()

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 100

	a.addingLink = true
	a.linkURLInput = url
	a.linkTitleInput = title
	a.linkFocus = 0
}

// updateLinkEditor 链接录入按键处理
func (a *App) updateLinkEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.addingLink = false
		return a, nil

	case "tab", "shift+tab", "up", "down":
		a.linkFocus = 1 - a.linkFocus
		if a.linkFocus == 0 {
			a.linkTitleInput.Blur()
			return a, a.linkURLInput.Focus()
		}
		a.linkURLInput.Blur()
		return a, a.linkTitleInput.Focus()

	case "enter":
		url := strings.TrimSpace(a.linkURLInput.Value())
		if url == "" {
			a.statusMsg = "link url is required"
			return a, nil
		}
		links, _ := a.workForm.Value("links").([]models.Link)
		appended := append(append([]models.Link{}, links...), models.Link{
			URL:   url,
			Title: strings.TrimSpace(a.linkTitleInput.Value()),
		})
		if !a.workForm.SetValue("links", appended) {
			a.statusMsg = "field is read-only"
		}
		a.addingLink = false
		return a, nil
	}

	var cmd tea.Cmd
	if a.linkFocus == 0 {
		a.linkURLInput, cmd = a.linkURLInput.Update(msg)
	} else {
		a.linkTitleInput, cmd = a.linkTitleInput.Update(msg)
	}
	return a, cmd
}

// removeLastLink 删除最后一个链接条目
func (a *App) removeLastLink() {
	links, _ := a.workForm.Value("links").([]models.Link)
	if len(links) == 0 {
		return
	}
	trimmed := append([]models.Link{}, links[:len(links)-1]...)
	if !a.workForm.SetValue("links", trimmed) {
		a.statusMsg = "field is read-only"
	}
}

// updateRoleForm 角色表单按键处理
func (a *App) updateRoleForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	columns := a.roleForm.Columns()
	switch msg.String() {
	case "esc":
		a.screen = screenSettings
		a.roleForm = nil
		return a, nil

	case "up":
		if a.roleFocus > 0 {
			a.roleFocus--
		}
		return a, nil

	case "down":
		if a.roleFocus < len(columns)-1 {
			a.roleFocus++
		}
		return a, nil

	case " ":
		if a.roleFocus < len(columns) {
			a.roleForm.CyclePermission(columns[a.roleFocus].ColumnName)
		}
		return a, nil

	case "c":
		a.roleForm.ToggleSystem(models.SystemPermWorkCreate)
		return a, nil

	case "x":
		a.roleForm.ToggleSystem(models.SystemPermWorkDelete)
		return a, nil

	case "enter", "ctrl+s":
		roleForm := a.roleForm
		a.roleForm = nil
		a.screen = screenSettings
		return a, func() tea.Msg {
			res := a.store.SaveRole(a.ctx, roleForm.ID, roleForm.BuildRequest())
			return actionDoneMsg{result: res}
		}
	}
	return a, nil
}
