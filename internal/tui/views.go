package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/form"
	"github.com/ayxworxfr/wm_console/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginTop(1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("36"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	toastOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	readonlyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// View 按当前界面渲染
func (a *App) View() string {
	var body string
	switch a.screen {
	case screenLogin:
		body = a.viewLogin()
	case screenDashboard:
		body = a.viewDashboard()
	case screenMovements:
		body = a.viewMovements()
	case screenSettings:
		body = a.viewSettings()
	case screenWorkForm:
		body = a.viewWorkForm()
	case screenRoleForm:
		body = a.viewRoleForm()
	case screenUserForm:
		body = a.viewUserForm()
	case screenDropdownForm:
		body = a.viewDropdownForm()
	}

	parts := []string{titleStyle.Render("İş Yönetimi Console"), body}
	if toasts := a.toastLine(); toasts != "" {
		parts = append(parts, toasts)
	}
	if a.statusMsg != "" {
		parts = append(parts, errorStyle.Render(a.statusMsg))
	}
	return strings.Join(parts, "\n") + "\n"
}

// toastLine 渲染尚未过期的提示消息
func (a *App) toastLine() string {
	toasts := store.ActiveToasts(a.store.State(), time.Now())
	if len(toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		switch t.Level {
		case store.ToastError:
			lines = append(lines, errorStyle.Render("✗ "+t.Message))
		case store.ToastSuccess:
			lines = append(lines, toastOKStyle.Render("✓ "+t.Message))
		default:
			lines = append(lines, toastInfoStyle.Render("· "+t.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewLogin() string {
	var b strings.Builder
	b.WriteString("\nSign in to continue\n\n")
	b.WriteString("  " + a.usernameInput.View() + "\n")
	b.WriteString("  " + a.passwordInput.View() + "\n\n")
	b.WriteString(helpStyle.Render("enter: sign in · tab: switch field · ctrl+c: quit"))
	return b.String()
}

func (a *App) viewDashboard() string {
	state := a.store.State()

	var b strings.Builder
	if user := state.CurrentUser; user != nil {
		b.WriteString(fmt.Sprintf("\nSigned in as %s", user.FullName()))
		if user.IsSuperuser {
			b.WriteString(" (superuser)")
		}
		b.WriteString("\n")
	}

	stats := state.WorkStats
	b.WriteString(statsStyle.Render(fmt.Sprintf(
		"total %d · in progress %d · completed %d · filter: %s",
		stats.Total, stats.InProgress, stats.Completed, state.Filters.WorkStatus,
	)))
	b.WriteString("\n\n")

	if state.WorksLoading() {
		b.WriteString("loading works...\n")
	} else {
		b.WriteString(a.worksTable.View() + "\n")
	}

	help := "enter: edit · f: filter · r: refresh · m: movements · s: settings · L: logout · q: quit"
	if store.CanCreateWork(state) {
		help = "n: new · " + help
	}
	if store.CanDeleteWork(state) {
		help = "d: delete · " + help
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (a *App) viewMovements() string {
	state := a.store.State()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nMovements · action: %s", state.Filters.MovementAction))
	if state.Filters.SearchTerm != "" {
		b.WriteString(" · search: " + state.Filters.SearchTerm)
	}
	b.WriteString("\n\n")

	if a.searching {
		b.WriteString("  " + a.searchInput.View() + "\n\n")
	}

	if state.MovementsLoading() {
		b.WriteString("loading movements...\n")
	} else {
		b.WriteString(a.movementsTable.View() + "\n")
	}
	b.WriteString(helpStyle.Render("a: cycle action · /: search · r: refresh · esc: back"))
	return b.String()
}

func (a *App) viewSettings() string {
	state := a.store.State()
	tabs := []string{"Users", "Roles", "Dropdowns"}

	var b strings.Builder
	b.WriteString("\n")
	for i, tab := range tabs {
		if i == a.settingsTab {
			b.WriteString(focusedStyle.Render("[" + tab + "]"))
		} else {
			b.WriteString(" " + tab + " ")
		}
		b.WriteString("  ")
	}
	b.WriteString("\n\n")

	cursorAt := func(i int) string {
		if i == a.settingsIndex {
			return focusedStyle.Render("> ")
		}
		return "  "
	}

	help := "tab: switch · ↑↓: select · n: new · enter: edit · r: refresh · esc: back"
	switch a.settingsTab {
	case 0:
		for i, u := range state.Users {
			flags := ""
			if u.IsSuperuser {
				flags = " · superuser"
			} else if u.IsStaff {
				flags = " · staff"
			}
			b.WriteString(fmt.Sprintf("%s%-20s %s%s\n", cursorAt(i), u.Username, u.FullName(), flags))
		}
		if len(state.Users) == 0 {
			b.WriteString(helpStyle.Render("  no users loaded\n"))
		}

	case 1:
		for i, r := range state.Roles {
			b.WriteString(fmt.Sprintf("%s%-20s %s\n", cursorAt(i), r.Name, r.Description))
		}
		if len(state.Roles) == 0 {
			b.WriteString(helpStyle.Render("  no roles loaded\n"))
		}

	case 2:
		kind := dropdownKinds[a.dropKindIdx]
		b.WriteString(sectionStyle.Render(kind) + "\n")
		for i, opt := range state.Dropdowns[kind] {
			suffix := ""
			if !opt.IsActive {
				suffix = " (inactive)"
			}
			b.WriteString(cursorAt(i) + opt.Label() + suffix + "\n")
		}
		help = "tab: switch · ←→: data set · ↑↓: select · n: new · enter: edit · r: refresh · esc: back"
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (a *App) viewWorkForm() string {
	var b strings.Builder
	mode := "New Work"
	if a.workForm.Editing() {
		mode = "Edit Work"
	}
	b.WriteString("\n" + sectionStyle.Render(mode) + "\n")

	var lastSection form.Section
	for i, fd := range a.formFields {
		if fd.Section != lastSection {
			lastSection = fd.Section
			b.WriteString(sectionStyle.Render(string(fd.Section)) + "\n")
		}

		cursor := "  "
		if i == a.formFocus {
			cursor = focusedStyle.Render("> ")
		}

		switch fd.Kind {
		case form.KindBool:
			checked, _ := a.workForm.Value(fd.Name).(bool)
			mark := "[ ]"
			if checked {
				mark = "[x]"
			}
			b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, mark, fd.Label))

		case form.KindLinks:
			links, _ := a.workForm.Value(fd.Name).([]models.Link)
			b.WriteString(fmt.Sprintf("%s%s: %d link(s)\n", cursor, fd.Label, len(links)))
			for _, link := range links {
				label := link.URL
				if link.Title != "" {
					label = link.Title + " · " + link.URL
				}
				b.WriteString("      - " + label + "\n")
			}
			if a.addingLink && i == a.formFocus {
				b.WriteString("      URL: " + a.linkURLInput.View() + "\n")
				b.WriteString("      Title: " + a.linkTitleInput.View() + "\n")
			}

		case form.KindUser:
			input := a.formInputs[fd.Name]
			if !a.workForm.CanWrite(fd.Name) {
				b.WriteString(fmt.Sprintf("%s%s\n", cursor, readonlyStyle.Render(
					fmt.Sprintf("%s: %s (read-only)", fd.Label, displayValue(a.workForm.Value(fd.Name))),
				)))
				continue
			}
			b.WriteString(fmt.Sprintf("%s%s: %s\n", cursor, fd.Label, input.View()))
			if a.picking && a.pickerField == fd.Name {
				b.WriteString("      " + a.pickerInput.View() + "\n")
				for j, u := range a.store.State().SearchResults {
					pick := "      "
					if j == a.pickerIndex {
						pick = "    " + focusedStyle.Render("> ")
					}
					b.WriteString(fmt.Sprintf("%s%s (%s)\n", pick, u.Username, u.FullName()))
				}
			}

		default:
			input := a.formInputs[fd.Name]
			label := fd.Label
			if !a.workForm.CanWrite(fd.Name) {
				// 只读字段可见但禁用
				b.WriteString(fmt.Sprintf("%s%s\n", cursor, readonlyStyle.Render(
					fmt.Sprintf("%s: %s (read-only)", label, displayValue(a.workForm.Value(fd.Name))),
				)))
				continue
			}
			b.WriteString(fmt.Sprintf("%s%s: %s\n", cursor, label, input.View()))
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/↑↓: move · space: toggle · enter: pick/add on reference fields · ctrl+s: save · esc: cancel"))
	return b.String()
}

func (a *App) viewRoleForm() string {
	var b strings.Builder
	title := "New Role"
	if a.roleForm.ID != 0 {
		title = "Edit Role: " + a.roleForm.Name
	}
	b.WriteString("\n" + sectionStyle.Render(title) + "\n\n")

	for i, col := range a.roleForm.Columns() {
		cursor := "  "
		if i == a.roleFocus {
			cursor = focusedStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%-24s %s\n", cursor, col.ColumnDisplay, a.roleForm.Permission(col.ColumnName)))
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  work_create: %v · work_delete: %v\n",
		a.roleForm.SystemGranted(models.SystemPermWorkCreate),
		a.roleForm.SystemGranted(models.SystemPermWorkDelete)))
	b.WriteString(helpStyle.Render("space: cycle level · c/x: toggle system flags · enter: save · esc: cancel"))
	return b.String()
}
