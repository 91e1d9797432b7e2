package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/internal/form"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/session"
	"github.com/ayxworxfr/wm_console/internal/store"
	"github.com/ayxworxfr/wm_console/pkg/httpclient"
)

func newTestApp(t *testing.T, sess *models.Session) *App {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	tokens, err := session.NewStore(t.TempDir(), "session.key")
	require.NoError(t, err)
	if sess != nil {
		require.NoError(t, tokens.Save(sess))
	}

	client := httpclient.NewClient(server.URL, httpclient.WithRetries(0))
	st := store.New(gateway.New(client, tokens))
	return NewApp(context.Background(), st)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewAppStartsAtLogin(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, screenLogin, a.screen)
	assert.Contains(t, a.View(), "Sign in")
}

func TestLoginTabSwitchesFocus(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, 0, a.loginFocus)

	model, _ := a.Update(keyMsg("tab"))
	a = model.(*App)
	assert.Equal(t, 1, a.loginFocus)

	model, _ = a.Update(keyMsg("tab"))
	a = model.(*App)
	assert.Equal(t, 0, a.loginFocus)
}

func TestLoginFailureShowsMessage(t *testing.T) {
	a := newTestApp(t, nil)

	model, _ := a.Update(loginDoneMsg{result: vo.Fail("invalid credentials")})
	a = model.(*App)
	assert.Equal(t, screenLogin, a.screen)
	assert.Contains(t, a.View(), "invalid credentials")
}

func TestLoginSuccessEntersDashboard(t *testing.T) {
	a := newTestApp(t, nil)

	model, _ := a.Update(loginDoneMsg{result: vo.OK()})
	a = model.(*App)
	assert.Equal(t, screenDashboard, a.screen)
}

func TestNextMovementActionCycles(t *testing.T) {
	assert.Equal(t, models.ActionCreate, nextMovementAction(store.MovementActionAll))
	assert.Equal(t, models.ActionUpdate, nextMovementAction(models.ActionCreate))
	assert.Equal(t, models.ActionDelete, nextMovementAction(models.ActionUpdate))
	assert.Equal(t, store.MovementActionAll, nextMovementAction(models.ActionDelete))
}

func TestDashboardNavigation(t *testing.T) {
	a := newTestApp(t, nil)
	a.screen = screenDashboard

	model, _ := a.Update(keyMsg("m"))
	a = model.(*App)
	assert.Equal(t, screenMovements, a.screen)

	model, _ = a.Update(keyMsg("esc"))
	a = model.(*App)
	assert.Equal(t, screenDashboard, a.screen)

	model, _ = a.Update(keyMsg("s"))
	a = model.(*App)
	assert.Equal(t, screenSettings, a.screen)

	model, _ = a.Update(keyMsg("esc"))
	a = model.(*App)
	assert.Equal(t, screenDashboard, a.screen)
}

func TestDashboardCreateRequiresPermission(t *testing.T) {
	a := newTestApp(t, nil)
	a.screen = screenDashboard

	// 权限未加载时新建被拒绝
	model, _ := a.Update(keyMsg("n"))
	a = model.(*App)
	assert.Equal(t, screenDashboard, a.screen)
	assert.NotEmpty(t, a.statusMsg)
}

func TestParseFieldValue(t *testing.T) {
	numberField := form.FieldDescriptor{Name: "price", Kind: form.KindNumber}
	refField := form.FieldDescriptor{Name: "category", Kind: form.KindRef}
	textField := form.FieldDescriptor{Name: "name", Kind: form.KindText}

	v, ok := parseFieldValue(numberField, "12.5")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = parseFieldValue(numberField, "")
	require.True(t, ok)
	assert.Nil(t, v)

	_, ok = parseFieldValue(numberField, "abc")
	assert.False(t, ok)

	v, ok = parseFieldValue(refField, "7")
	require.True(t, ok)
	assert.Equal(t, uint64(7), v)

	v, ok = parseFieldValue(textField, " poster ")
	require.True(t, ok)
	assert.Equal(t, "poster", v)
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "", displayValue(nil))
	assert.Equal(t, "poster", displayValue("poster"))
	assert.Equal(t, "12.5", displayValue(12.5))
	assert.Equal(t, "7", displayValue(uint64(7)))
	assert.Equal(t, "yes", displayValue(true))
	assert.Equal(t, "no", displayValue(false))
}

func TestViewRendersStats(t *testing.T) {
	a := newTestApp(t, nil)
	a.screen = screenDashboard

	out := a.View()
	assert.Contains(t, out, "total 0")
	assert.Contains(t, out, "filter: active")
}

func TestRestoredSessionSkipsLogin(t *testing.T) {
	a := newTestApp(t, &models.Session{
		User:         &models.User{ID: 1, Username: "admin"},
		AccessToken:  "access",
		RefreshToken: "refresh",
	})
	assert.Equal(t, screenDashboard, a.screen)
}

func jsonEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "",
		"data":    data,
	})
}

// newServedApp 构造带真实后端桩的应用，会话用户为超级用户
// 权限端点由桩内置，其余路径交给next处理
func newServedApp(t *testing.T, paths *[]string, mu *sync.Mutex, next http.HandlerFunc) *App {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*paths = append(*paths, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch r.URL.Path {
		case "/permissions/my-permissions/":
			jsonEnvelope(w, map[string]any{
				"user":        map[string]any{"is_superuser": true},
				"permissions": []any{},
			})
		case "/permissions/my-system-permissions/":
			jsonEnvelope(w, map[string]any{"work_create": true, "work_delete": true})
		case "/permissions/roles/available_columns/":
			jsonEnvelope(w, map[string]any{"columns": []any{}})
		default:
			next(w, r)
		}
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens, err := session.NewStore(t.TempDir(), "session.key")
	require.NoError(t, err)
	require.NoError(t, tokens.Save(&models.Session{
		User:         &models.User{ID: 1, Username: "admin", IsSuperuser: true},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))

	client := httpclient.NewClient(server.URL, httpclient.WithRetries(0))
	st := store.New(gateway.New(client, tokens))
	require.True(t, st.LoadPermissions(context.Background()).Success)
	return NewApp(context.Background(), st)
}

func callCount(paths *[]string, mu *sync.Mutex, call string) int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, p := range *paths {
		if p == call {
			n++
		}
	}
	return n
}

func TestEditSubmitsUpdateForOpenedWork(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/workflows/" {
			jsonEnvelope(w, []any{})
			return
		}
		jsonEnvelope(w, map[string]any{})
	})

	work := models.Work{ID: 42, Name: "poster"}
	a.openWorkForm(&work)
	require.Equal(t, screenWorkForm, a.screen)

	input := a.formInputs["name"]
	input.SetValue("poster v2")
	a.formInputs["name"] = input

	_, cmd := a.submitWorkForm()
	require.NotNil(t, cmd)
	cmd()

	// 更新必须命中打开表单时那条记录的ID
	assert.Equal(t, 1, callCount(&paths, &mu, "PATCH /workflows/42/"))
	assert.Zero(t, callCount(&paths, &mu, "PATCH /workflows/0/"))
}

func TestWorkFormEscClearsSelection(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		jsonEnvelope(w, map[string]any{})
	})

	work := models.Work{ID: 7, Name: "flyer"}
	a.openWorkForm(&work)
	require.NotNil(t, a.store.State().SelectedWork)

	model, _ := a.Update(keyMsg("esc"))
	a = model.(*App)
	assert.Equal(t, screenDashboard, a.screen)
	assert.Nil(t, a.store.State().SelectedWork)
}

func TestUserPickerSelectsSearchedUser(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/search-users/" {
			jsonEnvelope(w, []any{
				map[string]any{"id": 7, "username": "jsmith", "first_name": "Jane", "last_name": "Smith"},
			})
			return
		}
		jsonEnvelope(w, []any{})
	})

	a.openWorkForm(nil)
	idx := -1
	for i, fd := range a.formFields {
		if fd.Name == "designer" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	a.focusFormField(idx)

	// enter打开选择器而不是提交
	model, _ := a.Update(keyMsg("enter"))
	a = model.(*App)
	require.True(t, a.picking)
	assert.Equal(t, "designer", a.pickerField)

	// 击键触发搜索
	model, cmd := a.Update(keyMsg("sm"))
	a = model.(*App)
	require.NotNil(t, cmd)
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
	assert.Equal(t, 1, callCount(&paths, &mu, "GET /auth/search-users/"))
	require.NotEmpty(t, a.store.State().SearchResults)

	model, _ = a.Update(keyMsg("enter"))
	a = model.(*App)
	assert.False(t, a.picking)
	assert.Equal(t, uint64(7), a.workForm.Value("designer"))
}

func TestLinkEditorAppendsAndRemovesEntries(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		jsonEnvelope(w, map[string]any{})
	})

	a.openWorkForm(nil)
	idx := -1
	for i, fd := range a.formFields {
		if fd.Name == "links" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	a.focusFormField(idx)

	model, _ := a.Update(keyMsg("enter"))
	a = model.(*App)
	require.True(t, a.addingLink)

	a.linkURLInput.SetValue("https://example.com/spec-sheet")
	a.linkTitleInput.SetValue("Spec Sheet")
	model, _ = a.Update(keyMsg("enter"))
	a = model.(*App)
	assert.False(t, a.addingLink)

	links, _ := a.workForm.Value("links").([]models.Link)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/spec-sheet", links[0].URL)
	assert.Equal(t, "Spec Sheet", links[0].Title)

	model, _ = a.Update(keyMsg("x"))
	a = model.(*App)
	links, _ = a.workForm.Value("links").([]models.Link)
	assert.Empty(t, links)
}

func TestSettingsEnterOpensSelectedRole(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/permissions/roles/" {
			jsonEnvelope(w, []any{
				map[string]any{"id": 1, "name": "viewer"},
				map[string]any{"id": 2, "name": "editor"},
			})
			return
		}
		jsonEnvelope(w, []any{})
	})
	require.NoError(t, a.store.FetchRoles(context.Background()))

	a.screen = screenSettings
	a.settingsTab = 1
	model, _ := a.Update(keyMsg("down"))
	a = model.(*App)
	model, _ = a.Update(keyMsg("enter"))
	a = model.(*App)

	require.Equal(t, screenRoleForm, a.screen)
	require.NotNil(t, a.roleForm)
	assert.Equal(t, uint64(2), a.roleForm.ID)
	assert.Equal(t, "editor", a.roleForm.Name)
}

func TestDropdownFormCreatesItem(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		jsonEnvelope(w, []any{})
	})

	a.screen = screenSettings
	a.settingsTab = 2
	a.openDropdownForm(models.DropdownCategories, nil)
	require.Equal(t, screenDropdownForm, a.screen)

	a.dropdownForm.name.SetValue("Posters")
	_, cmd := a.submitDropdownForm()
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, 1, callCount(&paths, &mu, "POST /categories/"))
	done, ok := msg.(actionDoneMsg)
	require.True(t, ok)
	assert.True(t, done.result.Success, done.result.Message)
	assert.Equal(t, screenSettings, a.screen)
}

func TestUserFormCreateRegistersAndAssignsRoles(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	a := newServedApp(t, &paths, &mu, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register/":
			jsonEnvelope(w, map[string]any{"id": 9, "username": "jdoe"})
		case "/permissions/user-roles/":
			jsonEnvelope(w, []any{})
		case "/permissions/roles/":
			jsonEnvelope(w, []any{map[string]any{"id": 3, "name": "editor"}})
		default:
			jsonEnvelope(w, []any{})
		}
	})
	require.NoError(t, a.store.FetchRoles(context.Background()))

	cmd := a.openUserForm(nil)
	require.Nil(t, cmd)
	require.Equal(t, screenUserForm, a.screen)

	a.userForm.inputs[userFieldUsername].SetValue("jdoe")
	a.userForm.inputs[userFieldPassword].SetValue("secret1")
	a.userForm.granted[3] = true

	_, submit := a.submitUserForm()
	require.NotNil(t, submit)
	msg := submit()

	done, ok := msg.(actionDoneMsg)
	require.True(t, ok)
	assert.True(t, done.result.Success, done.result.Message)
	assert.Equal(t, 1, callCount(&paths, &mu, "POST /auth/register/"))
	assert.Equal(t, 1, callCount(&paths, &mu, "POST /permissions/user-roles/"))
	assert.Equal(t, screenSettings, a.screen)
}
