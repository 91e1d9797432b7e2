package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/session"
	"github.com/ayxworxfr/wm_console/pkg/httpclient"
)

// callLog 记录后端收到的请求，断言调用序列用
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, r.Method+" "+r.URL.Path)
}

func (l *callLog) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == prefix {
			n++
		}
	}
	return n
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func envelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens, err := session.NewStore(t.TempDir(), "session.key")
	require.NoError(t, err)
	require.NoError(t, tokens.Save(&models.Session{
		User:         &models.User{ID: 1, Username: "operator"},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}))

	client := httpclient.NewClient(server.URL, httpclient.WithRetries(0))
	return New(gateway.New(client, tokens))
}

func sampleWorks() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "poster", "status_code": "waiting"},
		{"id": 2, "name": "flyer", "status_code": "completed"},
		{"id": 3, "name": "banner", "status_code": "completed"},
	}
}

func TestLoginLoadsSessionAndPermissions(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		switch r.URL.Path {
		case "/auth/login/":
			envelope(w, http.StatusOK, true, "", map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"user":          map[string]any{"id": 7, "username": "admin", "is_superuser": false},
			})
		case "/permissions/my-permissions/":
			envelope(w, http.StatusOK, true, "", map[string]any{
				"user": map[string]any{"is_superuser": false},
				"permissions": []map[string]any{
					{"column_name": "name", "permission": "write"},
					{"column_name": "price", "permission": "read"},
				},
			})
		case "/permissions/my-system-permissions/":
			envelope(w, http.StatusOK, true, "", map[string]any{
				"work_create": true,
				"work_delete": false,
			})
		default:
			http.NotFound(w, r)
		}
	})
	s := newTestStore(t, handler)

	res := s.Login(context.Background(), "admin", "secret")
	require.True(t, res.Success, res.Message)

	state := s.State()
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "admin", state.CurrentUser.Username)
	assert.True(t, state.PermissionsLoaded())
	assert.True(t, state.Permissions.CanWrite("name"))
	assert.True(t, state.Permissions.CanRead("price"))
	assert.False(t, state.Permissions.CanWrite("price"))
	assert.False(t, state.Permissions.HasField("note"))
	assert.True(t, CanCreateWork(state))
	assert.False(t, CanDeleteWork(state))
}

func TestLoginFailureReturnsResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusUnauthorized, false, "invalid credentials", nil)
	})
	s := newTestStore(t, handler)

	res := s.Login(context.Background(), "admin", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "invalid credentials", res.Message)

	res = s.Login(context.Background(), "", "")
	assert.False(t, res.Success)
}

func TestLogoutResetsSlicesExceptToasts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", sampleWorks())
	})
	s := newTestStore(t, handler)

	require.NoError(t, s.FetchWorks(context.Background()))
	s.ShowToast(ToastInfo, "still here")
	s.SetWorkStatusFilter(FilterCompleted)

	s.Logout(context.Background())

	state := s.State()
	assert.Empty(t, state.Works)
	assert.Nil(t, state.CurrentUser)
	assert.False(t, state.PermissionsLoaded())
	assert.Equal(t, FilterActive, state.Filters.WorkStatus)
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, "still here", state.Toasts[0].Message)
}

func TestFetchWorksDerivesStats(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, true, "", sampleWorks())
	})
	s := newTestStore(t, handler)

	require.NoError(t, s.FetchWorks(context.Background()))

	state := s.State()
	assert.Equal(t, models.WorkStats{Total: 3, InProgress: 1, Completed: 2}, state.WorkStats)
	assert.False(t, state.WorksLoading())

	// 状态过滤切换到completed后只剩2条
	s.SetWorkStatusFilter(FilterCompleted)
	assert.Len(t, FilteredWorks(s.State()), 2)
	s.SetWorkStatusFilter(FilterActive)
	assert.Len(t, FilteredWorks(s.State()), 1)
}

func TestFetchWorksLatestWins(t *testing.T) {
	firstArrived := make(chan struct{})
	release := make(chan struct{})
	var seq int64
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seq++
		n := seq
		mu.Unlock()
		if n == 1 {
			close(firstArrived)
			<-release
			envelope(w, http.StatusOK, true, "", []map[string]any{
				{"id": 1, "name": "stale", "status_code": "waiting"},
			})
			return
		}
		envelope(w, http.StatusOK, true, "", []map[string]any{
			{"id": 2, "name": "fresh", "status_code": "waiting"},
		})
	})
	s := newTestStore(t, handler)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.FetchWorks(context.Background())
	}()
	<-firstArrived

	// 第二次fetch取消并取代第一次
	require.NoError(t, s.FetchWorks(context.Background()))
	close(release)
	<-done

	state := s.State()
	require.Len(t, state.Works, 1)
	assert.Equal(t, "fresh", state.Works[0].Name)
}

func TestFetchMovementsForbiddenSuppressed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusForbidden, false, "permission denied", nil)
	})
	s := newTestStore(t, handler)

	err := s.FetchMovements(context.Background())
	require.Error(t, err)

	// 403静默处理：无toast，loading已清
	state := s.State()
	assert.Empty(t, state.Toasts)
	assert.False(t, state.MovementsLoading())
}

func TestFetchWorksFailureRaisesToast(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusForbidden, false, "permission denied", nil)
	})
	s := newTestStore(t, handler)

	require.Error(t, s.FetchWorks(context.Background()))

	state := s.State()
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, "permission denied", state.Toasts[0].Message)
	assert.Equal(t, "permission denied", state.Errors[colWorks])
}

func TestCreateWorkRefetches(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		if r.Method == http.MethodPost {
			envelope(w, http.StatusCreated, true, "", map[string]any{"id": 9})
			return
		}
		envelope(w, http.StatusOK, true, "", sampleWorks())
	})
	s := newTestStore(t, handler)

	res := s.CreateWork(context.Background(), map[string]any{"name": "poster"})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, 1, log.count("POST /workflows/"))
	assert.Equal(t, 1, log.count("GET /workflows/"))
	assert.Len(t, s.State().Works, 3)
}

func TestUpdateWorkEmptyPayloadIsNoop(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		envelope(w, http.StatusOK, true, "", nil)
	})
	s := newTestStore(t, handler)

	res := s.UpdateWork(context.Background(), 5, nil)
	assert.True(t, res.Success)
	assert.Empty(t, log.all())
}

func TestDeleteWorkRefetches(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		envelope(w, http.StatusOK, true, "", []map[string]any{})
	})
	s := newTestStore(t, handler)

	res := s.DeleteWork(context.Background(), 2)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, log.count("DELETE /workflows/2/"))
	assert.Equal(t, 1, log.count("GET /workflows/"))
}

func TestFetchUsersUnwrapsNestedData(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 该端点多包一层 data.data
		envelope(w, http.StatusOK, true, "", map[string]any{
			"data": []map[string]any{
				{"id": 1, "username": "admin"},
				{"id": 2, "username": "designer"},
			},
		})
	})
	s := newTestStore(t, handler)

	require.NoError(t, s.FetchUsers(context.Background()))
	assert.Len(t, s.State().Users, 2)
}

func TestFetchUsersInFlightGuard(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		close(arrived)
		<-release
		envelope(w, http.StatusOK, true, "", []map[string]any{})
	})
	s := newTestStore(t, handler)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.FetchUsers(context.Background())
	}()
	<-arrived

	// 在途期间的重复调用被幂等守卫拒绝
	require.NoError(t, s.FetchUsers(context.Background()))
	close(release)
	<-done

	assert.Equal(t, 1, log.count("GET /auth/users/"))
}

func TestSaveUserTwoPhaseRoleReassignment(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		switch {
		case r.URL.Path == "/auth/register/":
			envelope(w, http.StatusCreated, true, "", map[string]any{"id": 9, "username": "newbie"})
		case r.URL.Path == "/permissions/user-roles/" && r.Method == http.MethodGet:
			assert.Equal(t, "9", r.URL.Query().Get("user"))
			envelope(w, http.StatusOK, true, "", []map[string]any{
				{"id": 100, "user": 9, "role": 1},
				{"id": 101, "user": 9, "role": 2},
			})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/permissions/user-roles/" && r.Method == http.MethodPost:
			var req params.AssignUserRoleRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, uint64(9), req.User)
			envelope(w, http.StatusCreated, true, "", map[string]any{"id": 200})
		case r.URL.Path == "/auth/users/":
			envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 9, "username": "newbie"}})
		default:
			http.NotFound(w, r)
		}
	})
	s := newTestStore(t, handler)

	res := s.SaveUser(context.Background(), SaveUserParams{
		Register: &params.RegisterUserRequest{Username: "newbie", Password: "secret1"},
		RoleIDs:  []uint64{5},
	})
	require.True(t, res.Success, res.Message)

	// 先删除旧绑定，再创建新绑定，最后重取用户列表
	assert.Equal(t, 1, log.count("DELETE /permissions/user-roles/100/"))
	assert.Equal(t, 1, log.count("DELETE /permissions/user-roles/101/"))
	assert.Equal(t, 1, log.count("POST /permissions/user-roles/"))
	assert.Equal(t, 1, log.count("GET /auth/users/"))
	assert.Len(t, s.State().Users, 1)
}

func TestFetchDropdowns(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/categories/":
			envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 1, "name": "print"}})
		case "/work-types/":
			envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 1, "name": "digital"}, {"id": 2, "name": "offset"}})
		case "/sales-channels/":
			envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 1, "name": "retail"}})
		default:
			http.NotFound(w, r)
		}
	})
	s := newTestStore(t, handler)

	require.NoError(t, s.FetchDropdowns(context.Background()))

	state := s.State()
	assert.Len(t, state.Dropdowns[models.DropdownCategories], 1)
	assert.Len(t, state.Dropdowns[models.DropdownWorkTypes], 2)
	assert.Len(t, state.Dropdowns[models.DropdownSalesChannels], 1)
	assert.False(t, state.IsLoading(colDropdowns))
}

func TestSaveRoleFullObject(t *testing.T) {
	log := &callLog{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		switch r.URL.Path {
		case "/permissions/roles/3/":
			var req params.SaveRoleRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "designer", req.Name)
			assert.Equal(t, "write", req.Permissions["name"])
			envelope(w, http.StatusOK, true, "", map[string]any{"id": 3})
		case "/permissions/roles/":
			envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 3, "name": "designer"}})
		case "/permissions/roles/available_columns/":
			envelope(w, http.StatusOK, true, "", map[string]any{
				"columns": []map[string]any{{"column_name": "name", "column_display": "Name"}},
			})
		default:
			http.NotFound(w, r)
		}
	})
	s := newTestStore(t, handler)

	res := s.SaveRole(context.Background(), 3, params.SaveRoleRequest{
		Name:        "designer",
		Permissions: map[string]string{"name": "write", "price": "read"},
		SystemPermissions: map[string]bool{
			models.SystemPermWorkCreate: true,
		},
	})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, 1, log.count("PUT /permissions/roles/3/"))
	state := s.State()
	assert.Len(t, state.Roles, 1)
	require.Len(t, state.AvailableColumns, 1)
	assert.Equal(t, "Name", state.AvailableColumns[0].ColumnDisplay)
}

func TestSaveRoleValidation(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	}))

	res := s.SaveRole(context.Background(), 0, params.SaveRoleRequest{
		Permissions: map[string]string{"name": "admin"},
	})
	assert.False(t, res.Success)
}

func TestSearchUsers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "smi", r.URL.Query().Get("q"))
		envelope(w, http.StatusOK, true, "", []map[string]any{{"id": 4, "username": "smith"}})
	})
	s := newTestStore(t, handler)

	require.NoError(t, s.SearchUsers(context.Background(), "smi"))
	require.Len(t, s.State().SearchResults, 1)

	// 过短的搜索词直接清空结果，不发请求
	require.NoError(t, s.SearchUsers(context.Background(), "s"))
	assert.Empty(t, s.State().SearchResults)
}

func TestToastLifecycle(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	id := s.ShowToast(ToastSuccess, "saved")
	s.ShowToast(ToastError, "boom")
	assert.Len(t, s.State().Toasts, 2)

	s.RemoveToast(id)
	state := s.State()
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, "boom", state.Toasts[0].Message)
}

func TestSubscribeNotifies(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	var mu sync.Mutex
	notified := 0
	unsub := s.Subscribe(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	s.ShowToast(ToastInfo, "one")
	unsub()
	s.ShowToast(ToastInfo, "two")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, notified)
}

func TestModalAndSelection(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	work := &models.Work{ID: 3, Name: "poster"}
	s.SelectWork(work)
	s.SetModal(ModalWorkForm, true)

	state := s.State()
	assert.True(t, state.Modals[ModalWorkForm])
	require.NotNil(t, state.SelectedWork)
	assert.Equal(t, uint64(3), state.SelectedWork.ID)

	s.SetModal(ModalWorkForm, false)
	s.SelectWork(nil)
	state = s.State()
	assert.False(t, state.Modals[ModalWorkForm])
	assert.Nil(t, state.SelectedWork)
}

func TestPruneToastsRemovesExpired(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	s.ShowToast(ToastInfo, "hello")
	s.PruneToasts(time.Now())
	assert.Len(t, s.State().Toasts, 1)

	// 过期后从状态中真正删除，而不是仅在渲染时隐藏
	s.PruneToasts(time.Now().Add(defaultToastDuration + time.Second))
	assert.Empty(t, s.State().Toasts)
}

func TestUserRoleIDs(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/permissions/user-roles/", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("user"))
		envelope(w, http.StatusOK, true, "", []map[string]any{
			{"id": 1, "user": 9, "role": 3},
			{"id": 2, "user": 9, "role": 5},
		})
	})
	s := newTestStore(t, handler)

	ids, err := s.UserRoleIDs(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 5}, ids)
}
