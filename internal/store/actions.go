package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jinzhu/copier"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/internal/domain/params"
	"github.com/ayxworxfr/wm_console/internal/domain/vo"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/permission"
	"github.com/ayxworxfr/wm_console/pkg/logger"
)

// 后端端点路径
const (
	pathWorks             = "/workflows/"
	pathMovements         = "/movements/"
	pathUsers             = "/auth/users/"
	pathRegister          = "/auth/register/"
	pathSearchUsers       = "/auth/search-users/"
	pathRoles             = "/permissions/roles/"
	pathAvailableColumns  = "/permissions/roles/available_columns/"
	pathUserRoles         = "/permissions/user-roles/"
	pathMyPermissions     = "/permissions/my-permissions/"
	pathSystemPermissions = "/permissions/my-system-permissions/"
)

// 下拉数据集与端点的对应关系
var dropdownPaths = map[string]string{
	models.DropdownCategories:    "/categories/",
	models.DropdownWorkTypes:     "/work-types/",
	models.DropdownSalesChannels: "/sales-channels/",
}

// errMessage 提取用户可见的错误文案
// APIError已按优先级携带提取后的消息，其余错误使用兜底文案
func errMessage(err error, fallback string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, gateway.ErrSessionExpired) {
		return gateway.ErrSessionExpired.Error()
	}
	return fallback
}

// Login 登录 - 预期失败不抛错，统一返回结果对象
// 成功后立即加载权限映射，表单在权限就绪前保持全量隐藏
func (s *Store) Login(ctx context.Context, username, password string) vo.Result {
	if username == "" || password == "" {
		return vo.Fail("username and password are required")
	}

	user, err := s.gw.Login(ctx, username, password)
	if err != nil {
		return vo.Fail(errMessage(err, "login failed"))
	}
	s.dispatch(sessionStarted{user: user})

	if res := s.LoadPermissions(ctx); !res.Success {
		s.ShowToast(ToastError, res.Message)
	}
	return vo.OK()
}

// Logout 登出 - 清除会话并重置除toast外的全部状态切片
func (s *Store) Logout(ctx context.Context) {
	if err := s.gw.Logout(ctx); err != nil {
		logger.Error(ctx, "failed to clear session on logout", zap.Error(err))
	}
	s.dispatch(sessionEnded{})
}

// HandleSessionExpired 刷新失败导致的强制登出，网关回调接入此处
func (s *Store) HandleSessionExpired() {
	s.dispatch(sessionEnded{}, toastPushed{
		toast: newToast(ToastError, gateway.ErrSessionExpired.Error()),
	})
}

// LoadPermissions 加载当前用户的字段级与系统级权限
// 同类请求在途时直接返回，权限端点返回形态不稳定，采用宽松解码
func (s *Store) LoadPermissions(ctx context.Context) vo.Result {
	if !s.tryBeginLoad(colPermissions) {
		return vo.OK()
	}
	defer s.dispatch(loadingSet{key: colPermissions})

	fields, superuser, err := s.fetchFieldPermissions(ctx)
	if err != nil {
		s.dispatch(errorSet{key: colPermissions, message: err.Error()})
		return vo.Fail(errMessage(err, "failed to load permissions"))
	}

	flags, err := s.fetchSystemPermissions(ctx)
	if err != nil {
		s.dispatch(errorSet{key: colPermissions, message: err.Error()})
		return vo.Fail(errMessage(err, "failed to load permissions"))
	}

	user := s.gw.CurrentUser()
	if user != nil && user.IsSuperuser {
		superuser = true
	}

	s.dispatch(permissionsLoaded{
		eval: permission.NewEvaluator(fields, flags, superuser, true),
	})
	return vo.OK()
}

func (s *Store) fetchFieldPermissions(ctx context.Context) (permission.Map, bool, error) {
	resp, err := s.gw.Get(ctx, pathMyPermissions, nil)
	if err != nil {
		return nil, false, err
	}

	var data vo.MyPermissionsData
	if err := decodeLoose(resp, &data); err != nil {
		return nil, false, err
	}

	fields := permission.Map{}
	for _, entry := range data.Permissions {
		fields[entry.ColumnName] = permission.ParseLevel(entry.Permission)
	}
	return fields, data.User.IsSuperuser, nil
}

func (s *Store) fetchSystemPermissions(ctx context.Context) (permission.SystemFlags, error) {
	resp, err := s.gw.Get(ctx, pathSystemPermissions, nil)
	if err != nil {
		return permission.SystemFlags{}, err
	}

	var data vo.SystemPermissions
	if err := decodeLoose(resp, &data); err != nil {
		return permission.SystemFlags{}, err
	}
	return permission.SystemFlags{
		WorkCreate: data.WorkCreate,
		WorkDelete: data.WorkDelete,
	}, nil
}

// decodeLoose 先解出原始对象再用mapstructure宽松映射到目标结构
func decodeLoose(resp *vo.Response, out any) error {
	var raw any
	if err := resp.DecodeData(&raw); err != nil {
		return err
	}
	if err := mapstructure.Decode(raw, out); err != nil {
		return errors.Wrap(err, "failed to map response data")
	}
	return nil
}

// FetchWorks 拉取工作列表并更新统计
// latest-wins：较新的调用会取消前一次，过期完成被丢弃
func (s *Store) FetchWorks(ctx context.Context) error {
	fctx, seq := s.beginFetch(ctx, colWorks)
	s.dispatch(loadingSet{key: colWorks, value: true})

	resp, err := s.gw.Get(fctx, pathWorks, nil)
	if !s.isLatest(colWorks, seq) {
		return nil
	}
	if err != nil {
		s.failFetch(colWorks, err, "failed to load works")
		return err
	}

	var works []models.Work
	if err := resp.DecodeList(&works); err != nil {
		s.failFetch(colWorks, err, "failed to load works")
		return err
	}
	s.dispatch(worksLoaded{works: works}, loadingSet{key: colWorks})
	return nil
}

// FetchMovements 拉取审计日志
// 403不提示 - 无权限用户本不应到达该界面，避免无谓报警
func (s *Store) FetchMovements(ctx context.Context) error {
	fctx, seq := s.beginFetch(ctx, colMovements)
	s.dispatch(loadingSet{key: colMovements, value: true})

	resp, err := s.gw.Get(fctx, pathMovements, nil)
	if !s.isLatest(colMovements, seq) {
		return nil
	}
	if err != nil {
		if gateway.StatusOf(err) == http.StatusForbidden {
			s.dispatch(loadingSet{key: colMovements})
			return err
		}
		s.failFetch(colMovements, err, "failed to load movements")
		return err
	}

	var movements []models.Movement
	if err := resp.DecodeList(&movements); err != nil {
		s.failFetch(colMovements, err, "failed to load movements")
		return err
	}
	s.dispatch(movementsLoaded{movements: movements}, loadingSet{key: colMovements})
	return nil
}

// failFetch 失败的统一收尾：清loading、记错误、弹toast
func (s *Store) failFetch(key collection, err error, fallback string) {
	message := errMessage(err, fallback)
	s.dispatch(
		loadingSet{key: key},
		errorSet{key: key, message: message},
		toastPushed{toast: newToast(ToastError, message)},
	)
}

// CreateWork 创建工作记录，成功后全量重取以服务端为准
func (s *Store) CreateWork(ctx context.Context, payload map[string]any) vo.Result {
	if _, err := s.gw.Post(ctx, pathWorks, payload); err != nil {
		return vo.Fail(errMessage(err, "failed to create work"))
	}
	s.ShowToast(ToastSuccess, "work created")
	s.FetchWorks(ctx)
	return vo.OK()
}

// UpdateWork 差量更新工作记录，空差量不发起网络调用
func (s *Store) UpdateWork(ctx context.Context, id uint64, payload map[string]any) vo.Result {
	if len(payload) == 0 {
		return vo.OK()
	}
	if _, err := s.gw.Patch(ctx, workPath(id), payload); err != nil {
		return vo.Fail(errMessage(err, "failed to update work"))
	}
	s.ShowToast(ToastSuccess, "work updated")
	s.FetchWorks(ctx)
	return vo.OK()
}

// DeleteWork 删除工作记录
func (s *Store) DeleteWork(ctx context.Context, id uint64) vo.Result {
	if _, err := s.gw.Delete(ctx, workPath(id)); err != nil {
		return vo.Fail(errMessage(err, "failed to delete work"))
	}
	s.ShowToast(ToastSuccess, "work deleted")
	s.FetchWorks(ctx)
	return vo.OK()
}

func workPath(id uint64) string {
	return pathWorks + strconv.FormatUint(id, 10) + "/"
}

// FetchUsers 拉取用户列表（部分部署会多包一层data.data）
func (s *Store) FetchUsers(ctx context.Context) error {
	if !s.tryBeginLoad(colUsers) {
		return nil
	}

	resp, err := s.gw.Get(ctx, pathUsers, nil)
	if err != nil {
		s.failFetch(colUsers, err, "failed to load users")
		return err
	}

	var users []models.User
	if err := resp.DecodeList(&users); err != nil {
		s.failFetch(colUsers, err, "failed to load users")
		return err
	}
	s.dispatch(usersLoaded{users: users}, loadingSet{key: colUsers})
	return nil
}

// FetchRoles 拉取角色列表与可授权字段目录
func (s *Store) FetchRoles(ctx context.Context) error {
	if !s.tryBeginLoad(colRoles) {
		return nil
	}

	resp, err := s.gw.Get(ctx, pathRoles, nil)
	if err != nil {
		s.failFetch(colRoles, err, "failed to load roles")
		return err
	}
	var roles []models.Role
	if err := resp.DecodeList(&roles); err != nil {
		s.failFetch(colRoles, err, "failed to load roles")
		return err
	}

	columns, err := s.fetchAvailableColumns(ctx)
	if err != nil {
		s.failFetch(colRoles, err, "failed to load available columns")
		return err
	}

	s.dispatch(
		rolesLoaded{roles: roles},
		availableColumnsLoaded{columns: columns},
		loadingSet{key: colRoles},
	)
	return nil
}

func (s *Store) fetchAvailableColumns(ctx context.Context) ([]models.AvailableColumn, error) {
	resp, err := s.gw.Get(ctx, pathAvailableColumns, nil)
	if err != nil {
		return nil, err
	}

	var data vo.AvailableColumnsData
	if err := decodeLoose(resp, &data); err != nil {
		return nil, err
	}

	var columns []models.AvailableColumn
	if err := copier.Copy(&columns, &data.Columns); err != nil {
		return nil, errors.Wrap(err, "failed to copy column catalog")
	}
	return columns, nil
}

// SaveRole 创建或更新角色，角色采用全量对象提交
func (s *Store) SaveRole(ctx context.Context, id uint64, req params.SaveRoleRequest) vo.Result {
	if err := s.validate.Struct(req); err != nil {
		return vo.Fail(err.Error())
	}

	var err error
	if id == 0 {
		_, err = s.gw.Post(ctx, pathRoles, req)
	} else {
		_, err = s.gw.Put(ctx, pathRoles+strconv.FormatUint(id, 10)+"/", req)
	}
	if err != nil {
		return vo.Fail(errMessage(err, "failed to save role"))
	}

	s.ShowToast(ToastSuccess, "role saved")
	s.FetchRoles(ctx)
	return vo.OK()
}

// SaveUserParams 用户保存入参：二选一的创建/更新请求加角色绑定集合
type SaveUserParams struct {
	ID       uint64
	Register *params.RegisterUserRequest
	Update   *params.UpdateUserRequest
	RoleIDs  []uint64
}

// SaveUser 创建或更新用户并重建其角色绑定
// 角色重绑定分两阶段：先删除现有绑定，再逐个创建新绑定
func (s *Store) SaveUser(ctx context.Context, p SaveUserParams) vo.Result {
	userID := p.ID

	switch {
	case p.Register != nil:
		if err := s.validate.Struct(p.Register); err != nil {
			return vo.Fail(err.Error())
		}
		resp, err := s.gw.Post(ctx, pathRegister, p.Register)
		if err != nil {
			return vo.Fail(errMessage(err, "failed to create user"))
		}
		var created models.User
		if err := resp.DecodeData(&created); err != nil {
			return vo.Fail("unexpected register response")
		}
		userID = created.ID

	case p.Update != nil:
		if err := s.validate.Struct(p.Update); err != nil {
			return vo.Fail(err.Error())
		}
		if _, err := s.gw.Patch(ctx, pathUsers+strconv.FormatUint(userID, 10)+"/", p.Update); err != nil {
			return vo.Fail(errMessage(err, "failed to update user"))
		}

	default:
		return vo.Fail("nothing to save")
	}

	if err := s.reassignRoles(ctx, userID, p.RoleIDs); err != nil {
		return vo.Fail(errMessage(err, "failed to assign roles"))
	}

	s.ShowToast(ToastSuccess, "user saved")
	s.FetchUsers(ctx)
	return vo.OK()
}

// fetchUserRoles 拉取某用户的全部角色绑定
func (s *Store) fetchUserRoles(ctx context.Context, userID uint64) ([]models.UserRole, error) {
	query := url.Values{"user": {strconv.FormatUint(userID, 10)}}
	resp, err := s.gw.Get(ctx, pathUserRoles, query)
	if err != nil {
		return nil, err
	}
	var bindings []models.UserRole
	if err := resp.DecodeList(&bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

// UserRoleIDs 返回某用户当前绑定的角色ID集合，用户编辑表单预填用
func (s *Store) UserRoleIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	bindings, err := s.fetchUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(bindings, func(ur models.UserRole, _ int) uint64 {
		return ur.Role
	}), nil
}

// reassignRoles 两阶段角色重绑定
func (s *Store) reassignRoles(ctx context.Context, userID uint64, roleIDs []uint64) error {
	existing, err := s.fetchUserRoles(ctx, userID)
	if err != nil {
		return err
	}

	for _, ur := range existing {
		if _, err := s.gw.Delete(ctx, pathUserRoles+strconv.FormatUint(ur.ID, 10)+"/"); err != nil {
			return err
		}
	}
	for _, roleID := range roleIDs {
		req := params.AssignUserRoleRequest{User: userID, Role: roleID}
		if _, err := s.gw.Post(ctx, pathUserRoles, req); err != nil {
			return err
		}
	}
	return nil
}

// FetchDropdowns 并行拉取三类下拉引用数据
func (s *Store) FetchDropdowns(ctx context.Context) error {
	if !s.tryBeginLoad(colDropdowns) {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		merr *multierror.Error
	)
	for kind, path := range dropdownPaths {
		wg.Add(1)
		go func(kind, path string) {
			defer wg.Done()
			options, err := s.fetchDropdown(ctx, path)
			if err != nil {
				mu.Lock()
				merr = multierror.Append(merr, errors.Wrapf(err, "fetch %s", kind))
				mu.Unlock()
				return
			}
			s.dispatch(dropdownLoaded{kind: kind, options: options})
		}(kind, path)
	}
	wg.Wait()
	s.dispatch(loadingSet{key: colDropdowns})

	if err := merr.ErrorOrNil(); err != nil {
		message := errMessage(err, "failed to load reference data")
		s.dispatch(
			errorSet{key: colDropdowns, message: message},
			toastPushed{toast: newToast(ToastError, message)},
		)
		return err
	}
	return nil
}

func (s *Store) fetchDropdown(ctx context.Context, path string) ([]models.Option, error) {
	resp, err := s.gw.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var options []models.Option
	if err := resp.DecodeList(&options); err != nil {
		return nil, err
	}
	return options, nil
}

// SaveDropdownItem 创建或更新下拉引用数据项，随后仅重取对应数据集
func (s *Store) SaveDropdownItem(ctx context.Context, kind string, id uint64, req params.SaveDropdownRequest) vo.Result {
	path, ok := dropdownPaths[kind]
	if !ok {
		return vo.Fail("unknown dropdown kind: " + kind)
	}
	if err := s.validate.Struct(req); err != nil {
		return vo.Fail(err.Error())
	}

	var err error
	if id == 0 {
		_, err = s.gw.Post(ctx, path, req)
	} else {
		_, err = s.gw.Patch(ctx, path+strconv.FormatUint(id, 10)+"/", req)
	}
	if err != nil {
		return vo.Fail(errMessage(err, "failed to save item"))
	}

	options, err := s.fetchDropdown(ctx, path)
	if err != nil {
		return vo.Fail(errMessage(err, "failed to reload items"))
	}
	s.dispatch(dropdownLoaded{kind: kind, options: options})
	s.ShowToast(ToastSuccess, "item saved")
	return vo.OK()
}

// SearchUsers 用户搜索（设计师/印刷管控人选择器），latest-wins
func (s *Store) SearchUsers(ctx context.Context, term string) error {
	if len(term) < 2 {
		s.dispatch(searchResultsLoaded{users: nil})
		return nil
	}

	fctx, seq := s.beginFetch(ctx, colUserSearch)
	resp, err := s.gw.Get(fctx, pathSearchUsers, url.Values{"q": {term}})
	if !s.isLatest(colUserSearch, seq) {
		return nil
	}
	if err != nil {
		logger.Warn(ctx, "user search failed", zap.Error(err))
		return err
	}

	var users []models.User
	if err := resp.DecodeList(&users); err != nil {
		return err
	}
	s.dispatch(searchResultsLoaded{users: users})
	return nil
}

// ShowToast 追加一条提示消息，返回其ID供定时移除
func (s *Store) ShowToast(level ToastLevel, message string) string {
	toast := newToast(level, message)
	s.dispatch(toastPushed{toast: toast})
	return toast.ID
}

// RemoveToast 按ID移除提示消息
func (s *Store) RemoveToast(id string) {
	s.dispatch(toastRemoved{id: id})
}

// PruneToasts 移除已过期的提示消息，由界面心跳周期性调用
func (s *Store) PruneToasts(now time.Time) {
	s.mu.RLock()
	expired := lo.SomeBy(s.state.Toasts, func(t Toast) bool {
		return !now.Before(t.Created.Add(t.Duration))
	})
	s.mu.RUnlock()
	if !expired {
		return
	}
	s.dispatch(toastsPruned{now: now})
}

// SetModal 设置模态框可见性
func (s *Store) SetModal(kind ModalKind, visible bool) {
	s.dispatch(modalSet{kind: kind, visible: visible})
}

// SetWorkStatusFilter 切换仪表盘状态过滤
func (s *Store) SetWorkStatusFilter(value string) {
	s.dispatch(workStatusFilterSet{value: value})
}

// SetMovementFilter 设置日志过滤条件
func (s *Store) SetMovementFilter(action, search string) {
	s.dispatch(movementFilterSet{action: action, search: search})
}

// SelectWork 选中待编辑的工作记录（nil表示新建）
func (s *Store) SelectWork(work *models.Work) {
	s.dispatch(workSelected{work: work})
}
