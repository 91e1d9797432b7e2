package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ayxworxfr/wm_console/internal/gateway"
)

const defaultToastDuration = 5 * time.Second

// Store 全局应用状态容器
// reducer是状态树的唯一修改入口，所有读取通过State快照与选择器进行
type Store struct {
	gw       *gateway.Gateway
	validate *validator.Validate

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[uint64]func()
	nextID uint64

	// latest-wins：每类可被覆盖的fetch维护序号与取消函数，
	// 过期完成被静默丢弃而不是乱序覆盖新数据
	fetchMu     sync.Mutex
	fetchSeq    map[collection]uint64
	fetchCancel map[collection]context.CancelFunc
}

// New 创建应用状态容器
// 存在持久化会话时将当前用户一并恢复
func New(gw *gateway.Gateway) *Store {
	s := &Store{
		gw:          gw,
		validate:    validator.New(),
		state:       newState(),
		subs:        make(map[uint64]func()),
		fetchSeq:    make(map[collection]uint64),
		fetchCancel: make(map[collection]context.CancelFunc),
	}
	if user := gw.CurrentUser(); user != nil {
		s.state.CurrentUser = user
	}
	return s
}

// State 返回当前状态快照
// 切片由reducer整体替换因此可以共享，映射复制以避免读写竞争
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state
	snapshot.Dropdowns = maps.Clone(s.state.Dropdowns)
	snapshot.Modals = maps.Clone(s.state.Modals)
	snapshot.Loading = maps.Clone(s.state.Loading)
	snapshot.Errors = maps.Clone(s.state.Errors)
	return snapshot
}

// Subscribe 注册状态变更回调，返回注销函数
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// dispatch 应用一组动作并通知订阅者
func (s *Store) dispatch(actions ...Action) {
	s.mu.Lock()
	for _, action := range actions {
		reduce(&s.state, action)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// tryBeginLoad 幂等守卫：同类请求已在途时拒绝重复发起
func (s *Store) tryBeginLoad(key collection) bool {
	s.mu.Lock()
	if s.state.Loading[key] {
		s.mu.Unlock()
		return false
	}
	reduce(&s.state, loadingSet{key: key, value: true})
	s.mu.Unlock()
	s.notify()
	return true
}

// beginFetch 开始一次可被覆盖的fetch：取消前一次并分配新序号
func (s *Store) beginFetch(ctx context.Context, key collection) (context.Context, uint64) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	if cancel := s.fetchCancel[key]; cancel != nil {
		cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	s.fetchCancel[key] = cancel
	s.fetchSeq[key]++
	return fctx, s.fetchSeq[key]
}

// isLatest 完成是否仍属于最新一次fetch
func (s *Store) isLatest(key collection, seq uint64) bool {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetchSeq[key] == seq
}

// newToast 构造一条提示消息
func newToast(level ToastLevel, message string) Toast {
	return Toast{
		ID:       uuid.NewString(),
		Level:    level,
		Message:  message,
		Created:  time.Now(),
		Duration: defaultToastDuration,
	}
}
