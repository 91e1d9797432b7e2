package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayxworxfr/wm_console/internal/store"
)

// Run 启动终端界面，阻塞直到退出
// store的状态变更通过订阅转为bubbletea消息驱动重绘
func Run(ctx context.Context, st *store.Store) error {
	app := NewApp(ctx, st)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := st.Subscribe(func() {
		program.Send(storeChangedMsg{})
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}
