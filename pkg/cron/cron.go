package cron

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ayxworxfr/wm_console/pkg/logger"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	StatusRunning  TaskStatus = "running"
	StatusPaused   TaskStatus = "paused"
	StatusNotFound TaskStatus = "not_found"
)

// TaskHandlerFunc 任务处理函数类型
type TaskHandlerFunc func()

// TaskConfig 配置文件中的单个任务声明
type TaskConfig struct {
	Name     string `yaml:"name"`
	CronExpr string `yaml:"cron_expr"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// TaskInfo 任务运行时快照
type TaskInfo struct {
	Name     string     `json:"name"`
	Status   TaskStatus `json:"status"`
	CronExpr string     `json:"cron_expr"`
	NextRun  time.Time  `json:"next_run"`
}

// Logger 日志接口
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultLogger 默认日志实现
type DefaultLogger struct{}

func (l *DefaultLogger) Info(msg string, args ...any) {
	logger.Infof(context.Background(), msg, args...)
}

func (l *DefaultLogger) Warn(msg string, args ...any) {
	logger.Warnf(context.Background(), msg, args...)
}

func (l *DefaultLogger) Error(msg string, args ...any) {
	logger.Errorf(context.Background(), msg, args...)
}

// managedJob 调度器中的一个受管任务
type managedJob struct {
	entryID  cron.EntryID
	cronExpr string
	paused   bool
}

// TaskManager 定时任务管理器
// 后台任务与交互界面共存于一个进程，任务panic必须在这里兜住，
// 不能让一次探测失败把整个控制台打下线
type TaskManager struct {
	scheduler *cron.Cron
	jobs      map[string]*managedJob
	mu        sync.RWMutex
	logger    Logger
}

// NewTaskManager 创建定时任务管理器，logger为nil时使用全局日志
func NewTaskManager(logger Logger) *TaskManager {
	if logger == nil {
		logger = &DefaultLogger{}
	}

	// 标准5段cron表达式，不支持秒级精度
	return &TaskManager{
		scheduler: cron.New(),
		jobs:      make(map[string]*managedJob),
		logger:    logger,
	}
}

// Start 启动调度器
func (tm *TaskManager) Start() {
	tm.scheduler.Start()
	tm.logger.Info("All scheduled tasks started")
}

// Stop 停止调度器并等待运行中的任务结束
func (tm *TaskManager) Stop() {
	ctx := tm.scheduler.Stop()
	<-ctx.Done()
	tm.logger.Info("All scheduled tasks stopped")
}

// AddTask 添加定时任务，任务名重复时报错
func (tm *TaskManager) AddTask(name, cronExpr string, task TaskHandlerFunc) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.jobs[name]; exists {
		return fmt.Errorf("task %s already exists", name)
	}

	entryID, err := tm.scheduler.AddFunc(cronExpr, tm.wrap(name, task))
	if err != nil {
		return fmt.Errorf("failed to add task %s: %w", name, err)
	}

	tm.jobs[name] = &managedJob{
		entryID:  entryID,
		cronExpr: cronExpr,
	}

	tm.logger.Info("Task %s added, expression: %s", name, cronExpr)
	return nil
}

// wrap 包装任务：暂停检查 + panic隔离
func (tm *TaskManager) wrap(name string, task TaskHandlerFunc) func() {
	return func() {
		tm.mu.RLock()
		job, ok := tm.jobs[name]
		paused := ok && job.paused
		tm.mu.RUnlock()
		if !ok || paused {
			return
		}

		defer func() {
			if r := recover(); r != nil {
				tm.logger.Error("Task %s panicked: %v", name, r)
			}
		}()
		task()
	}
}

// RemoveTask 移除定时任务
func (tm *TaskManager) RemoveTask(name string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if job, exists := tm.jobs[name]; exists {
		tm.scheduler.Remove(job.entryID)
		delete(tm.jobs, name)
		tm.logger.Info("Task %s removed", name)
	} else {
		tm.logger.Warn("Attempt to remove non-existent task %s", name)
	}
}

// PauseTask 暂停任务，调度保留但处理函数不再执行
func (tm *TaskManager) PauseTask(name string) {
	tm.setPaused(name, true, "pause")
}

// ResumeTask 恢复被暂停的任务
func (tm *TaskManager) ResumeTask(name string) {
	tm.setPaused(name, false, "resume")
}

func (tm *TaskManager) setPaused(name string, paused bool, verb string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if job, exists := tm.jobs[name]; exists {
		job.paused = paused
		tm.logger.Info("Task %s %sd", name, verb)
	} else {
		tm.logger.Warn("Attempt to %s non-existent task %s", verb, name)
	}
}

// TaskStatus 查询任务状态
func (tm *TaskManager) TaskStatus(name string) TaskStatus {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	job, exists := tm.jobs[name]
	if !exists {
		return StatusNotFound
	}
	if job.paused {
		return StatusPaused
	}
	return StatusRunning
}

// ListTasks 返回所有任务的运行时快照
func (tm *TaskManager) ListTasks() []TaskInfo {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	var infos []TaskInfo
	for name, job := range tm.jobs {
		spec, err := cron.ParseStandard(job.cronExpr)
		if err != nil {
			tm.logger.Error("Failed to parse cron expression for task %s: %v", name, err)
			continue
		}

		status := StatusRunning
		if job.paused {
			status = StatusPaused
		}

		infos = append(infos, TaskInfo{
			Name:     name,
			Status:   status,
			CronExpr: job.cronExpr,
			NextRun:  spec.Next(time.Now()),
		})
	}
	return infos
}

// TaskRegistry 任务注册表，把配置中的任务名映射到处理函数
type TaskRegistry struct {
	tasks map[string]TaskHandlerFunc
}

// NewTaskRegistry 创建任务注册表
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]TaskHandlerFunc),
	}
}

// Register 注册任务处理函数
func (tr *TaskRegistry) Register(name string, handler TaskHandlerFunc) {
	tr.tasks[name] = handler
}

// LoadTasksFromYAML 从YAML文件加载任务
func (tm *TaskManager) LoadTasksFromYAML(filePath string, registry *TaskRegistry) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}

	return tm.LoadTasksFromYAMLBytes(data, registry)
}

// LoadTasksFromYAMLBytes 从YAML字节数据加载任务，未知字段视为配置错误
func (tm *TaskManager) LoadTasksFromYAMLBytes(data []byte, registry *TaskRegistry) error {
	var taskConfigs []TaskConfig
	if err := yaml.UnmarshalStrict(data, &taskConfigs); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return tm.LoadTasks(taskConfigs, registry)
}

// LoadTasks 按配置列表装配任务
// 单个任务的问题（未注册、表达式非法、显式禁用）只记录并跳过，
// 不阻断其余任务的加载
func (tm *TaskManager) LoadTasks(taskConfigs []TaskConfig, registry *TaskRegistry) error {
	for _, config := range taskConfigs {
		if config.Disabled {
			tm.logger.Info("Skipping disabled task: %s", config.Name)
			continue
		}

		handler, exists := registry.tasks[config.Name]
		if !exists {
			tm.logger.Warn("Task %s has no registered handler", config.Name)
			continue
		}

		if err := tm.AddTask(config.Name, config.CronExpr, handler); err != nil {
			tm.logger.Error("Failed to load task %s: %v", config.Name, err)
			continue
		}
	}
	return nil
}
