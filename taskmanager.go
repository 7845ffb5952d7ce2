package ledgersync

import (
	"github.com/everFinance/ledgersync/schema"
	"sort"
	"sync"
	"time"
)

// TaskManager keeps the run record of every registered polling task.
type TaskManager struct {
	taskMap map[string]*schema.TaskStatus // key: task name
	locker  sync.RWMutex
}

func NewTaskMg() *TaskManager {
	return &TaskManager{
		taskMap: make(map[string]*schema.TaskStatus),
		locker:  sync.RWMutex{},
	}
}

func (m *TaskManager) AddTask(name string, interval time.Duration) {
	m.locker.Lock()
	defer m.locker.Unlock()
	if _, ok := m.taskMap[name]; ok {
		return
	}
	m.taskMap[name] = &schema.TaskStatus{Name: name, Interval: interval}
}

// Done records one finished run.
func (m *TaskManager) Done(name string, err error) {
	m.locker.Lock()
	defer m.locker.Unlock()
	tk, ok := m.taskMap[name]
	if !ok {
		return
	}
	tk.LastRun = time.Now().Unix()
	if err != nil {
		tk.CountFailed += 1
		tk.LastErr = err.Error()
		return
	}
	tk.CountSuccessed += 1
	tk.LastErr = ""
}

func (m *TaskManager) GetTask(name string) (schema.TaskStatus, bool) {
	m.locker.RLock()
	defer m.locker.RUnlock()
	tk, ok := m.taskMap[name]
	if !ok {
		return schema.TaskStatus{}, false
	}
	return *tk, true
}

func (m *TaskManager) GetTasks() []schema.TaskStatus {
	m.locker.RLock()
	defer m.locker.RUnlock()
	res := make([]schema.TaskStatus, 0, len(m.taskMap))
	for _, tk := range m.taskMap {
		res = append(res, *tk)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}
