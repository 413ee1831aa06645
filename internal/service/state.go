package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownHabit 在操作的习惯不在当前习惯集内时返回
	ErrUnknownHabit = errors.New("unknown habit")
	// ErrNotCounterHabit 对非计数习惯做加减时返回
	ErrNotCounterHabit = errors.New("habit is not a counter")
	// ErrNotToggleHabit 对计数习惯做开关切换时返回
	ErrNotToggleHabit = errors.New("habit is not a toggle")
	// ErrUnknownEnergyLevel 能量评分不在五档枚举内时返回
	ErrUnknownEnergyLevel = errors.New("unknown energy level")
)

// HabitKey 用结构化的 (分类, 名称) 复合键定位一个习惯，
// 避免到处拼接/拆分字符串键
type HabitKey struct {
	Category string
	Name     string
}

func (k HabitKey) String() string {
	return k.Category + "::" + k.Name
}

// HabitDef 描述习惯集中的一项：
// Counter 为 true 时按会话次数计数，否则为当日开关；
// WeeklyGoal 是周统计的目标次数
type HabitDef struct {
	Name       string
	Counter    bool
	WeeklyGoal int
}

// HabitCategory 是习惯集里的一个分类
type HabitCategory struct {
	Name   string
	Habits []HabitDef
}

// HabitSet 定义某个用户变体的全部习惯，分类和条目保持固定顺序
type HabitSet struct {
	Categories []HabitCategory
}

// Keys 按定义顺序展开全部复合键
func (s HabitSet) Keys() []HabitKey {
	var keys []HabitKey
	for _, cat := range s.Categories {
		for _, h := range cat.Habits {
			keys = append(keys, HabitKey{Category: cat.Name, Name: h.Name})
		}
	}
	return keys
}

// Lookup 找到指定键的定义
func (s HabitSet) Lookup(key HabitKey) (HabitDef, bool) {
	for _, cat := range s.Categories {
		if cat.Name != key.Category {
			continue
		}
		for _, h := range cat.Habits {
			if h.Name == key.Name {
				return h, true
			}
		}
	}
	return HabitDef{}, false
}

// EnergyLevels 是五档能量评分的固定顺序标签（1..5）。
// 文本必须与 Notion 单选选项逐字节一致，远端按选项名拒绝未知值。
var EnergyLevels = []string{
	"Выжат, апатия",
	"Тяжело",
	"Норм",
	"Хорошо",
	"Очень хорошо",
}

// EnergyScore 把标签换算成 1..5 的分值。
// 比较时统一小写并去掉逗号，容忍远端选项里标点的细微差异。
func EnergyScore(label string) (int, bool) {
	normalized := normalizeEnergyLabel(label)
	for i, level := range EnergyLevels {
		if normalizeEnergyLabel(level) == normalized {
			return i + 1, true
		}
	}
	return 0, false
}

func normalizeEnergyLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.ReplaceAll(label, ",", "")
}

// HabitValue 是带标记的习惯取值：开关习惯看 Done，计数习惯看 Count
type HabitValue struct {
	Counter bool
	Done    bool
	Count   int
}

// HabitRecord 是提交时展开出的逻辑记录
type HabitRecord struct {
	Name      string
	Completed bool
	Date      string
}

// HabitState 持有一次会话内的习惯开关/计数值和能量选择。
// 纯内存模型，重新初始化后不保留任何历史。
type HabitState struct {
	mu     sync.Mutex
	set    HabitSet
	values map[HabitKey]HabitValue
	energy string
}

// NewHabitState 按给定习惯集构造并归零
func NewHabitState(set HabitSet) *HabitState {
	st := &HabitState{set: set}
	st.Initialize()
	return st
}

// Initialize 把每个习惯重置为零值（开关 false、计数 0）并清除能量选择
func (st *HabitState) Initialize() {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.values = make(map[HabitKey]HabitValue, len(st.set.Categories)*4)
	for _, cat := range st.set.Categories {
		for _, h := range cat.Habits {
			key := HabitKey{Category: cat.Name, Name: h.Name}
			st.values[key] = HabitValue{Counter: h.Counter}
		}
	}
	st.energy = ""
}

// Toggle 把开关习惯设置为复选框的实际状态。
// 以 checked 为准而不是盲目取反，重复同一 UI 输入是幂等的。
func (st *HabitState) Toggle(key HabitKey, checked bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	value, ok := st.values[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHabit, key)
	}
	if value.Counter {
		return fmt.Errorf("%w: %s", ErrNotToggleHabit, key)
	}

	value.Done = checked
	st.values[key] = value
	return nil
}

// Increment 计数 +1，无上界
func (st *HabitState) Increment(key HabitKey) error {
	return st.adjust(key, 1)
}

// Decrement 计数 -1，到 0 为止；0 上再减是空操作
func (st *HabitState) Decrement(key HabitKey) error {
	return st.adjust(key, -1)
}

func (st *HabitState) adjust(key HabitKey, delta int) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	value, ok := st.values[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHabit, key)
	}
	if !value.Counter {
		return fmt.Errorf("%w: %s", ErrNotCounterHabit, key)
	}

	value.Count += delta
	if value.Count < 0 {
		value.Count = 0
	}
	st.values[key] = value
	return nil
}

// SelectEnergy 覆盖当前唯一的能量选择
func (st *HabitState) SelectEnergy(label string) error {
	if _, ok := EnergyScore(label); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEnergyLevel, label)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.energy = label
	return nil
}

// ClearEnergy 取消能量选择
func (st *HabitState) ClearEnergy() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.energy = ""
}

// Energy 返回当前能量选择，空串表示未选
func (st *HabitState) Energy() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.energy
}

// Value 读取单个习惯的当前取值
func (st *HabitState) Value(key HabitKey) (HabitValue, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	value, ok := st.values[key]
	return value, ok
}

// Expand 把当前状态展开为待写入的逻辑记录：
// 计数值 n 的习惯产出 n 条完成记录，开关习惯产出一条镜像其布尔值的记录。
// 顺序跟随习惯集定义，便于测试断言。
func (st *HabitState) Expand(day string) []HabitRecord {
	st.mu.Lock()
	defer st.mu.Unlock()

	var records []HabitRecord
	for _, cat := range st.set.Categories {
		for _, h := range cat.Habits {
			value := st.values[HabitKey{Category: cat.Name, Name: h.Name}]
			if value.Counter {
				for i := 0; i < value.Count; i++ {
					records = append(records, HabitRecord{Name: h.Name, Completed: true, Date: day})
				}
				continue
			}
			records = append(records, HabitRecord{Name: h.Name, Completed: value.Done, Date: day})
		}
	}
	return records
}

// CategorySnapshot 是返回给前端渲染层的状态切片
type CategorySnapshot struct {
	Name   string          `json:"name"`
	Habits []HabitSnapshot `json:"habits"`
}

type HabitSnapshot struct {
	Name    string `json:"name"`
	Counter bool   `json:"counter"`
	Done    bool   `json:"done"`
	Count   int    `json:"count"`
}

// Snapshot 按定义顺序导出当前状态
func (st *HabitState) Snapshot() []CategorySnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snapshot := make([]CategorySnapshot, 0, len(st.set.Categories))
	for _, cat := range st.set.Categories {
		cs := CategorySnapshot{Name: cat.Name, Habits: make([]HabitSnapshot, 0, len(cat.Habits))}
		for _, h := range cat.Habits {
			value := st.values[HabitKey{Category: cat.Name, Name: h.Name}]
			cs.Habits = append(cs.Habits, HabitSnapshot{
				Name:    h.Name,
				Counter: value.Counter,
				Done:    value.Done,
				Count:   value.Count,
			})
		}
		snapshot = append(snapshot, cs)
	}
	return snapshot
}
