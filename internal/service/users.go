package service

import (
	"sync"

	"github.com/habbits/internal/config"
)

// UserProfile 描述一个具名用户变体：习惯集、是否启用能量评分，
// 以及该用户使用的远端数据库标识。
// EnergyDataSourceID 可以预先配置，省掉一次解析。
type UserProfile struct {
	Tag                string
	HabitSet           HabitSet
	EnergyEnabled      bool
	HabitDatabaseID    string
	EnergyDatabaseID   string
	EnergyDataSourceID string
}

// categorizedHabitSet 是分类变体：四个分类共 13 项，
// 其中两项按会话计数。周目标来自固定的目标表。
func categorizedHabitSet() HabitSet {
	return HabitSet{Categories: []HabitCategory{
		{
			Name: "Foundation & Health",
			Habits: []HabitDef{
				{Name: "Daily", WeeklyGoal: 5},
				{Name: "Healthy food", WeeklyGoal: 7},
				{Name: "Workouts", WeeklyGoal: 2},
				{Name: "Doomscroll < 30m", WeeklyGoal: 7},
				{Name: "Go outside", WeeklyGoal: 7},
			},
		},
		{
			Name: "Craft & Outs / Create",
			Habits: []HabitDef{
				{Name: "Deep work sessions", Counter: true, WeeklyGoal: 5},
				{Name: "Outs this week", WeeklyGoal: 2},
			},
		},
		{
			Name: "Learn & Grow / Explore",
			Habits: []HabitDef{
				{Name: "Learning sessions", Counter: true, WeeklyGoal: 3},
				{Name: "Inner work", WeeklyGoal: 1},
			},
		},
		{
			Name: "Connections / People",
			Habits: []HabitDef{
				{Name: "Family call", WeeklyGoal: 1},
				{Name: "Friday date", WeeklyGoal: 1},
				{Name: "Offline go out", WeeklyGoal: 1},
				{Name: "Tier 2-4 reaching out", WeeklyGoal: 2},
			},
		},
	}}
}

// flatHabitSet 是单分类变体，没有计数习惯和能量评分
func flatHabitSet() HabitSet {
	return HabitSet{Categories: []HabitCategory{
		{
			Name: "Habits",
			Habits: []HabitDef{
				{Name: "Morning routine", WeeklyGoal: 7},
				{Name: "Workout", WeeklyGoal: 3},
				{Name: "Reading", WeeklyGoal: 5},
				{Name: "Walk", WeeklyGoal: 7},
				{Name: "Sleep before 23:00", WeeklyGoal: 5},
			},
		},
	}}
}

// UserDirectory 把用户标识映射到档案，未知标识回落到默认用户。
// 档案在启动时由配置固化，之后只读。
type UserDirectory struct {
	profiles   map[string]UserProfile
	defaultTag string
}

// NewUserDirectory 从配置构建固定的用户集合
func NewUserDirectory(cfg config.AppConfig) *UserDirectory {
	profiles := map[string]UserProfile{
		"gleb": {
			Tag:                "gleb",
			HabitSet:           categorizedHabitSet(),
			EnergyEnabled:      true,
			HabitDatabaseID:    cfg.HabitDatabaseID,
			EnergyDatabaseID:   cfg.EnergyDatabaseID,
			EnergyDataSourceID: cfg.EnergyDataSourceID,
		},
		"masha": {
			Tag:             "masha",
			HabitSet:        flatHabitSet(),
			HabitDatabaseID: cfg.HabitDatabaseID,
		},
	}

	defaultTag := cfg.DefaultUser
	if _, ok := profiles[defaultTag]; !ok {
		defaultTag = "gleb"
	}

	return &UserDirectory{profiles: profiles, defaultTag: defaultTag}
}

// Lookup 解析用户标识；空串或未知标识回落到默认档案
func (d *UserDirectory) Lookup(tag string) UserProfile {
	if profile, ok := d.profiles[tag]; ok {
		return profile
	}
	return d.profiles[d.defaultTag]
}

// DefaultTag 返回默认用户标识
func (d *UserDirectory) DefaultTag() string {
	return d.defaultTag
}

// Tags 返回全部已配置的用户标识
func (d *UserDirectory) Tags() []string {
	tags := make([]string, 0, len(d.profiles))
	for tag := range d.profiles {
		tags = append(tags, tag)
	}
	return tags
}

// StateStore 为每个用户维护一份会话状态，按需惰性创建。
// 状态只存在于进程内存中，整页重载即重新归零。
type StateStore struct {
	mu     sync.Mutex
	users  *UserDirectory
	states map[string]*HabitState
}

// NewStateStore 构造空的状态仓库
func NewStateStore(users *UserDirectory) *StateStore {
	return &StateStore{
		users:  users,
		states: make(map[string]*HabitState),
	}
}

// Get 返回指定用户的状态，首次访问时按其习惯集初始化
func (s *StateStore) Get(tag string) *HabitState {
	profile := s.users.Lookup(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[profile.Tag]; ok {
		return st
	}
	st := NewHabitState(profile.HabitSet)
	s.states[profile.Tag] = st
	return st
}

// Reset 把指定用户的状态重新归零
func (s *StateStore) Reset(tag string) {
	s.Get(tag).Initialize()
}
