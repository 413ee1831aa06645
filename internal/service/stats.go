package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const dayFormat = "2006-01-02"

// EnergyStats 汇总一周的能量评分
type EnergyStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Scores  []int   `json:"scores"`
}

// HabitStat 对比单个习惯的完成次数与周目标
type HabitStat struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Goal     int    `json:"goal"`
	Met      bool   `json:"met"`
}

// WeeklyStats 是一周的聚合结果
type WeeklyStats struct {
	Start  string      `json:"start"`
	End    string      `json:"end"`
	Energy EnergyStats `json:"energy"`
	Habits []HabitStat `json:"habits"`
}

// StatsService 计算周统计：能量平均分和各习惯的完成次数对比目标。
// 读取走与提交相同的网关、解析器和 schema 推断。
type StatsService struct {
	records *RecordService
	users   *UserDirectory
}

// NewStatsService 构造统计服务
func NewStatsService(records *RecordService, users *UserDirectory) *StatsService {
	return &StatsService{records: records, users: users}
}

// MondayOf 把任意日期归一到所在周的周一
func MondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, 1-weekday)
}

// Weekly 聚合 monday 起一周（周一到周日）的数据。
// 能量库未配置或该用户未启用能量时，能量部分为空而不是报错。
func (s *StatsService) Weekly(ctx context.Context, userTag string, monday time.Time) (*WeeklyStats, error) {
	profile := s.users.Lookup(userTag)

	monday = MondayOf(monday)
	sunday := monday.AddDate(0, 0, 6)
	start := monday.Format(dayFormat)
	end := sunday.Format(dayFormat)

	stats := &WeeklyStats{Start: start, End: end}

	if profile.EnergyEnabled && profile.EnergyDatabaseID != "" {
		entries, err := s.records.QueryEnergyRange(ctx, profile.EnergyDatabaseID, start, end)
		if err != nil {
			return nil, fmt.Errorf("weekly energy stats: %w", err)
		}

		sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

		scores := make([]int, 0, len(entries))
		sum := 0
		for _, e := range entries {
			scores = append(scores, e.Score)
			sum += e.Score
		}
		stats.Energy = EnergyStats{Count: len(scores), Scores: scores}
		if len(scores) > 0 {
			// 保留一位小数，与展示口径一致
			stats.Energy.Average = math.Round(float64(sum)/float64(len(scores))*10) / 10
		}
	}

	pages, err := s.records.QueryCompletedRange(ctx, profile.HabitDatabaseID, start, end)
	if err != nil {
		return nil, fmt.Errorf("weekly habit stats: %w", err)
	}

	counts := make(map[string]int)
	for _, page := range pages {
		name := page.TitleText(habitTitleField)
		if name == "" {
			continue
		}
		counts[name]++
	}

	for _, cat := range profile.HabitSet.Categories {
		for _, h := range cat.Habits {
			count := counts[h.Name]
			stats.Habits = append(stats.Habits, HabitStat{
				Category: cat.Name,
				Name:     h.Name,
				Count:    count,
				Goal:     h.WeeklyGoal,
				Met:      h.WeeklyGoal > 0 && count >= h.WeeklyGoal,
			})
		}
	}

	return stats, nil
}
