package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/habbits/internal/db"
	"gorm.io/gorm"
)

// SubmissionResult 是一次提交的聚合结果。
// TotalRecords 只统计习惯记录，能量写入不计入条数。
type SubmissionResult struct {
	SubmissionID   string `json:"submission_id"`
	TotalRecords   int    `json:"total_records"`
	CompletedCount int    `json:"completed_count"`
}

// SubmissionService 把会话状态翻译成一组独立的远端写入，
// 并发派发后等所有写入出结果，对调用方只报告整体成败。
type SubmissionService struct {
	records *RecordService
	users   *UserDirectory
	states  *StateStore
	gdb     *gorm.DB
}

// NewSubmissionService 构造提交编排器
func NewSubmissionService(records *RecordService, users *UserDirectory, states *StateStore, gdb *gorm.DB) *SubmissionService {
	return &SubmissionService{records: records, users: users, states: states, gdb: gdb}
}

type writeOutcome struct {
	entity string
	err    error
}

// Submit 展开指定用户的状态并提交当日记录。
// 每条展开记录走追加式创建；有能量选择且该用户变体启用能量时，
// 额外派发一条能量写入。全部写入完成后才返回：
// 任意一条失败即整体失败，成功则把状态重新归零。
func (s *SubmissionService) Submit(ctx context.Context, userTag, day string) (*SubmissionResult, error) {
	profile := s.users.Lookup(userTag)
	state := s.states.Get(profile.Tag)

	records := state.Expand(day)
	energy := state.Energy()
	writeEnergy := energy != "" && profile.EnergyEnabled && profile.EnergyDatabaseID != ""

	completed := 0
	for _, rec := range records {
		if rec.Completed {
			completed++
		}
	}

	result := &SubmissionResult{
		SubmissionID:   uuid.NewString(),
		TotalRecords:   len(records),
		CompletedCount: completed,
	}

	outcomes := make(chan writeOutcome, len(records)+1)
	var wg sync.WaitGroup

	for _, rec := range records {
		wg.Add(1)
		go func(rec HabitRecord) {
			defer wg.Done()
			outcomes <- writeOutcome{
				entity: rec.Name,
				err:    s.records.Create(ctx, profile.HabitDatabaseID, rec),
			}
		}(rec)
	}

	if writeEnergy {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- writeOutcome{
				entity: "energy",
				err:    s.records.CreateEnergy(ctx, profile.EnergyDatabaseID, energy, day),
			}
		}()
	}

	wg.Wait()
	close(outcomes)

	// 只向调用方暴露第一条失败，但流水里保留失败条目名
	var firstFailure *writeOutcome
	for outcome := range outcomes {
		if outcome.err != nil && firstFailure == nil {
			failed := outcome
			firstFailure = &failed
		}
	}

	entry := db.Submission{
		SubmissionID:   result.SubmissionID,
		UserTag:        profile.Tag,
		Day:            day,
		TotalRecords:   result.TotalRecords,
		CompletedCount: result.CompletedCount,
		EnergyLevel:    energy,
		Status:         db.SubmissionStatusSuccess,
	}

	if firstFailure != nil {
		entry.Status = db.SubmissionStatusFailed
		entry.FailedEntity = firstFailure.entity
		entry.ErrorMessage = firstFailure.err.Error()
		s.journal(entry)
		return nil, fmt.Errorf("submit %s for %s: %w", day, profile.Tag, firstFailure.err)
	}

	s.journal(entry)

	// 提交成功后从干净状态开始下一轮
	state.Initialize()

	return result, nil
}

// journal 写提交流水；流水失败只记日志，不影响提交结果
func (s *SubmissionService) journal(entry db.Submission) {
	if s.gdb == nil {
		return
	}
	if err := s.gdb.Create(&entry).Error; err != nil {
		log.Printf("failed to journal submission %s: %v", entry.SubmissionID, err)
	}
}

// History 返回某用户最近的提交流水，limit<=0 时取 20 条
func (s *SubmissionService) History(userTag string, limit int) ([]db.Submission, error) {
	if s.gdb == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	profile := s.users.Lookup(userTag)

	var entries []db.Submission
	if err := s.gdb.
		Where("user_tag = ?", profile.Tag).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return entries, nil
}
