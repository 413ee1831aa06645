package db

import (
	"gorm.io/gorm"
)

// Submission 记录每次提交批次的审计信息。
// 远端 Notion 才是习惯数据的事实来源，这里只留一份本地流水：
// 提交了多少条、多少条为完成态、失败时卡在哪个条目。
// Day 统一存 YYYY-MM-DD，与写入 Notion 的日期值一致。
type Submission struct {
	gorm.Model
	SubmissionID   string `gorm:"uniqueIndex"`
	UserTag        string `gorm:"index"`
	Day            string `gorm:"index"`
	TotalRecords   int
	CompletedCount int
	EnergyLevel    string
	Status         string
	FailedEntity   string
	ErrorMessage   string
}

const (
	// SubmissionStatusSuccess 全部写入成功
	SubmissionStatusSuccess = "success"
	// SubmissionStatusFailed 批次中任意一条失败即整体失败
	SubmissionStatusFailed = "failed"
)
