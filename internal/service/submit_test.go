package service

import (
	"context"
	"testing"

	"github.com/habbits/internal/config"
	"github.com/habbits/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSubmitTest(t *testing.T, fake *fakeNotion) (*SubmissionService, *StateStore, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.Submission{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.AppConfig{
		HabitDatabaseID:  "habit-db",
		EnergyDatabaseID: "energy-db",
		DefaultUser:      "gleb",
	}
	users := NewUserDirectory(cfg)
	states := NewStateStore(users)
	records := newRecordService(fake)

	return NewSubmissionService(records, users, states, gdb), states, gdb
}

func energyProps() string {
	return `{
		"Дата": {"type": "date"},
		"Вопрос": {"type": "title"},
		"Ответ": {"type": "select"}
	}`
}

func TestSubmitFansOutAllRecords(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")
	fake.addDatabase("energy-db", "energy-ds", energyProps())

	svc, states, _ := setupSubmitTest(t, fake)

	state := states.Get("gleb")
	if err := state.Toggle(HabitKey{Category: "Foundation & Health", Name: "Workouts"}, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := state.Increment(HabitKey{Category: "Craft & Outs / Create", Name: "Deep work sessions"}); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}

	result, err := svc.Submit(context.Background(), "gleb", "2026-01-12")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	// 分类变体共 13 项习惯，其中 2 项计数：11 条开关记录 + 3 条计数展开
	if result.TotalRecords != 14 {
		t.Fatalf("expected 14 records, got %d", result.TotalRecords)
	}
	if result.CompletedCount != 4 {
		t.Fatalf("expected 4 completed, got %d", result.CompletedCount)
	}
	if pages := fake.pagesOf("habit-ds"); len(pages) != 14 {
		t.Fatalf("expected 14 pages written, got %d", len(pages))
	}
}

func TestSubmitWritesEnergyWhenSelected(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")
	fake.addDatabase("energy-db", "energy-ds", energyProps())

	svc, states, _ := setupSubmitTest(t, fake)

	state := states.Get("gleb")
	if err := state.SelectEnergy("Хорошо"); err != nil {
		t.Fatalf("SelectEnergy returned error: %v", err)
	}

	result, err := svc.Submit(context.Background(), "gleb", "2026-01-12")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	// 能量写入不计入记录条数
	if result.TotalRecords != 11 {
		t.Fatalf("expected 11 habit records, got %d", result.TotalRecords)
	}
	if pages := fake.pagesOf("energy-ds"); len(pages) != 1 {
		t.Fatalf("expected 1 energy page, got %d", len(pages))
	}
}

func TestSubmitSkipsEnergyForFlatUser(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")

	svc, states, _ := setupSubmitTest(t, fake)

	// 扁平变体没有能量评分，状态里也不可能有选择
	states.Get("masha")

	result, err := svc.Submit(context.Background(), "masha", "2026-01-12")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.TotalRecords != 5 {
		t.Fatalf("expected 5 records for flat set, got %d", result.TotalRecords)
	}
}

func TestSubmitResetsStateOnSuccess(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")
	fake.addDatabase("energy-db", "energy-ds", energyProps())

	svc, states, _ := setupSubmitTest(t, fake)

	state := states.Get("gleb")
	key := HabitKey{Category: "Foundation & Health", Name: "Workouts"}
	if err := state.Toggle(key, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := state.SelectEnergy("Норм"); err != nil {
		t.Fatalf("SelectEnergy returned error: %v", err)
	}

	if _, err := svc.Submit(context.Background(), "gleb", "2026-01-12"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if v, _ := state.Value(key); v.Done {
		t.Fatal("expected state reset after successful submit")
	}
	if state.Energy() != "" {
		t.Fatal("expected energy selection cleared after successful submit")
	}
}

func TestSubmitAggregatesFailure(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")
	fake.failTitles["Workouts"] = true

	svc, states, gdb := setupSubmitTest(t, fake)

	state := states.Get("gleb")
	key := HabitKey{Category: "Foundation & Health", Name: "Workouts"}
	if err := state.Toggle(key, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	if _, err := svc.Submit(context.Background(), "gleb", "2026-01-12"); err == nil {
		t.Fatal("expected aggregate failure when one write fails")
	}

	// 失败时状态保留，用户可以修正后重试
	if v, _ := state.Value(key); !v.Done {
		t.Fatal("expected state preserved after failed submit")
	}

	var entry db.Submission
	if err := gdb.Where("user_tag = ?", "gleb").First(&entry).Error; err != nil {
		t.Fatalf("expected journal entry: %v", err)
	}
	if entry.Status != db.SubmissionStatusFailed {
		t.Fatalf("unexpected journal status: %q", entry.Status)
	}
	if entry.FailedEntity != "Workouts" {
		t.Fatalf("expected failing entity recorded, got %q", entry.FailedEntity)
	}
	if entry.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}
}

func TestSubmitJournalsSuccess(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")

	svc, _, gdb := setupSubmitTest(t, fake)

	result, err := svc.Submit(context.Background(), "gleb", "2026-01-12")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	var entry db.Submission
	if err := gdb.Where("submission_id = ?", result.SubmissionID).First(&entry).Error; err != nil {
		t.Fatalf("expected journal entry: %v", err)
	}
	if entry.Status != db.SubmissionStatusSuccess {
		t.Fatalf("unexpected journal status: %q", entry.Status)
	}
	if entry.TotalRecords != result.TotalRecords {
		t.Fatalf("journal total %d does not match result %d", entry.TotalRecords, result.TotalRecords)
	}
	if entry.Day != "2026-01-12" {
		t.Fatalf("unexpected journal day: %q", entry.Day)
	}
}

func TestHistoryReturnsRecentEntries(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")

	svc, _, _ := setupSubmitTest(t, fake)

	for _, day := range []string{"2026-01-12", "2026-01-13"} {
		if _, err := svc.Submit(context.Background(), "gleb", day); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}

	entries, err := svc.History("gleb", 10)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}
}
