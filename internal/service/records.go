package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/habbits/internal/notion"
)

// 主习惯库的固定字段名
const (
	habitTitleField     = "Habit"
	habitDateField      = "Date"
	habitCompletedField = "Completed"
)

// 能量记录的标题内容，问题本身每天相同
const energyQuestionText = "Уровень энергии"

// RecordService 封装对远端记录的全部读写：
// 追加式创建、按 (名称, 日期) 的 create-or-update，以及日/区间查询。
// 数据库到 data source 的换算和能量 schema 推断都走注入的组件。
type RecordService struct {
	client   *notion.Client
	resolver *DataSourceResolver
	schemas  *SchemaInferencer
}

// NewRecordService 构造记录服务
func NewRecordService(client *notion.Client, resolver *DataSourceResolver, schemas *SchemaInferencer) *RecordService {
	return &RecordService{client: client, resolver: resolver, schemas: schemas}
}

func habitProperties(rec HabitRecord) map[string]notion.PropertyValue {
	return map[string]notion.PropertyValue{
		habitTitleField:     notion.TitleProperty(rec.Name),
		habitDateField:      notion.DateProperty(rec.Date),
		habitCompletedField: notion.CheckboxProperty(rec.Completed),
	}
}

// Create 追加一条新记录，不检查是否已有同名同日记录。
// 日常提交走这条路径："记一次事件"，而不是"设一个值"。
func (s *RecordService) Create(ctx context.Context, databaseID string, rec HabitRecord) error {
	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return err
	}

	if _, err := s.client.CreatePage(ctx, dataSourceID, habitProperties(rec)); err != nil {
		return fmt.Errorf("create record %q: %w", rec.Name, err)
	}
	return nil
}

// Upsert 实现"每个条目每天至多一条"的语义：
// 先按日期等值 + 标题等值查现存记录，命中则原地改完成标记，否则新建。
// 查询命中多条时操作第一条，客户端无法在远端强制唯一性。
func (s *RecordService) Upsert(ctx context.Context, databaseID string, rec HabitRecord) error {
	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return err
	}

	existing, err := s.client.QueryDataSource(ctx, dataSourceID, &notion.Query{
		Filter: &notion.Filter{
			And: []notion.Filter{
				{Property: habitDateField, Date: &notion.DateCondition{Equals: rec.Date}},
				{Property: habitTitleField, Title: &notion.TextCondition{Equals: rec.Name}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("query existing record %q: %w", rec.Name, err)
	}

	if len(existing.Results) > 0 {
		pageID := existing.Results[0].ID
		props := map[string]notion.PropertyValue{
			habitCompletedField: notion.CheckboxProperty(rec.Completed),
		}
		if _, err := s.client.UpdatePage(ctx, pageID, props); err != nil {
			return fmt.Errorf("update record %q: %w", rec.Name, err)
		}
		return nil
	}

	if _, err := s.client.CreatePage(ctx, dataSourceID, habitProperties(rec)); err != nil {
		return fmt.Errorf("create record %q: %w", rec.Name, err)
	}
	return nil
}

// CreateEnergy 向能量库追加一条评分记录。
// 字段名来自 schema 推断，选项值必须与远端配置的标签逐字节一致。
func (s *RecordService) CreateEnergy(ctx context.Context, databaseID, label, day string) error {
	schema, err := s.schemas.Infer(ctx, databaseID)
	if err != nil {
		return err
	}

	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return err
	}

	props := map[string]notion.PropertyValue{
		schema.QuestionField: notion.TitleProperty(energyQuestionText),
		schema.DateField:     notion.DateProperty(day),
		schema.AnswerField:   notion.SelectProperty(label),
	}
	if _, err := s.client.CreatePage(ctx, dataSourceID, props); err != nil {
		return fmt.Errorf("create energy record: %w", err)
	}
	return nil
}

// QueryDay 返回指定日期的全部习惯记录。
// 日期过滤被远端拒绝时降级为不带过滤的查询，在本地按日期前缀筛选；
// 这是唯一就地吞掉远端错误的兜底路径。
func (s *RecordService) QueryDay(ctx context.Context, databaseID, day string) ([]notion.Page, error) {
	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.QueryDataSource(ctx, dataSourceID, &notion.Query{
		Filter:   &notion.Filter{Property: habitDateField, Date: &notion.DateCondition{Equals: day}},
		PageSize: 100,
	})
	if err != nil {
		var remote *notion.RemoteError
		if !errors.As(err, &remote) {
			return nil, err
		}

		unfiltered, err := s.client.QueryDataSource(ctx, dataSourceID, &notion.Query{PageSize: 100})
		if err != nil {
			return nil, err
		}

		var pages []notion.Page
		for _, page := range unfiltered.Results {
			if strings.HasPrefix(page.DateStart(habitDateField), day) {
				pages = append(pages, page)
			}
		}
		return pages, nil
	}

	return result.Results, nil
}

// QueryCompletedRange 返回区间内所有已完成的习惯记录（周统计用）
func (s *RecordService) QueryCompletedRange(ctx context.Context, databaseID, start, end string) ([]notion.Page, error) {
	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.QueryDataSource(ctx, dataSourceID, &notion.Query{
		Filter: &notion.Filter{
			And: []notion.Filter{
				{Property: habitDateField, Date: &notion.DateCondition{OnOrAfter: start}},
				{Property: habitDateField, Date: &notion.DateCondition{OnOrBefore: end}},
				{Property: habitCompletedField, Checkbox: &notion.CheckboxCondition{Equals: true}},
			},
		},
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("query completed range: %w", err)
	}
	return result.Results, nil
}

// EnergyEntry 是区间查询解析出的一条能量记录
type EnergyEntry struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

// QueryEnergyRange 返回区间内可解析的能量记录。
// 选项名对不上五档枚举的记录直接跳过。
func (s *RecordService) QueryEnergyRange(ctx context.Context, databaseID, start, end string) ([]EnergyEntry, error) {
	schema, err := s.schemas.Infer(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	dataSourceID, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.QueryDataSource(ctx, dataSourceID, &notion.Query{
		Filter: &notion.Filter{
			And: []notion.Filter{
				{Property: schema.DateField, Date: &notion.DateCondition{OnOrAfter: start}},
				{Property: schema.DateField, Date: &notion.DateCondition{OnOrBefore: end}},
			},
		},
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("query energy range: %w", err)
	}

	var entries []EnergyEntry
	for _, page := range result.Results {
		label := page.SelectName(schema.AnswerField)
		score, ok := EnergyScore(label)
		if !ok {
			continue
		}
		entries = append(entries, EnergyEntry{
			Date:  page.DateStart(schema.DateField),
			Label: label,
			Score: score,
		})
	}
	return entries, nil
}
