package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/habbits/internal/notion"
)

// ErrSchemaIncomplete 在两轮推断后仍有角色缺失时返回
var ErrSchemaIncomplete = errors.New("energy schema incomplete")

// EnergySchema 是能量数据库三个角色推断出的字段名
type EnergySchema struct {
	QuestionField string `json:"question_field"`
	DateField     string `json:"date_field"`
	AnswerField   string `json:"answer_field"`
}

// schemaRole 描述一个待推断角色：期望的字段类型和名称关键词
type schemaRole struct {
	label    string
	fieldTyp string
	keywords []string
}

// 关键词覆盖俄语和英语的常见命名；匹配按小写包含判断
var energyRoles = []schemaRole{
	{
		label:    "question",
		fieldTyp: "title",
		keywords: []string{"вопрос", "заголовок", "название", "question", "title", "name"},
	},
	{
		label:    "date",
		fieldTyp: "date",
		keywords: []string{"дата", "день", "date", "day"},
	},
	{
		label:    "answer",
		fieldTyp: "select",
		keywords: []string{"ответ", "оценка", "энерги", "answer", "rating", "energy"},
	},
}

// inferEnergySchema 是纯函数：对字段元数据做两轮匹配。
// 第一轮要求类型相符且小写名称含角色关键词；
// 第二轮回落到元数据列出顺序里第一个类型相符的字段。
// 仍缺角色时报错，消息列出已定/缺失的角色与全部可用字段名。
func inferEnergySchema(fields notion.FieldList) (EnergySchema, error) {
	resolve := func(role schemaRole) string {
		for _, f := range fields {
			if f.Type != role.fieldTyp {
				continue
			}
			lower := strings.ToLower(f.Name)
			for _, kw := range role.keywords {
				if strings.Contains(lower, kw) {
					return f.Name
				}
			}
		}
		for _, f := range fields {
			if f.Type == role.fieldTyp {
				return f.Name
			}
		}
		return ""
	}

	resolved := make(map[string]string, len(energyRoles))
	var missing []string
	for _, role := range energyRoles {
		name := resolve(role)
		if name == "" {
			missing = append(missing, role.label)
			continue
		}
		resolved[role.label] = name
	}

	if len(missing) > 0 {
		available := make([]string, 0, len(fields))
		for _, f := range fields {
			available = append(available, f.Name)
		}
		var found []string
		for _, role := range energyRoles {
			if name, ok := resolved[role.label]; ok {
				found = append(found, fmt.Sprintf("%s=%s", role.label, name))
			}
		}
		return EnergySchema{}, fmt.Errorf(
			"%w: missing roles [%s], resolved [%s], available fields [%s]",
			ErrSchemaIncomplete,
			strings.Join(missing, ", "),
			strings.Join(found, ", "),
			strings.Join(available, ", "),
		)
	}

	return EnergySchema{
		QuestionField: resolved["question"],
		DateField:     resolved["date"],
		AnswerField:   resolved["answer"],
	}, nil
}

// SchemaInferencer 针对辅助（能量）数据库做字段角色推断并缓存结果。
// 缓存进程级有效，远端 schema 事后变更不会触发重推。
type SchemaInferencer struct {
	client *notion.Client

	mu    sync.Mutex
	cache map[string]EnergySchema
}

// NewSchemaInferencer 构造空缓存的推断器
func NewSchemaInferencer(client *notion.Client) *SchemaInferencer {
	return &SchemaInferencer{
		client: client,
		cache:  make(map[string]EnergySchema),
	}
}

// Infer 返回数据库的角色字段三元组，未命中缓存时拉取元数据推断
func (s *SchemaInferencer) Infer(ctx context.Context, databaseID string) (EnergySchema, error) {
	s.mu.Lock()
	cached, ok := s.cache[databaseID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	database, err := s.client.Database(ctx, databaseID)
	if err != nil {
		return EnergySchema{}, fmt.Errorf("fetch database %s: %w", databaseID, err)
	}

	schema, err := inferEnergySchema(database.Properties)
	if err != nil {
		return EnergySchema{}, err
	}

	s.mu.Lock()
	s.cache[databaseID] = schema
	s.mu.Unlock()

	return schema, nil
}
