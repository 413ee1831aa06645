package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Database 描述 /databases/{id} 返回的元数据。
// 2025-09-03 版本中每个数据库包含一个或多个 data source，
// 写入和查询都要先换算成 data_source_id。
type Database struct {
	ID          string          `json:"id"`
	DataSources []DataSourceRef `json:"data_sources"`
	Properties  FieldList       `json:"properties"`
}

// DataSourceRef 引用数据库下属的 data source
type DataSourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FieldMeta 描述数据库的单个属性字段及其声明类型
type FieldMeta struct {
	Name string
	Type string
}

// FieldList 保留元数据中字段的书写顺序。
// properties 在协议里是 JSON 对象，标准 map 解码会打乱顺序，
// 而 schema 推断的兜底逻辑依赖"按列出顺序取第一个"，所以这里用
// token 流手工解码。
type FieldList []FieldMeta

// UnmarshalJSON 按出现顺序读取对象键值
func (l *FieldList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	fields := make(FieldList, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: unexpected key token %v", keyTok)
		}

		var meta struct {
			Type string `json:"type"`
		}
		if err := dec.Decode(&meta); err != nil {
			return fmt.Errorf("properties: decode field %q: %w", name, err)
		}

		fields = append(fields, FieldMeta{Name: name, Type: meta.Type})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = fields
	return nil
}

// Query 是 data source 查询请求体
type Query struct {
	Filter   *Filter `json:"filter,omitempty"`
	PageSize int     `json:"page_size,omitempty"`
}

// Filter 覆盖本系统用到的过滤条件子集：
// 日期等值/区间、标题等值、勾选框等值，以及 and 组合
type Filter struct {
	Property string             `json:"property,omitempty"`
	Date     *DateCondition     `json:"date,omitempty"`
	Title    *TextCondition     `json:"title,omitempty"`
	Checkbox *CheckboxCondition `json:"checkbox,omitempty"`
	And      []Filter           `json:"and,omitempty"`
}

type DateCondition struct {
	Equals     string `json:"equals,omitempty"`
	OnOrAfter  string `json:"on_or_after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
}

type TextCondition struct {
	Equals string `json:"equals,omitempty"`
}

type CheckboxCondition struct {
	Equals bool `json:"equals"`
}

// QueryResult 是查询响应
type QueryResult struct {
	Results []Page `json:"results"`
}

// Page 表示一条记录（Notion page）
type Page struct {
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue 同时用于读取和写入属性值。
// 哪个指针非空就代表哪种类型，序列化时其余字段省略。
type PropertyValue struct {
	Title    []RichText   `json:"title,omitempty"`
	Date     *DateValue   `json:"date,omitempty"`
	Checkbox *bool        `json:"checkbox,omitempty"`
	Select   *SelectValue `json:"select,omitempty"`
}

type RichText struct {
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
}

type DateValue struct {
	Start string `json:"start"`
}

type SelectValue struct {
	Name string `json:"name"`
}

// Parent 指定新建记录挂载的 data source
type Parent struct {
	Type         string `json:"type"`
	DataSourceID string `json:"data_source_id"`
}

// TitleProperty 构造标题属性值
func TitleProperty(text string) PropertyValue {
	return PropertyValue{Title: []RichText{{Text: &TextContent{Content: text}}}}
}

// DateProperty 构造日期属性值，day 形如 2026-01-12（不含时间）
func DateProperty(day string) PropertyValue {
	return PropertyValue{Date: &DateValue{Start: day}}
}

// CheckboxProperty 构造勾选框属性值；false 也必须显式写入
func CheckboxProperty(v bool) PropertyValue {
	return PropertyValue{Checkbox: &v}
}

// SelectProperty 构造单选属性值，name 必须与远端配置的选项逐字节一致
func SelectProperty(name string) PropertyValue {
	return PropertyValue{Select: &SelectValue{Name: name}}
}

// TitleText 读取页面上指定标题属性的纯文本，取第一段
func (p Page) TitleText(field string) string {
	prop, ok := p.Properties[field]
	if !ok || len(prop.Title) == 0 {
		return ""
	}

	rt := prop.Title[0]
	if rt.PlainText != "" {
		return rt.PlainText
	}
	if rt.Text != nil {
		return rt.Text.Content
	}
	return ""
}

// DateStart 读取页面上日期属性的起始值
func (p Page) DateStart(field string) string {
	prop, ok := p.Properties[field]
	if !ok || prop.Date == nil {
		return ""
	}
	return prop.Date.Start
}

// CheckboxValue 读取页面上勾选框属性的值
func (p Page) CheckboxValue(field string) bool {
	prop, ok := p.Properties[field]
	if !ok || prop.Checkbox == nil {
		return false
	}
	return *prop.Checkbox
}

// SelectName 读取页面上单选属性的选项名
func (p Page) SelectName(field string) string {
	prop, ok := p.Properties[field]
	if !ok || prop.Select == nil {
		return ""
	}
	return prop.Select.Name
}
