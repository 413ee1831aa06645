package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/habbits/internal/notion"
)

// fakeNotion 模拟远端文档库协议的最小子集：
// 数据库元数据、data source 查询、页面创建与修改。
// 行为开关用于构造拒绝日期过滤、指定条目写入失败等场景。
type fakeNotion struct {
	srv *httptest.Server

	mu           sync.Mutex
	dataSources  map[string]string
	properties   map[string]string
	pages        map[string][]*fakePage
	metadataHits map[string]int
	queryHits    int
	createHits   int
	updateHits   int
	nextID       int

	rejectDateEquals bool
	failTitles       map[string]bool
}

type fakePage struct {
	ID    string                          `json:"id"`
	Props map[string]notion.PropertyValue `json:"properties"`
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()
	f := &fakeNotion{
		dataSources:  make(map[string]string),
		properties:   make(map[string]string),
		pages:        make(map[string][]*fakePage),
		metadataHits: make(map[string]int),
		failTitles:   make(map[string]bool),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNotion) client() *notion.Client {
	client := notion.NewClient("test-token")
	client.SetBaseURL(f.srv.URL)
	return client
}

// addDatabase 注册一个数据库及其唯一 data source；
// propertiesJSON 为空时使用主习惯库的标准字段
func (f *fakeNotion) addDatabase(databaseID, dataSourceID, propertiesJSON string) {
	if propertiesJSON == "" {
		propertiesJSON = `{
			"Habit": {"type": "title"},
			"Date": {"type": "date"},
			"Completed": {"type": "checkbox"}
		}`
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataSources[databaseID] = dataSourceID
	f.properties[databaseID] = propertiesJSON
}

func (f *fakeNotion) pagesOf(dataSourceID string) []*fakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePage(nil), f.pages[dataSourceID]...)
}

func (f *fakeNotion) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/databases/"):
		f.handleDatabase(w, strings.TrimPrefix(path, "/databases/"))
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/data_sources/") && strings.HasSuffix(path, "/query"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/data_sources/"), "/query")
		f.handleQuery(w, r, id)
	case r.Method == http.MethodPost && path == "/pages":
		f.handleCreate(w, r)
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/pages/"):
		f.handleUpdate(w, r, strings.TrimPrefix(path, "/pages/"))
	default:
		writeError(w, http.StatusNotFound, "object_not_found", "unknown endpoint "+path)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeNotion) handleDatabase(w http.ResponseWriter, databaseID string) {
	f.mu.Lock()
	f.metadataHits[databaseID]++
	dataSourceID, ok := f.dataSources[databaseID]
	props := f.properties[databaseID]
	f.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "object_not_found", "database not found")
		return
	}

	var sources []map[string]string
	if dataSourceID != "" {
		sources = append(sources, map[string]string{"id": dataSourceID})
	}

	body := map[string]any{
		"id":           databaseID,
		"data_sources": sources,
		"properties":   json.RawMessage(props),
	}
	writeJSON(w, body)
}

func (f *fakeNotion) handleQuery(w http.ResponseWriter, r *http.Request, dataSourceID string) {
	var q notion.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	conditions := flattenFilter(q.Filter)

	f.mu.Lock()
	f.queryHits++
	reject := f.rejectDateEquals
	pages := append([]*fakePage(nil), f.pages[dataSourceID]...)
	f.mu.Unlock()

	if reject {
		for _, cond := range conditions {
			if cond.Date != nil && cond.Date.Equals != "" {
				writeError(w, http.StatusBadRequest, "validation_error", "date filter not supported")
				return
			}
		}
	}

	var results []*fakePage
	for _, page := range pages {
		if matchesAll(page, conditions) {
			results = append(results, page)
		}
	}

	writeJSON(w, map[string]any{"results": results})
}

func flattenFilter(filter *notion.Filter) []notion.Filter {
	if filter == nil {
		return nil
	}
	if len(filter.And) > 0 {
		return filter.And
	}
	return []notion.Filter{*filter}
}

func matchesAll(page *fakePage, conditions []notion.Filter) bool {
	for _, cond := range conditions {
		prop := page.Props[cond.Property]
		switch {
		case cond.Date != nil:
			start := ""
			if prop.Date != nil {
				start = prop.Date.Start
			}
			if cond.Date.Equals != "" && start != cond.Date.Equals {
				return false
			}
			if cond.Date.OnOrAfter != "" && start < cond.Date.OnOrAfter {
				return false
			}
			if cond.Date.OnOrBefore != "" && start > cond.Date.OnOrBefore {
				return false
			}
		case cond.Title != nil:
			if cond.Title.Equals != "" && titleOf(prop) != cond.Title.Equals {
				return false
			}
		case cond.Checkbox != nil:
			checked := prop.Checkbox != nil && *prop.Checkbox
			if checked != cond.Checkbox.Equals {
				return false
			}
		}
	}
	return true
}

func titleOf(prop notion.PropertyValue) string {
	if len(prop.Title) == 0 {
		return ""
	}
	if prop.Title[0].Text != nil {
		return prop.Title[0].Text.Content
	}
	return prop.Title[0].PlainText
}

func (f *fakeNotion) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent struct {
			DataSourceID string `json:"data_source_id"`
		} `json:"parent"`
		Properties map[string]notion.PropertyValue `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	title := ""
	for _, prop := range req.Properties {
		if len(prop.Title) > 0 {
			title = titleOf(prop)
		}
	}

	f.mu.Lock()
	if f.failTitles[title] {
		f.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "internal_server_error", "create rejected for "+title)
		return
	}
	f.createHits++
	f.nextID++
	page := &fakePage{ID: fmt.Sprintf("page-%d", f.nextID), Props: req.Properties}
	f.pages[req.Parent.DataSourceID] = append(f.pages[req.Parent.DataSourceID], page)
	f.mu.Unlock()

	writeJSON(w, page)
}

func (f *fakeNotion) handleUpdate(w http.ResponseWriter, r *http.Request, pageID string) {
	var req struct {
		Properties map[string]notion.PropertyValue `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, pages := range f.pages {
		for _, page := range pages {
			if page.ID != pageID {
				continue
			}
			f.updateHits++
			for name, prop := range req.Properties {
				page.Props[name] = prop
			}
			writeJSON(w, page)
			return
		}
	}

	writeError(w, http.StatusNotFound, "object_not_found", "page not found")
}
