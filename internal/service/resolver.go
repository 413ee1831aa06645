package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/habbits/internal/notion"
)

// ErrNoDataSource 在数据库不含任何 data source 时返回
var ErrNoDataSource = errors.New("database has no data source")

// DataSourceResolver 把数据库标识换算成协议要求的 data source 标识，
// 并在进程生命周期内缓存映射。映射一旦学到就视为不可变，
// 底层数据库被改动不在处理范围内。
type DataSourceResolver struct {
	client *notion.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewDataSourceResolver 构造空缓存的解析器
func NewDataSourceResolver(client *notion.Client) *DataSourceResolver {
	return &DataSourceResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Seed 预置一条已知映射（配置里直接给出 data source id 时用）
func (r *DataSourceResolver) Seed(databaseID, dataSourceID string) {
	if databaseID == "" || dataSourceID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[databaseID] = dataSourceID
}

// Resolve 返回数据库的 data source 标识。
// 未命中缓存时拉取元数据并取列表首项；并发的首次访问可能重复拉取，
// 元数据读取无副作用，后写覆盖同值即可，双方都拿到正确结果。
func (r *DataSourceResolver) Resolve(ctx context.Context, databaseID string) (string, error) {
	r.mu.Lock()
	cached, ok := r.cache[databaseID]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	database, err := r.client.Database(ctx, databaseID)
	if err != nil {
		return "", fmt.Errorf("fetch database %s: %w", databaseID, err)
	}

	if len(database.DataSources) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoDataSource, databaseID)
	}

	dataSourceID := database.DataSources[0].ID

	r.mu.Lock()
	r.cache[databaseID] = dataSourceID
	r.mu.Unlock()

	return dataSourceID, nil
}
