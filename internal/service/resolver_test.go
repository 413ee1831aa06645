package service

import (
	"context"
	"errors"
	"testing"
)

func TestResolverCachesMapping(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("habit-db", "habit-ds", "")

	resolver := NewDataSourceResolver(fake.client())

	first, err := resolver.Resolve(context.Background(), "habit-db")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if first != "habit-ds" {
		t.Fatalf("unexpected data source id: %q", first)
	}

	second, err := resolver.Resolve(context.Background(), "habit-db")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if second != first {
		t.Fatalf("expected cached value %q, got %q", first, second)
	}

	// 第二次调用必须走缓存，不再拉取元数据
	if hits := fake.metadataHits["habit-db"]; hits != 1 {
		t.Fatalf("expected 1 metadata fetch, got %d", hits)
	}
}

func TestResolverNoDataSource(t *testing.T) {
	fake := newFakeNotion(t)
	fake.addDatabase("empty-db", "", "")

	resolver := NewDataSourceResolver(fake.client())

	_, err := resolver.Resolve(context.Background(), "empty-db")
	if !errors.Is(err, ErrNoDataSource) {
		t.Fatalf("expected ErrNoDataSource, got %v", err)
	}
}

func TestResolverSeedSkipsFetch(t *testing.T) {
	fake := newFakeNotion(t)

	resolver := NewDataSourceResolver(fake.client())
	resolver.Seed("energy-db", "energy-ds")

	got, err := resolver.Resolve(context.Background(), "energy-db")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "energy-ds" {
		t.Fatalf("unexpected data source id: %q", got)
	}
	if hits := fake.metadataHits["energy-db"]; hits != 0 {
		t.Fatalf("expected no metadata fetch for seeded mapping, got %d", hits)
	}
}

func TestResolverPropagatesRemoteError(t *testing.T) {
	fake := newFakeNotion(t)

	resolver := NewDataSourceResolver(fake.client())

	if _, err := resolver.Resolve(context.Background(), "missing-db"); err == nil {
		t.Fatal("expected error for unknown database")
	}
}
