package storage

import (
	"context"
	"reflect"
	"testing"

	"invoiceetl/pkg/tables"
)

type fakeRepo struct {
	replaced map[string][]Column
	batches  [][][]any
	cols     []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{replaced: map[string][]Column{}}
}

func (f *fakeRepo) Replace(_ context.Context, table string, cols []Column) error {
	f.replaced[table] = cols
	return nil
}

func (f *fakeRepo) InsertBatch(_ context.Context, _ string, cols []string, rows [][]any) (int64, error) {
	f.cols = cols
	cp := make([][]any, len(rows))
	copy(cp, rows)
	f.batches = append(f.batches, cp)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

func TestInferColumns(t *testing.T) {
	tb := tables.New("id", "total", "mixed", "empty")
	tb.Append(tables.Record{"id": "A12345", "total": 10.0, "mixed": 1.0, "empty": nil})
	tb.Append(tables.Record{"id": "B23456", "total": nil, "mixed": "x", "empty": nil})

	got := InferColumns(tb)
	want := []Column{
		{Name: "id", Kind: KindText},
		{Name: "total", Kind: KindNumber},
		{Name: "mixed", Kind: KindText},
		{Name: "empty", Kind: KindText},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestStoreTableBatches(t *testing.T) {
	tb := tables.New("id", "total")
	for i := 0; i < 5; i++ {
		tb.Append(tables.Record{"id": "A12345", "total": float64(i)})
	}

	repo := newFakeRepo()
	n, err := StoreTable(context.Background(), repo, "artifact", tb, 2)
	if err != nil {
		t.Fatalf("StoreTable: %v", err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	if _, ok := repo.replaced["artifact"]; !ok {
		t.Fatalf("Replace not called")
	}
	sizes := make([]int, len(repo.batches))
	for i, b := range repo.batches {
		sizes[i] = len(b)
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("batch sizes = %v, want [2 2 1]", sizes)
	}
	if !reflect.DeepEqual(repo.cols, []string{"id", "total"}) {
		t.Fatalf("cols = %v", repo.cols)
	}
}

func TestStoreTableRejectsBadBatchSize(t *testing.T) {
	if _, err := StoreTable(context.Background(), newFakeRepo(), "x", tables.New("a"), 0); err == nil {
		t.Fatalf("expected error for batchSize 0")
	}
}

func TestStoreTableEmptyTable(t *testing.T) {
	repo := newFakeRepo()
	n, err := StoreTable(context.Background(), repo, "empty", tables.New("a"), 10)
	if err != nil {
		t.Fatalf("StoreTable: %v", err)
	}
	if n != 0 || len(repo.batches) != 0 {
		t.Fatalf("n=%d batches=%d, want 0/0", n, len(repo.batches))
	}
}
