package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/example/aspen/internal/ports/secondary"
)

func TestStore_Basic(t *testing.T) {
	bs := New()
	ctx := context.Background()

	info, err := bs.Put(ctx, "sub-01/k1.tsv", bytes.NewReader([]byte("data")), secondary.BlobPutOptions{
		ContentType: "text/tab-separated-values",
		Metadata:    map[string]string{"run": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "sub-01/k1.tsv" || info.Size != 4 || info.ETag == "" {
		t.Fatalf("unexpected info %#v", info)
	}

	// duplicate
	if _, err := bs.Put(ctx, "sub-01/k1.tsv", bytes.NewReader([]byte("x")), secondary.BlobPutOptions{}); err == nil {
		t.Fatal("expected duplicate error")
	}

	got, rc, err := bs.Get(ctx, "sub-01/k1.tsv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "data" || got.Metadata["run"] != "1" {
		t.Fatalf("bad payload %q %#v", b, got)
	}

	list, err := bs.List(ctx, "sub-01/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if list2, _ := bs.List(ctx, "sub-02/"); len(list2) != 0 {
		t.Fatal("expected empty list for unmatched prefix")
	}

	ok, err := bs.Delete(ctx, "sub-01/k1.tsv")
	if err != nil || !ok {
		t.Fatal("delete expected true")
	}
	if ok, _ := bs.Delete(ctx, "sub-01/k1.tsv"); ok {
		t.Fatal("second delete should be false")
	}
	if _, _, err := bs.Get(ctx, "sub-01/k1.tsv"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestStore_ListSorted(t *testing.T) {
	bs := New()
	ctx := context.Background()
	for _, k := range []string{"b", "a", "c"} {
		if _, err := bs.Put(ctx, k, bytes.NewReader(nil), secondary.BlobPutOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := bs.List(ctx, "")
	if len(list) != 3 || list[0].Key != "a" || list[2].Key != "c" {
		t.Errorf("list = %+v", list)
	}
	if bs.Driver() != Driver {
		t.Errorf("Driver() = %q", bs.Driver())
	}
}
