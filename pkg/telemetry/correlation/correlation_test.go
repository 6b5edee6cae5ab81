package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "req-1")
	_, cid := EnsureCorrelationID(ctx)
	if cid != "req-1" {
		t.Fatalf("expected existing id, got %q", cid)
	}
}

func TestEnsureCorrelationIDGeneratesULID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	if _, err := ulid.Parse(cid); err != nil {
		t.Fatalf("expected ulid, got %q: %v", cid, err)
	}
	if ExtractCorrelationID(ctx) != cid {
		t.Fatalf("expected id stored on context")
	}
}

func TestMetadataWithoutSpan(t *testing.T) {
	md := Metadata(ContextWithCorrelationID(context.Background(), "abc"))
	if md["correlation_id"] != "abc" {
		t.Fatalf("unexpected metadata %v", md)
	}
	if _, ok := md["trace_id"]; ok {
		t.Fatalf("trace_id should be absent without a span")
	}
}
