package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/internal/httpx"
	"github.com/richinex/scribe/markdown"
)

type recordedCall struct {
	target string
	blocks []Block
}

// fakeAppender scripts append results without a network; ids encode the
// call index and position so tests can follow id threading.
type fakeAppender struct {
	calls  []recordedCall
	failOn int // 1-based call number to fail on; 0 means never
	err    error
}

func (f *fakeAppender) AppendChildren(ctx context.Context, blockID string, blocks []Block) ([]string, error) {
	f.calls = append(f.calls, recordedCall{target: blockID, blocks: blocks})
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, f.err
	}
	ids := make([]string, len(blocks))
	for i := range blocks {
		ids[i] = fmt.Sprintf("id-%d-%d", len(f.calls)-1, i)
	}
	return ids, nil
}

func paragraphNodes(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{Block: Block{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: &RichTextBody{RichText: []RichText{{Type: "text", Text: TextContent{Content: fmt.Sprintf("block %d", i)}}}},
		}}
	}
	return nodes
}

func firstText(block Block) string {
	if block.Paragraph != nil && len(block.Paragraph.RichText) > 0 {
		return block.Paragraph.RichText[0].Text.Content
	}
	return ""
}

func TestDeliver250BlocksInThreeOrderedChunks(t *testing.T) {
	appender := &fakeAppender{}
	deliverer := NewDeliverer(appender, DeliveryOptions{Pace: time.Millisecond})

	report, err := deliverer.Deliver(context.Background(), "page-1", paragraphNodes(250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ChunkCount != 3 {
		t.Errorf("expected 3 chunks, got %d", report.ChunkCount)
	}
	if report.BlocksAdded != 250 {
		t.Errorf("expected 250 blocks added, got %d", report.BlocksAdded)
	}
	if len(appender.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(appender.calls))
	}
	sizes := []int{100, 100, 50}
	heads := []string{"block 0", "block 100", "block 200"}
	for i, call := range appender.calls {
		if call.target != "page-1" {
			t.Errorf("call %d: expected target page-1, got %s", i, call.target)
		}
		if len(call.blocks) != sizes[i] {
			t.Errorf("call %d: expected %d blocks, got %d", i, sizes[i], len(call.blocks))
		}
		if got := firstText(call.blocks[0]); got != heads[i] {
			t.Errorf("call %d: expected first block %q, got %q", i, heads[i], got)
		}
	}
}

func TestChildrenDeliveredUnderReturnedID(t *testing.T) {
	src := "| A | B |\n|---|---|\n| 1 | 2 |\n\nafter the table"
	nodes := BlocksFrom(markdown.Parse(src, markdown.Options{}))
	appender := &fakeAppender{}
	deliverer := NewDeliverer(appender, DeliveryOptions{Pace: time.Millisecond})

	report, err := deliverer.Deliver(context.Background(), "page-1", nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appender.calls) != 2 {
		t.Fatalf("expected 2 calls (top level + rows), got %d", len(appender.calls))
	}
	top := appender.calls[0]
	if top.target != "page-1" || len(top.blocks) != 2 {
		t.Fatalf("unexpected top-level call: target=%s blocks=%d", top.target, len(top.blocks))
	}
	if top.blocks[0].Type != "table" || top.blocks[1].Type != "paragraph" {
		t.Errorf("unexpected top-level order: %s, %s", top.blocks[0].Type, top.blocks[1].Type)
	}

	rows := appender.calls[1]
	// The table was index 0 of call 0.
	if rows.target != "id-0-0" {
		t.Errorf("expected rows delivered under the table's returned id, got %s", rows.target)
	}
	if len(rows.blocks) != 2 {
		t.Fatalf("expected header + 1 data row, got %d", len(rows.blocks))
	}
	for i, block := range rows.blocks {
		if block.Type != "table_row" {
			t.Errorf("row %d: expected table_row, got %s", i, block.Type)
		}
	}
	if report.BlocksAdded != 4 {
		t.Errorf("expected 4 blocks added in total, got %d", report.BlocksAdded)
	}
	if report.ChunkCount != 2 {
		t.Errorf("expected 2 chunks, got %d", report.ChunkCount)
	}
}

func TestDeliveryStopsAtFirstFailure(t *testing.T) {
	appender := &fakeAppender{
		failOn: 2,
		err:    &scriberr.UpstreamError{Status: 502},
	}
	deliverer := NewDeliverer(appender, DeliveryOptions{Pace: time.Millisecond})

	report, err := deliverer.Deliver(context.Background(), "page-1", paragraphNodes(250))
	if !scriberr.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(appender.calls) != 2 {
		t.Errorf("expected delivery to stop after the failing call, got %d calls", len(appender.calls))
	}
	if report.BlocksAdded != 100 {
		t.Errorf("expected only the first chunk counted, got %d", report.BlocksAdded)
	}
	if report.ChunkCount != 1 {
		t.Errorf("expected 1 successful chunk, got %d", report.ChunkCount)
	}
}

func TestPacingAppliedBetweenChunksOnly(t *testing.T) {
	appender := &fakeAppender{}
	pace := 40 * time.Millisecond
	deliverer := NewDeliverer(appender, DeliveryOptions{Pace: pace})

	start := time.Now()
	if _, err := deliverer.Deliver(context.Background(), "page-1", paragraphNodes(250)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 2*pace {
		t.Errorf("expected two pacing gaps for three chunks, elapsed %v", elapsed)
	}

	fresh := NewDeliverer(&fakeAppender{}, DeliveryOptions{Pace: pace})
	start = time.Now()
	if _, err := fresh.Deliver(context.Background(), "page-2", paragraphNodes(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > pace {
		t.Errorf("single chunk must not wait out the pace interval, elapsed %v", elapsed)
	}
}

func TestCancellationStopsDelivery(t *testing.T) {
	appender := &fakeAppender{}
	deliverer := NewDeliverer(appender, DeliveryOptions{Pace: 100 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := deliverer.Deliver(ctx, "page-1", paragraphNodes(250))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(appender.calls) >= 3 {
		t.Errorf("expected cancellation before the final chunk, got %d calls", len(appender.calls))
	}
}

func newServerClient(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Options{
		Token:      "secret_token",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Policy: httpx.Policy{
			Timeout:   2 * time.Second,
			Attempts:  2,
			BaseDelay: time.Millisecond,
			MaxDelay:  5 * time.Millisecond,
		},
	})
	return server, client
}

func TestAppendSendsExpectedRequest(t *testing.T) {
	var auth, version, path, method string
	var payload appendRequest
	_, client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		version = r.Header.Get("Notion-Version")
		path = r.URL.Path
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"results":[{"id":"b1"},{"id":"b2"}]}`))
	})

	nodes := BlocksFrom(markdown.Parse("# Title\n\nBody", markdown.Options{}))
	blocks := []Block{nodes[0].Block, nodes[1].Block}
	ids, err := client.AppendChildren(context.Background(), "page_123", blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", method)
	}
	if path != "/v1/blocks/page_123/children" {
		t.Errorf("unexpected path %s", path)
	}
	if auth != "Bearer secret_token" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if version == "" {
		t.Error("expected Notion-Version header")
	}
	if len(payload.Children) != 2 {
		t.Errorf("expected 2 children in payload, got %d", len(payload.Children))
	}
	if len(ids) != 2 || ids[0] != "b1" || ids[1] != "b2" {
		t.Errorf("expected positional ids, got %v", ids)
	}
}

func TestForbiddenIsTerminalPermissionError(t *testing.T) {
	var calls int32
	_, client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"restricted_resource","message":"integration lacks capability"}`))
	})

	_, err := client.AppendChildren(context.Background(), "page_123", paragraphBlocks(1))
	if !scriberr.IsPermission(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("403 must not be retried, got %d calls", got)
	}
}

func TestBadRequestSurfacesUpstreamMessageVerbatim(t *testing.T) {
	upstream := "body.children[0].type should be defined"
	_, client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"code":"validation_error","message":%q}`, upstream)))
	})

	_, err := client.AppendChildren(context.Background(), "page_123", paragraphBlocks(1))
	if !scriberr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), upstream) {
		t.Errorf("expected upstream message surfaced verbatim, got %v", err)
	}
}

func TestNotFoundReadsAsPermissionProblem(t *testing.T) {
	_, client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"object_not_found","message":"Could not find block"}`))
	})

	_, err := client.AppendChildren(context.Background(), "page_123", paragraphBlocks(1))
	if !scriberr.IsPermission(err) {
		t.Fatalf("expected permission classification for 404, got %v", err)
	}
	if !strings.Contains(err.Error(), "not shared") {
		t.Errorf("expected sharing guidance in message, got %v", err)
	}
}

func TestOversizedBatchRejectedLocally(t *testing.T) {
	var calls int32
	_, client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.AppendChildren(context.Background(), "page_123", paragraphBlocks(101))
	if !scriberr.IsValidation(err) {
		t.Fatalf("expected validation error for oversized batch, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("oversized batch must be rejected before any network call")
	}
}

func paragraphBlocks(n int) []Block {
	nodes := paragraphNodes(n)
	blocks := make([]Block, len(nodes))
	for i, node := range nodes {
		blocks[i] = node.Block
	}
	return blocks
}
