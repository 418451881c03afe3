package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(store, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return svc, dir
}

func projectedJSON(t *testing.T, cfg types.RunConfiguration) ([]byte, *document.Document) {
	t.Helper()
	doc := document.Project(cfg)
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return body, doc
}

func TestGenerateStoresRenderedDocument(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	cfg := types.RunConfiguration{TestName: "vibration"}
	entry, _ := types.NewHardwareEntry(types.HardwareKindNIDAQ)
	entry.Channels.Set("Channel 0", "Dev1/ai0")
	cfg.Hardware = append(cfg.Hardware, entry)
	cfg.Outputs.ChronosEnabled = true
	body, doc := projectedJSON(t, cfg)

	rev, err := svc.Generate(ctx, body)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rev.TestName != "vibration" || rev.Name != DefaultName {
		t.Errorf("revision = %+v", rev)
	}

	want, _ := document.Render(doc)
	got, err := svc.Download(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("download differs:\n%s\n---\n%s", got, want)
	}
	if rev.Size != len(want) {
		t.Errorf("size = %d, want %d", rev.Size, len(want))
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(onDisk) != string(want) {
		t.Error("config.yaml on disk differs")
	}
}

func TestGenerateRejectsInvalidDocument(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Generate(context.Background(), []byte(`{"test_name":"x"}`))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if _, err := svc.Download(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after rejected submit, got %v", err)
	}
}

func TestGenerateRejectsDuplicateChannelLabels(t *testing.T) {
	svc, _ := newService(t)

	cfg := types.RunConfiguration{TestName: "vibration"}
	entry, _ := types.NewHardwareEntry(types.HardwareKindNIDAQ)
	entry.Channels.Set("Channel 0", "x")
	cfg.Hardware = append(cfg.Hardware, entry)
	body, _ := projectedJSON(t, cfg)

	dup := strings.Replace(string(body), `"Channel 0":"x"`, `"Channel 0":"x","Channel 0":"y"`, 1)
	if dup == string(body) {
		t.Fatalf("channel pair not found in %s", body)
	}

	_, err := svc.Generate(context.Background(), []byte(dup))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if _, err := svc.Download(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after rejected submit, got %v", err)
	}
}

func TestRevisionsNewestFirst(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		body, _ := projectedJSON(t, types.RunConfiguration{TestName: name})
		if _, err := svc.Generate(ctx, body); err != nil {
			t.Fatal(err)
		}
	}

	revs, err := svc.Revisions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 2 || revs[0].TestName != "second" || revs[1].TestName != "first" {
		t.Errorf("revisions = %+v", revs)
	}
	if revs[0].ID == revs[1].ID {
		t.Error("revision ids collide")
	}
}

func TestFileStoreRejectsPathNames(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "../config.yaml", "a/b.yaml", ".."} {
		if _, err := store.Put(context.Background(), Upload{Name: name}); err == nil {
			t.Errorf("Put(%q) accepted", name)
		}
	}
}
