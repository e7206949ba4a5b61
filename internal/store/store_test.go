package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/content"
	"github.com/matheusbuniotto/openwebui-tools/internal/council"
)

func TestCreateAndGet(t *testing.T) {
	s := New(t.TempDir())

	created, err := s.Create("conv-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "New Conversation" || len(created.Messages) != 0 {
		t.Errorf("Created = %+v", created)
	}

	loaded, err := s.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.ID != "conv-1" {
		t.Errorf("Loaded = %+v", loaded)
	}
}

func TestGetMissing(t *testing.T) {
	s := New(t.TempDir())

	conv, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Missing conversation should not be an error: %v", err)
	}
	if conv != nil {
		t.Errorf("Got %+v, want nil", conv)
	}
}

func TestGetCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get("bad"); err == nil {
		t.Error("Expected parse error for corrupt file")
	}
}

func TestAddMessages(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Create("conv-1"); err != nil {
		t.Fatal(err)
	}

	if err := s.AddUserMessage("conv-1", content.FromText("What is Go?")); err != nil {
		t.Fatalf("AddUserMessage failed: %v", err)
	}

	outcome := &council.Outcome{
		Stage1: []council.StageOneResult{{Model: "m1", Response: "An answer"}},
		Stage2: []council.Ranking{{Model: "m1", FullText: "FINAL RANKING:\n1. Response A", ParsedRanking: []string{"Response A"}}},
		Stage3: &council.Synthesis{Model: "m1", Response: "Final"},
	}
	if err := s.AddAssistantMessage("conv-1", outcome); err != nil {
		t.Fatalf("AddAssistantMessage failed: %v", err)
	}

	conv, err := s.Get("conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(conv.Messages))
	}

	user := conv.Messages[0]
	if user.Role != "user" || user.Content == nil || user.Content.PlainText() != "What is Go?" {
		t.Errorf("User message = %+v", user)
	}

	assistant := conv.Messages[1]
	if assistant.Role != "assistant" || len(assistant.Stage1) != 1 || assistant.Stage3 == nil {
		t.Errorf("Assistant message = %+v", assistant)
	}
	if assistant.Stage3.Response != "Final" {
		t.Errorf("Stage3 = %+v", assistant.Stage3)
	}
}

func TestAddMessageToMissingConversation(t *testing.T) {
	s := New(t.TempDir())
	if err := s.AddUserMessage("nope", content.FromText("x")); err == nil {
		t.Error("Expected error for unknown conversation")
	}
}

func TestUpdateTitle(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Create("conv-1"); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateTitle("conv-1", "Go Basics"); err != nil {
		t.Fatalf("UpdateTitle failed: %v", err)
	}

	conv, _ := s.Get("conv-1")
	if conv.Title != "Go Basics" {
		t.Errorf("Title = %q", conv.Title)
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	old := &Conversation{ID: "old", CreatedAt: time.Now().UTC().Add(-time.Hour), Title: "Old"}
	recent := &Conversation{ID: "recent", CreatedAt: time.Now().UTC(), Title: "Recent"}
	for _, conv := range []*Conversation{old, recent} {
		if err := s.Save(conv); err != nil {
			t.Fatal(err)
		}
	}
	// Invalid files are skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List = %d entries, want 2", len(list))
	}
	if list[0].ID != "recent" || list[1].ID != "old" {
		t.Errorf("Order = [%s, %s], want newest first", list[0].ID, list[1].ID)
	}
}

func TestListEmptyDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sub"))

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %v, want empty", list)
	}
}
