// Package store persists conversations as JSON files, one per conversation.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/content"
	"github.com/matheusbuniotto/openwebui-tools/internal/council"
)

// Message is a single turn in a conversation. A user turn carries Content;
// an assistant turn carries the three council stages.
type Message struct {
	Role    string                   `json:"role"`
	Content *content.Topic           `json:"content,omitempty"`
	Stage1  []council.StageOneResult `json:"stage1,omitempty"`
	Stage2  []council.Ranking        `json:"stage2,omitempty"`
	Stage3  *council.Synthesis       `json:"stage3,omitempty"`
}

// Conversation is a full conversation with all messages.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// Metadata is the list view of a conversation.
type Metadata struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

// Store reads and writes conversations under one directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create initializes an empty conversation with a default title.
func (s *Store) Create(id string) (*Conversation, error) {
	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conversation := &Conversation{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Title:     "New Conversation",
		Messages:  []Message{},
	}
	if err := s.Save(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get loads a conversation by ID. A missing conversation returns nil without
// error; only read or parse failures are errors.
func (s *Store) Get(id string) (*Conversation, error) {
	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conversation Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation JSON: %w", err)
	}
	return &conversation, nil
}

// Save writes the conversation as formatted JSON.
func (s *Store) Save(conversation *Conversation) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := os.WriteFile(s.path(conversation.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	return nil
}

// List returns metadata for all conversations, newest first. Unreadable or
// invalid files are skipped silently.
func (s *Store) List() ([]Metadata, error) {
	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	conversations := make([]Metadata, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue
		}

		conversations = append(conversations, Metadata{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// AddUserMessage appends a user turn and saves.
func (s *Store) AddUserMessage(id string, topic content.Topic) error {
	conversation, err := s.Get(id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s not found", id)
	}

	conversation.Messages = append(conversation.Messages, Message{
		Role:    "user",
		Content: &topic,
	})
	return s.Save(conversation)
}

// AddAssistantMessage appends an assistant turn holding all three council
// stages and saves.
func (s *Store) AddAssistantMessage(id string, outcome *council.Outcome) error {
	conversation, err := s.Get(id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s not found", id)
	}

	conversation.Messages = append(conversation.Messages, Message{
		Role:   "assistant",
		Stage1: outcome.Stage1,
		Stage2: outcome.Stage2,
		Stage3: outcome.Stage3,
	})
	return s.Save(conversation)
}

// UpdateTitle replaces the conversation title and saves.
func (s *Store) UpdateTitle(id string, title string) error {
	conversation, err := s.Get(id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s not found", id)
	}

	conversation.Title = title
	return s.Save(conversation)
}
