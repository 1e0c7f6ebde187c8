// Package memory keeps the ordered log of pipeline interactions for one
// session.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweetpotato0/selfrag/rag/retriever"
)

// EmptyRecent is returned by Recent when nothing has been recorded.
const EmptyRecent = "No previous queries."

// Entry is one recorded interaction.
type Entry struct {
	Seq         int64              `json:"seq"`
	ID          string             `json:"id"`
	Time        time.Time          `json:"time"`
	Query       string             `json:"query"`
	Subtasks    []string           `json:"subtasks"`
	Chunks      []retriever.Result `json:"chunks"`
	FirstAnswer string             `json:"first_answer"`
	CriticScore int                `json:"critic_score"`
	Feedback    string             `json:"feedback"`
	FinalAnswer string             `json:"final_answer,omitempty"`
	Revisions   int                `json:"revisions"`
}

// Answer returns the final answer, falling back to the first answer.
func (e Entry) Answer() string {
	if e.FinalAnswer != "" {
		return e.FinalAnswer
	}
	return e.FirstAnswer
}

func (e Entry) clone() Entry {
	e.Subtasks = append([]string(nil), e.Subtasks...)
	e.Chunks = append([]retriever.Result(nil), e.Chunks...)
	return e
}

// Session is an append-only, in-process interaction log.
// All operations are thread-safe using RWMutex protection
type Session struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq int64
	now     func() time.Time
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{nextSeq: 1, now: time.Now}
}

// Record appends a copy of entry, stamping its sequence number, ID and time.
// Sequence numbers keep increasing across Clear.
func (s *Session) Record(entry Entry) Entry {
	stored := entry.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored.Seq = s.nextSeq
	s.nextSeq++
	stored.ID = uuid.NewString()
	stored.Time = s.now()
	s.entries = append(s.entries, stored)
	return stored.clone()
}

// Recent renders the last n entries, oldest first, as "Q: ...\nA: ..." blocks.
func (s *Session) Recent(n int) string {
	entries := s.RecentEntries(n)
	if len(entries) == 0 {
		return EmptyRecent
	}
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = fmt.Sprintf("Q: %s\nA: %s", e.Query, e.Answer())
	}
	return strings.Join(blocks, "\n\n")
}

// RecentEntries returns copies of the last n entries, oldest first.
func (s *Session) RecentEntries(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.entries) == 0 {
		return nil
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return cloneEntries(s.entries[len(s.entries)-n:])
}

// Entries returns copies of every entry in insertion order.
func (s *Session) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

// AllChunks flattens the retrieved chunks of every entry in insertion order.
func (s *Session) AllChunks() []retriever.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []retriever.Result
	for _, e := range s.entries {
		out = append(out, e.Chunks...)
	}
	return out
}

// Count returns the number of recorded entries.
func (s *Session) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Last returns the most recent entry.
func (s *Session) Last() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1].clone(), true
}

// Clear drops every entry.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func cloneEntries(src []Entry) []Entry {
	if len(src) == 0 {
		return nil
	}
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = e.clone()
	}
	return out
}
