package view

import (
	"slices"
	"sync"
	"time"

	"chatterbox/internal/app/render"
	"chatterbox/internal/app/user"
)

// DefaultTranscriptLimit bounds the number of transcript entries kept in memory.
const DefaultTranscriptLimit = 1000

// EntryKind distinguishes chat messages from system notices.
type EntryKind string

const (
	EntryMessage EntryKind = "message"
	EntryNotice  EntryKind = "notice"
)

// Entry is one line of the transcript.
type Entry struct {
	Seq     uint64         `json:"seq"`
	Kind    EntryKind      `json:"kind"`
	At      time.Time      `json:"at"`
	Message *render.Unit   `json:"message,omitempty"`
	Notice  *render.Notice `json:"notice,omitempty"`
}

// Snapshot is a consistent copy of a Transcript.
type Snapshot struct {
	Entries []Entry            `json:"entries"`
	Roster  []user.User        `json:"roster"`
	Files   []render.FileEntry `json:"files"`

	// ScrollTo is the sequence number of the last inserted entry.
	ScrollTo uint64 `json:"scrollTo"`
}

// Transcript is an in-memory View. It is safe for concurrent use: the session
// writes to it while the CLI and the local viewer read snapshots.
type Transcript struct {
	mu      sync.RWMutex
	limit   int
	seq     uint64
	entries []Entry
	roster  []user.User
	files   []render.FileEntry
	now     func() time.Time
}

// NewTranscript creates a Transcript keeping at most limit entries.
// A non-positive limit selects DefaultTranscriptLimit.
func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}

	return &Transcript{
		limit:  limit,
		roster: []user.User{},
		files:  []render.FileEntry{},
		now:    time.Now,
	}
}

func (t *Transcript) AppendMessage(u render.Unit) {
	t.append(Entry{Kind: EntryMessage, Message: &u})
}

func (t *Transcript) AppendNotice(n render.Notice) {
	t.append(Entry{Kind: EntryNotice, Notice: &n})
}

func (t *Transcript) append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	e.Seq = t.seq
	e.At = t.now()

	t.entries = append(t.entries, e)
	if over := len(t.entries) - t.limit; over > 0 {
		t.entries = slices.Delete(t.entries, 0, over)
	}
}

func (t *Transcript) ReplaceRoster(users []user.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roster = slices.Clone(users)
	if t.roster == nil {
		t.roster = []user.User{}
	}
}

func (t *Transcript) ReplaceFiles(files []render.FileEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files = slices.Clone(files)
	if t.files == nil {
		t.files = []render.FileEntry{}
	}
}

func (t *Transcript) AppendFile(f render.FileEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files = append(t.files, f)
}

// Snapshot returns a copy of the current state.
func (t *Transcript) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		Entries:  slices.Clone(t.entries),
		Roster:   slices.Clone(t.roster),
		Files:    slices.Clone(t.files),
		ScrollTo: t.seq,
	}
}

// Since returns the entries inserted after seq.
func (t *Transcript) Since(seq uint64) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, _ := slices.BinarySearchFunc(t.entries, seq+1, func(e Entry, target uint64) int {
		switch {
		case e.Seq < target:
			return -1
		case e.Seq > target:
			return 1
		}
		return 0
	})

	return slices.Clone(t.entries[i:])
}

// Files returns a copy of the uploaded files list.
func (t *Transcript) Files() []render.FileEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.files)
}
