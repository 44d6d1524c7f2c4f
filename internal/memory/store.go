package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// Store holds MemoryEntry facts per session and scores them for relevance
// on retrieval.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]models.MemoryEntry // sessionID -> entries
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string][]models.MemoryEntry)}
}

// AddMemory appends entry to sessionId's memory set.
func (s *Store) AddMemory(sessionID string, entry models.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.SessionID = sessionID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.entries[sessionID] = append(s.entries[sessionID], entry)
}

// GetRelevantMemories returns up to limit entries for sessionId ranked by
// keyword overlap with query times importance, and bumps AccessCount /
// LastAccessedAt on every entry it returns.
func (s *Store) GetRelevantMemories(sessionID, query string, limit int) []models.MemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.entries[sessionID]
	if len(all) == 0 {
		return nil
	}

	queryWords := keywordSet(query)

	type scored = struct {
		idx   int
		score float64
	}
	var ranked []scored
	for i, e := range all {
		overlap := keywordOverlap(queryWords, keywordSet(e.Content))
		if overlap == 0 {
			continue
		}
		ranked = append(ranked, scored{idx: i, score: overlap * e.Importance})
	}

	// Queries with no overlap at all fall back to importance-ranked recall,
	// so a freshly started conversation can still surface the strongest
	// prior preferences.
	if len(ranked) == 0 {
		for i, e := range all {
			ranked = append(ranked, scored{idx: i, score: e.Importance})
		}
	}

	sortByScoreDesc(ranked)

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}

	now := time.Now()
	result := make([]models.MemoryEntry, 0, limit)
	for _, r := range ranked[:limit] {
		all[r.idx].AccessCount++
		all[r.idx].LastAccessedAt = now
		result = append(result, all[r.idx])
	}
	return result
}

func sortByScoreDesc(items []struct {
	idx   int
	score float64
}) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].score > items[j-1].score; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// keywordSet lowercases and splits text into a deduplicated word set,
// dropping very short tokens that carry little discriminative value.
func keywordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if len(w) < 3 {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// keywordOverlap returns the fraction of b's keywords that also appear in a,
// i.e. how much of the candidate memory's content the query touches.
func keywordOverlap(a, b map[string]struct{}) float64 {
	if len(b) == 0 {
		return 0
	}
	var hits int
	for w := range b {
		if _, ok := a[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(b))
}
