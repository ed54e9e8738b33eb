package knowledge

import (
	"sort"
	"strings"
	"sync"
)

// Index provides lookups over a loaded set of technique records
type Index struct {
	records  []*Object
	entries  []ResultRecord
	byID     map[string]*ResultRecord
	byTactic map[string][]*ResultRecord
	tactics  []string
	mu       sync.RWMutex
}

// NewIndex creates a new empty index
func NewIndex() *Index {
	return &Index{
		records:  make([]*Object, 0),
		entries:  make([]ResultRecord, 0),
		byID:     make(map[string]*ResultRecord),
		byTactic: make(map[string][]*ResultRecord),
	}
}

// Build replaces the index contents with records
func (idx *Index) Build(records []*Object) {
	entries := make([]ResultRecord, len(records))
	for i, rec := range records {
		entries[i] = NewResultRecord(rec)
	}

	byID := make(map[string]*ResultRecord)
	byTactic := make(map[string][]*ResultRecord)
	var tactics []string

	for i := range entries {
		e := &entries[i]

		// First record wins for an ID
		if e.ID != "" {
			if _, exists := byID[e.ID]; !exists {
				byID[e.ID] = e
			}
		}

		for _, t := range e.Tactics {
			key := strings.ToLower(t)
			if _, exists := byTactic[key]; !exists {
				tactics = append(tactics, t)
			}
			byTactic[key] = append(byTactic[key], e)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = records
	idx.entries = entries
	idx.byID = byID
	idx.byTactic = byTactic
	idx.tactics = tactics
}

// GetByID returns the first technique with the given ID, in any spelling
func (idx *Index) GetByID(id string) *ResultRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byID[NormalizeID(id)]
}

// GetByTactic returns all techniques labelled with a tactic (case-insensitive)
func (idx *Index) GetByTactic(tactic string) []*ResultRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byTactic[strings.ToLower(strings.TrimSpace(tactic))]
}

// TacticCount is a tactic label with the number of techniques carrying it
type TacticCount struct {
	Tactic string `json:"tactic"`
	Count  int    `json:"count"`
}

// TacticCounts returns every tactic with its technique count, most common first
func (idx *Index) TacticCounts() []TacticCount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	counts := make([]TacticCount, 0, len(idx.tactics))
	for _, t := range idx.tactics {
		counts = append(counts, TacticCount{Tactic: t, Count: len(idx.byTactic[strings.ToLower(t)])})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// GetAll returns the extracted view of every indexed record in load order
func (idx *Index) GetAll() []ResultRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries
}

// Records returns the raw records in load order
func (idx *Index) Records() []*Object {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.records
}

// Count returns the number of indexed records
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Search runs queries over the indexed records
func (idx *Index) Search(queries []string, opts Options) ([]ResultRecord, error) {
	return Run(idx.Records(), queries, opts)
}
