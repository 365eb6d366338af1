package keywords

import (
	"encoding/json"
	"fmt"
)

// RecordID identifies one insertion into a Store. IDs are never reused within a store.
type RecordID int64

// Entry is a record together with its identity and inclusion flag.
type Entry struct {
	ID       RecordID `json:"id"`
	Record
	Included bool `json:"included"`
}

// Label renders the entry's display label.
func (e Entry) Label() string {
	return e.Record.Label()
}

// Store holds the keyword records of one session and which of them are currently included.
// A Store is not safe for concurrent use; each session owns its own instance.
type Store struct {
	entries []Entry
	index   map[RecordID]int
	nextID  RecordID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index:  make(map[RecordID]int),
		nextID: 1,
	}
}

// ReplaceAll discards the current records and inclusion flags and installs records,
// all included. Every record is validated before anything changes.
func (s *Store) ReplaceAll(records []Record) ([]Entry, error) {
	cleaned := make([]Record, len(records))
	for i, r := range records {
		rec, err := NewRecord(r.Keyword, r.AdGroup)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		cleaned[i] = rec
	}

	entries := make([]Entry, len(cleaned))
	index := make(map[RecordID]int, len(cleaned))
	next := s.nextID
	for i, rec := range cleaned {
		entries[i] = Entry{ID: next, Record: rec, Included: true}
		index[next] = i
		next++
	}

	s.entries = entries
	s.index = index
	s.nextID = next

	return s.Entries(), nil
}

// Add appends a new included record.
func (s *Store) Add(keyword, adGroup string) (Entry, error) {
	rec, err := NewRecord(keyword, adGroup)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{ID: s.nextID, Record: rec, Included: true}
	s.index[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	s.nextID++
	return e, nil
}

// SetInclusion sets the inclusion flag of the record identified by id.
func (s *Store) SetInclusion(id RecordID, included bool) error {
	i, ok := s.index[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	s.entries[i].Included = included
	return nil
}

// Lookup returns the entry for id.
func (s *Store) Lookup(id RecordID) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// ActiveView returns the included records in insertion order.
func (s *Store) ActiveView() []Record {
	active := make([]Record, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Included {
			active = append(active, e.Record)
		}
	}
	return active
}

// AdGroups returns the distinct ad groups in order of first appearance.
func (s *Store) AdGroups() []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)
	for _, e := range s.entries {
		if _, ok := seen[e.AdGroup]; ok {
			continue
		}
		seen[e.AdGroup] = struct{}{}
		groups = append(groups, e.AdGroup)
	}
	return groups
}

// HasAdGroup reports whether any record belongs to group.
func (s *Store) HasAdGroup(group string) bool {
	for _, e := range s.entries {
		if e.AdGroup == group {
			return true
		}
	}
	return false
}

// Entries returns a copy of all entries in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of records, included or not.
func (s *Store) Len() int {
	return len(s.entries)
}

type storeState struct {
	NextID  RecordID `json:"next_id"`
	Entries []Entry  `json:"entries"`
}

// MarshalJSON encodes the full store state so a session can be persisted between requests.
func (s *Store) MarshalJSON() ([]byte, error) {
	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(storeState{NextID: s.nextID, Entries: entries})
}

// UnmarshalJSON restores a store encoded by MarshalJSON.
func (s *Store) UnmarshalJSON(data []byte) error {
	var st storeState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}

	index := make(map[RecordID]int, len(st.Entries))
	next := st.NextID
	for i, e := range st.Entries {
		if _, dup := index[e.ID]; dup {
			return fmt.Errorf("duplicate record id %d", e.ID)
		}
		if err := e.Record.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", e.ID, err)
		}
		index[e.ID] = i
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	if next < 1 {
		next = 1
	}

	s.entries = st.Entries
	s.index = index
	s.nextID = next
	return nil
}
