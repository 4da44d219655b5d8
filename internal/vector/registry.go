package vector

import (
	"container/list"
	"sync"
)

// Session holds the current index for one caller-supplied session identifier.
// The index is an immutable value swapped atomically: a build constructs a
// complete new Index and publishes it in one step, so a concurrent search
// observes either the old index or the new one, never a half-replaced pair.
type Session struct {
	id    string
	mu    sync.RWMutex
	index *Index
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Publish replaces the session's index. Prior vectors and metadata are
// discarded wholesale; builds are not additive.
func (s *Session) Publish(idx *Index) {
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
}

// Current returns the published index, or ErrNotBuilt when no build has
// succeeded for this session yet.
func (s *Session) Current() (*Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, ErrNotBuilt
	}
	return s.index, nil
}

// Search runs a top-k search against the currently published index.
func (s *Session) Search(query []float32, k int) ([]SearchResult, error) {
	idx, err := s.Current()
	if err != nil {
		return nil, err
	}
	return idx.Search(query, k)
}

// Registry is a bounded process-wide mapping from session identifier to
// Session, with least-recently-used eviction once capacity is reached.
type Registry struct {
	capacity int
	sessions map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type registryEntry struct {
	key     string
	session *Session
}

// NewRegistry creates a registry holding at most capacity sessions.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 128
	}
	return &Registry{
		capacity: capacity,
		sessions: make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// GetOrCreate returns the existing session for id, or creates and registers an
// empty one, evicting the least recently used session when at capacity.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.sessions[id]; ok {
		r.lru.MoveToFront(elem)
		return elem.Value.(*registryEntry).session
	}

	session := &Session{id: id}
	elem := r.lru.PushFront(&registryEntry{key: id, session: session})
	r.sessions[id] = elem

	if r.lru.Len() > r.capacity {
		oldest := r.lru.Back()
		if oldest != nil {
			r.lru.Remove(oldest)
			delete(r.sessions, oldest.Value.(*registryEntry).key)
		}
	}
	return session
}

// Get returns the session for id if present, without creating one.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	elem, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	r.lru.MoveToFront(elem)
	return elem.Value.(*registryEntry).session, true
}

// Evict removes the session for id, if present.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.sessions[id]; ok {
		r.lru.Remove(elem)
		delete(r.sessions, id)
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}
