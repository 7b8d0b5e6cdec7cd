// ABOUTME: TimedChunk store holding the recorded window and pre-roll chunk
// ABOUTME: Append-only window plus the most recently delivered chunk
package audio

// Store holds the retained pre-roll chunk and the recorded window of chunks.
// It is not internally locked: the engine's mutex is the single serialization
// point for every access.
type Store struct {
	window   []*Chunk
	retained *Chunk
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a chunk to the recorded window.
func (s *Store) Append(c *Chunk) {
	s.window = append(s.window, c)
}

// RetainLast remembers the most recently delivered chunk, recording or not,
// so a start press can seed the next window with up to one chunk of pre-roll.
func (s *Store) RetainLast(c *Chunk) {
	s.retained = c
}

// Retained returns the most recently delivered chunk, nil if none.
func (s *Store) Retained() *Chunk {
	return s.retained
}

// Chunks returns the window in arrival order. Callers must not modify it.
func (s *Store) Chunks() []*Chunk {
	return s.window
}

// Last returns the newest window chunk, nil when the window is empty.
func (s *Store) Last() *Chunk {
	if len(s.window) == 0 {
		return nil
	}
	return s.window[len(s.window)-1]
}

// Len returns the window length in chunks.
func (s *Store) Len() int {
	return len(s.window)
}

// Clear empties the window. The retained chunk survives.
func (s *Store) Clear() {
	s.window = nil
}

// Reset empties the window and drops the retained chunk.
func (s *Store) Reset() {
	s.window = nil
	s.retained = nil
}
