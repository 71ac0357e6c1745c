package persona

// Store exposes persona retrieval for HTTP handlers and services.
type Store interface {
	List() []Persona
	FindByType(t Type) (Persona, bool)
	Lookup(raw string) Persona
}

// MemoryStore implements Store with an in-memory map keyed by Type.
type MemoryStore struct {
	items []Persona
	index map[Type]Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	index := make(map[Type]Persona, len(items))
	for _, item := range items {
		index[item.Type] = item
	}
	return &MemoryStore{items: append([]Persona(nil), items...), index: index}
}

// List returns the catalog in seed order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByType looks up a persona by archetype.
func (s *MemoryStore) FindByType(t Type) (Persona, bool) {
	item, ok := s.index[t]
	return item, ok
}

// Lookup resolves a free-form type name, falling back to the default persona
// when the name is unknown. The zero Persona is returned only when the store
// does not contain the default either.
func (s *MemoryStore) Lookup(raw string) Persona {
	if t, ok := ParseType(raw); ok {
		if item, found := s.index[t]; found {
			return item
		}
	}
	return s.index[DefaultType]
}

var catalog = NewMemoryStore(Seed())

// Catalog returns the shared read-only store of the eight seeded personas.
func Catalog() *MemoryStore {
	return catalog
}
