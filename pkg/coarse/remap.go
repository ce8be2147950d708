package coarse

// Remapper assigns dense, 1-based identifiers to anchor atoms in the order
// they are first seen. The mapping only grows and is meant to live for exactly
// one conversion run; create a new Remapper for every run.
type Remapper struct {
	ids   map[int]int
	order []int
}

// NewRemapper returns an empty Remapper.
func NewRemapper() *Remapper {
	return &Remapper{ids: make(map[int]int)}
}

// Assign returns the identifier for anchorID, allocating the next one on
// first sight.
func (m *Remapper) Assign(anchorID int) int {
	if id, ok := m.ids[anchorID]; ok {
		return id
	}
	id := len(m.order) + 1
	m.ids[anchorID] = id
	m.order = append(m.order, anchorID)
	return id
}

// Lookup returns the identifier assigned to anchorID, if any.
func (m *Remapper) Lookup(anchorID int) (int, bool) {
	id, ok := m.ids[anchorID]
	return id, ok
}

// Len returns the number of identifiers assigned so far.
func (m *Remapper) Len() int {
	return len(m.order)
}

// Anchors returns the original anchor ids indexed by new id - 1.
func (m *Remapper) Anchors() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}
