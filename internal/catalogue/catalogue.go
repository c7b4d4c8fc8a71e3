package catalogue

import (
	"fmt"
	"sort"
)

// Catalogue is an immutable, id-indexed set of programs.
type Catalogue struct {
	programs []Program
	byID     map[int64]int
}

// FromPrograms builds a catalogue from already-normalised programs, keeping
// their order. Transient fields are cleared.
func FromPrograms(programs []Program) (*Catalogue, error) {
	c := &Catalogue{
		programs: make([]Program, 0, len(programs)),
		byID:     make(map[int64]int, len(programs)),
	}
	for _, p := range programs {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateProgramID, p.ID)
		}
		p.DistanceKm = nil
		p.DistanceMiles = nil
		p.LoadAtArrival = nil
		c.byID[p.ID] = len(c.programs)
		c.programs = append(c.programs, p)
	}
	return c, nil
}

// Len returns the number of programs.
func (c *Catalogue) Len() int {
	if c == nil {
		return 0
	}
	return len(c.programs)
}

// Programs returns a copy of the programs in load order.
func (c *Catalogue) Programs() []Program {
	if c == nil {
		return nil
	}
	out := make([]Program, len(c.programs))
	copy(out, c.programs)
	return out
}

// Get returns the program with the given id.
func (c *Catalogue) Get(id int64) (Program, bool) {
	if c == nil {
		return Program{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return Program{}, false
	}
	return c.programs[idx], true
}

// IDs returns all program ids in ascending order.
func (c *Catalogue) IDs() []int64 {
	if c == nil {
		return nil
	}
	ids := make([]int64, 0, len(c.programs))
	for _, p := range c.programs {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
