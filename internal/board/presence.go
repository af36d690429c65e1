package board

import "sort"

// Point is a pointer position on the shared surface.
type Point struct {
	X float64
	Y float64
}

// Participant is the replicated record for one session: claimed identity,
// display color, and last known pointer position. Claims are trusted as-is;
// there is no authentication in this protocol.
type Participant struct {
	ID     string
	Color  string
	Cursor *Point
}

// presenceStore maps session identifiers to participant records. Mutated only
// from the engine goroutine, by router callbacks and registry close
// transitions.
type presenceStore struct {
	byID map[string]Participant
}

func newPresenceStore() *presenceStore {
	return &presenceStore{byID: make(map[string]Participant)}
}

// upsert inserts or refreshes a participant, preserving a known cursor.
func (p *presenceStore) upsert(id, color string) {
	rec, ok := p.byID[id]
	if !ok {
		p.byID[id] = Participant{ID: id, Color: color}
		return
	}
	rec.Color = color
	p.byID[id] = rec
}

// setCursor updates the pointer position of a known participant. Cursor
// frames for identifiers that never joined are dropped.
func (p *presenceStore) setCursor(id string, x, y float64) bool {
	rec, ok := p.byID[id]
	if !ok {
		return false
	}
	rec.Cursor = &Point{X: x, Y: y}
	p.byID[id] = rec
	return true
}

func (p *presenceStore) remove(id string) {
	delete(p.byID, id)
}

func (p *presenceStore) count() int {
	return len(p.byID)
}

// list returns participants in stable identifier order.
func (p *presenceStore) list() []Participant {
	out := make([]Participant, 0, len(p.byID))
	for _, rec := range p.byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
