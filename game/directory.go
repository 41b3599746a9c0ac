package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// Directory owns every Room. Like the registry it belongs to the hub goroutine;
// nothing outside the hub loop may call into it.
type Directory struct {
	rooms map[string]*Room
	order []string // creation order, kept stable for UI diffing
	rng   *rand.Rand
}

func NewDirectory(rng *rand.Rand) *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

func (d *Directory) Create(name string, capacity int) *Room {
	id := uuid.NewString()
	room := NewRoom(id, name, capacity, rand.New(rand.NewSource(d.rng.Int63())))
	d.rooms[id] = room
	d.order = append(d.order, id)
	return room
}

func (d *Directory) Get(id string) (*Room, bool) {
	room, ok := d.rooms[id]
	return room, ok
}

// Remove drops an emptied room. Removing a room that still has members is a
// bookkeeping bug in the caller, so refuse and report it.
func (d *Directory) Remove(id string) bool {
	room, ok := d.rooms[id]
	if !ok || !room.Empty() {
		return false
	}
	delete(d.rooms, id)
	for i, ordered := range d.order {
		if ordered == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns lobby summaries in creation order.
func (d *Directory) List() []RoomSummary {
	summaries := make([]RoomSummary, 0, len(d.rooms))
	for _, id := range d.order {
		summaries = append(summaries, d.rooms[id].Summary())
	}
	return summaries
}

func (d *Directory) Len() int {
	return len(d.rooms)
}
