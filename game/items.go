package game

type ItemKind string

// The catalog is fixed. Effects beyond shield interaction are opaque to the
// server: it validates ownership, decrements, and broadcasts the outcome.
const (
	ItemPeek   ItemKind = "peek"   // reveal opponents' progress
	ItemShield ItemKind = "shield" // block the next offensive item
	ItemBomb   ItemKind = "bomb"   // cost every unshielded opponent time
)

var itemCatalog = []ItemKind{ItemPeek, ItemShield, ItemBomb}

func validItemKind(kind ItemKind) bool {
	for _, k := range itemCatalog {
		if k == kind {
			return true
		}
	}
	return false
}

// AssignItem grants the member one uniformly random item from the catalog and
// returns what was granted. Called by the item-spawn timer path for every
// member still in the room.
func (r *Room) AssignItem(m *Member) ItemKind {
	kind := itemCatalog[r.rng.Intn(len(itemCatalog))]
	m.inventory[kind]++
	return kind
}

// ItemUseResult carries the facts of one resolved item use; the hub turns it
// into a room broadcast.
type ItemUseResult struct {
	From     string   `json:"from"`
	Item     ItemKind `json:"item"`
	Affected []string `json:"affected,omitempty"`
	Blocked  []string `json:"blocked,omitempty"`
}

// UseItem validates ownership, decrements the inventory, and resolves the
// effect against the room. Offensive items are absorbed by a shield, which is
// consumed in the process.
func (r *Room) UseItem(username string, kind ItemKind) (ItemUseResult, error) {
	if !validItemKind(kind) {
		return ItemUseResult{}, ErrUnknownItem
	}
	m := r.Member(username)
	if m == nil {
		return ItemUseResult{}, ErrNotAMember
	}
	if m.inventory[kind] == 0 {
		return ItemUseResult{}, ErrItemNotOwned
	}
	m.inventory[kind]--

	result := ItemUseResult{From: username, Item: kind}
	switch kind {
	case ItemShield:
		m.shielded = true
	case ItemBomb:
		for _, other := range r.members {
			if other == m {
				continue
			}
			if other.shielded {
				other.shielded = false
				result.Blocked = append(result.Blocked, other.client.username)
				continue
			}
			result.Affected = append(result.Affected, other.client.username)
		}
	case ItemPeek:
		for _, other := range r.members {
			if other != m {
				result.Affected = append(result.Affected, other.client.username)
			}
		}
	}
	return result, nil
}

// Inventory returns a copy safe to hand to event payloads.
func (m *Member) Inventory() map[ItemKind]int {
	out := make(map[ItemKind]int, len(m.inventory))
	for k, v := range m.inventory {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}
