package roster

import (
	"sort"
	"strconv"

	"cloudy-sword/pkg/api"
)

// Change - одно наблюдаемое изменение состава комнаты (для строк лога).
type Change struct {
	ID     api.ClientID
	Name   string
	Joined bool // false - клиент ушел
}

// Entry - запись списка клиентов.
type Entry struct {
	ID   api.ClientID
	Name string
}

// Roster хранит clientId -> имя в порядке прихода.
// Меняется только через Apply.
type Roster struct {
	names map[api.ClientID]string
	order []api.ClientID
}

func New() *Roster {
	return &Roster{names: make(map[api.ClientID]string)}
}

// Apply применяет обновление. Полная замена не порождает строк join/leave,
// частичное обновление - монотонное слияние: незатронутые записи сохраняются.
func (r *Roster) Apply(u api.RosterUpdate) []Change {
	ids := sortedIDs(u.Clients)

	if u.Full {
		r.names = make(map[api.ClientID]string, len(ids))
		r.order = r.order[:0]
		for _, id := range ids {
			if name := u.Clients[id]; name != nil {
				r.names[id] = *name
				r.order = append(r.order, id)
			}
		}
		return nil
	}

	var changes []Change
	for _, id := range ids {
		name := u.Clients[id]
		old, known := r.names[id]

		if name == nil {
			if known {
				r.remove(id)
				changes = append(changes, Change{ID: id, Name: old, Joined: false})
			}
			continue
		}

		if !known {
			r.order = append(r.order, id)
			changes = append(changes, Change{ID: id, Name: *name, Joined: true})
		}
		r.names[id] = *name
	}
	return changes
}

func (r *Roster) remove(id api.ClientID) {
	delete(r.names, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Name возвращает имя клиента.
func (r *Roster) Name(id api.ClientID) (string, bool) {
	name, ok := r.names[id]
	return name, ok
}

// FindByName ищет клиента по отображаемому имени.
func (r *Roster) FindByName(name string) (api.ClientID, bool) {
	for _, id := range r.order {
		if r.names[id] == name {
			return id, true
		}
	}
	return api.NoClient, false
}

// Entries - снимок в порядке прихода.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Entry{ID: id, Name: r.names[id]})
	}
	return out
}

func (r *Roster) Len() int {
	return len(r.order)
}

// sortedIDs упорядочивает ключи: числовые по значению, остальные лексикографически.
// Порядок ключей в карте на проводе не определен, поэтому нужен стабильный.
func sortedIDs(m map[api.ClientID]*string) []api.ClientID {
	ids := make([]api.ClientID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(string(ids[i]), string(ids[j])) })
	return ids
}

func idLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
