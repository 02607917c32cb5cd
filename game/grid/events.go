package grid

// EventType names a change notification
type EventType string

const (
	EventLayerCreated      EventType = "layerCreated"
	EventLayerRemoved      EventType = "layerRemoved"
	EventVisibilityChanged EventType = "visibilityChanged"
	EventTileSet           EventType = "tileSet"
	EventRegionFilled      EventType = "regionFilled"
	EventObjectPlaced      EventType = "ObjectPlaced"
	EventObjectMoved       EventType = "ObjectMoved"
	EventObjectRemoved     EventType = "ObjectRemoved"
	EventViewportChange    EventType = "viewportChange"
)

// Event describes a committed mutation. Only the fields relevant to the
// event type are set.
type Event struct {
	Type     EventType `json:"type"`
	Layer    int       `json:"layer"`
	Kind     LayerKind `json:"kind"`
	Point    Point     `json:"point"`
	Index    int       `json:"index"`
	Cells    int       `json:"cells,omitempty"`
	Visible  bool      `json:"visible"`
	Object   *Object   `json:"object,omitempty"`
	Previous *Point    `json:"previous,omitempty"`
}

// Listener receives change notifications. It runs synchronously on the
// goroutine that mutated the grid, after the mutation is complete.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Subscribe registers l for every change notification and returns a
// function that removes it again.
func (g *Grid) Subscribe(l Listener) func() {
	g.nextListener++
	id := g.nextListener
	g.listeners = append(g.listeners, subscription{id: id, fn: l})

	return func() {
		for i, s := range g.listeners {
			if s.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Grid) emit(events ...Event) {
	if len(g.listeners) == 0 {
		return
	}
	// Listeners may subscribe or unsubscribe while being notified
	listeners := append([]subscription(nil), g.listeners...)
	for _, e := range events {
		for _, s := range listeners {
			s.fn(e)
		}
	}
}
