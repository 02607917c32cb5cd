package grid

import "fmt"

// PlaceObject puts obj on an object layer with its top-left cell at (x,y),
// or moves it there if it is already placed. Missing object layers up to
// layer are created. It returns false without changing anything when
// another object holds a cell of the footprint.
func (g *Grid) PlaceObject(obj *Object, layer, x, y int, opts PlaceOptions) (bool, error) {
	if obj == nil {
		return false, fmt.Errorf("place object: object: %w", ErrMissingParameter)
	}
	if layer < 0 {
		return false, fmt.Errorf("place object on layer %d: %w", layer, ErrIndexOutOfRange)
	}
	if layer < len(g.layers) && g.layers[layer].Kind() != ObjectKind {
		return false, fmt.Errorf("place object on layer %d: %s layer: %w", layer, g.layers[layer].Kind(), ErrInvalidOperation)
	}

	w, h := obj.footprint()
	if err := g.checkBounds(x, y); err != nil {
		return false, fmt.Errorf("place object %s: %w", obj.ID, err)
	}
	if err := g.checkBounds(x+w-1, y+h-1); err != nil {
		return false, fmt.Errorf("place object %s: %w", obj.ID, err)
	}

	fromID, from, idx, placed := g.locate(obj)
	var prev placement
	if placed {
		prev = from.placements[idx]
	}
	if opts.Previous != nil {
		if !placed || prev.anchor != *opts.Previous || !from.holds(obj, prev) {
			return false, fmt.Errorf("place object %s: previous position (%d,%d): %w",
				obj.ID, opts.Previous.X, opts.Previous.Y, ErrNotFound)
		}
	}

	var events []Event
	for len(g.layers) <= layer {
		id := g.appendObjectLayer()
		events = append(events, Event{Type: EventLayerCreated, Layer: id, Kind: ObjectKind})
	}
	target := g.layers[layer].(*ObjectLayer)

	if target.hit(x, y, w, h, obj) {
		g.emit(events...)
		return false, nil
	}

	next := placement{obj: obj, anchor: Point{X: x, Y: y}, w: w, h: h}
	switch {
	case placed && fromID == layer:
		from.vacate(prev)
		from.placements[idx] = next
	case placed:
		from.vacate(prev)
		from.removeAt(idx)
		target.placements = append(target.placements, next)
	default:
		target.placements = append(target.placements, next)
	}
	target.fill(next)
	obj.X, obj.Y, obj.Layer = x, y, layer

	if !opts.SuppressEvent {
		if placed {
			previous := prev.anchor
			events = append(events, Event{Type: EventObjectMoved, Layer: layer, Point: next.anchor, Object: obj, Previous: &previous})
		} else {
			events = append(events, Event{Type: EventObjectPlaced, Layer: layer, Point: next.anchor, Object: obj})
		}
	}
	g.emit(events...)
	return true, nil
}

// RemoveObject clears the footprint of obj anchored at (x,y) and marks the
// object as unplaced.
func (g *Grid) RemoveObject(obj *Object, x, y int, suppressEvent bool) error {
	if obj == nil {
		return fmt.Errorf("remove object: object: %w", ErrMissingParameter)
	}

	layerID, layer, idx, placed := g.locate(obj)
	if !placed {
		return fmt.Errorf("remove object %s: not on any layer: %w", obj.ID, ErrNotFound)
	}
	p := layer.placements[idx]
	if p.anchor != (Point{X: x, Y: y}) || !layer.holds(obj, p) {
		return fmt.Errorf("remove object %s at (%d,%d): %w", obj.ID, x, y, ErrNotFound)
	}

	layer.vacate(p)
	layer.removeAt(idx)
	obj.X, obj.Y, obj.Layer = 0, 0, NoLayer

	if !suppressEvent {
		g.emit(Event{Type: EventObjectRemoved, Layer: layerID, Point: p.anchor, Object: obj})
	}
	return nil
}

// ObjectHitTest reports whether any cell of the w x h rectangle at (x,y) is
// held by an object other than ignore. Objects are compared by identity.
func (g *Grid) ObjectHitTest(layer, x, y, w, h int, ignore *Object) (bool, error) {
	ol, err := g.objectLayer(layer)
	if err != nil {
		return false, fmt.Errorf("hit test: %w", err)
	}
	return ol.hit(x, y, w, h, ignore), nil
}

// Objects returns the objects on an object layer in z-order
func (g *Grid) Objects(layer int) ([]*Object, error) {
	ol, err := g.objectLayer(layer)
	if err != nil {
		return nil, err
	}
	return ol.Objects(), nil
}

// locate finds the live placement of obj on the layer it claims to be on
func (g *Grid) locate(obj *Object) (int, *ObjectLayer, int, bool) {
	if obj.Layer < 0 || obj.Layer >= len(g.layers) {
		return NoLayer, nil, -1, false
	}
	ol, ok := g.layers[obj.Layer].(*ObjectLayer)
	if !ok {
		return NoLayer, nil, -1, false
	}
	idx := ol.indexOf(obj)
	if idx < 0 {
		return NoLayer, nil, -1, false
	}
	return obj.Layer, ol, idx, true
}
