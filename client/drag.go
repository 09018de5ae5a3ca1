package client

import "fmt"

// Drag gesture lifecycle. DragStart captures the dragged card and its source
// column; DragOver tracks the candidate drop target for the insertion
// indicator; Drop corrects the index and issues the move; DragEnd clears the
// transient state unconditionally, whether the gesture dropped or cancelled.

// DragStart begins a drag gesture for a card.
func (c *Controller) DragStart(cardID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	columnID, pos, ok := findCard(c.board, cardID)
	if !ok {
		return fmt.Errorf("card %s not on board", cardID)
	}
	c.drag = dragState{
		active:         true,
		cardID:         cardID,
		sourceColumnID: columnID,
		sourcePos:      pos,
	}
	return nil
}

// DragOver records the candidate destination column and insertion index.
// index is measured against the destination column's current card array,
// before the dragged card is removed from anywhere. No data mutation
// happens here; the target only drives the insertion-line indicator.
func (c *Controller) DragOver(columnID string, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.drag.active {
		return
	}
	c.drag.hoverColumnID = columnID
	c.drag.hoverIndex = index
	c.drag.hovering = true
}

// DragTarget reports the current insertion-indicator position.
func (c *Controller) DragTarget() (columnID string, index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.drag.active || !c.drag.hovering {
		return "", 0, false
	}
	return c.drag.hoverColumnID, c.drag.hoverIndex, true
}

// Dragging reports the card currently being dragged, if any.
func (c *Controller) Dragging() (cardID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.cardID, c.drag.active
}

// dropIndex corrects the hover index for the removal-then-insertion case.
// The indicator was computed against the pre-removal array, so when the
// card moves later within its own column, removing it first shifts every
// following card left by one. Without the decrement the drop would land one
// slot after the indicator.
func (d dragState) dropIndex() int {
	index := d.hoverIndex
	if d.hoverColumnID == d.sourceColumnID && d.sourcePos < index {
		index--
	}
	return index
}

// Drop completes the gesture: the corrected move is sent to the server and
// the returned board replaces local state. Dropping with no recorded target
// is a cancel. Drag state is cleared either way.
func (c *Controller) Drop() error {
	c.mu.Lock()
	d := c.drag
	c.drag = dragState{}
	c.mu.Unlock()

	if !d.active || !d.hovering {
		return nil
	}
	return c.MoveCard(d.cardID, d.sourceColumnID, d.hoverColumnID, d.dropIndex())
}

// DragEnd cancels the gesture and clears all drag tracking.
func (c *Controller) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drag = dragState{}
}
