package client

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/krishnaher0/taskboard/database"
)

// Notifier receives user-facing failure messages. Board mutations must not
// fail silently; a view wires this to its toast surface.
type Notifier interface {
	Notify(message string)
}

// LogNotifier is the default Notifier, writing to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) {
	log.Printf("board: %s", message)
}

// Controller owns one board's client-side state. It holds no authoritative
// data: after every mutation the server's full board response replaces the
// local tree wholesale, so client and server orderings can never diverge.
//
// Mutations are serialized by the controller's lock. Two UI affordances
// firing at once therefore apply in a defined order instead of racing to a
// "last response wins" state replace.
type Controller struct {
	api         *API
	workspaceID string
	boardID     string
	notifier    Notifier

	mu      sync.Mutex
	board   *database.Board
	drag    dragState
	overlay string // card ID of the open detail overlay, "" when closed
}

// dragState is the transient drag-gesture tracking. It is cosmetic only:
// nothing here mutates the board tree, and it is cleared unconditionally
// when the gesture ends.
type dragState struct {
	active         bool
	cardID         string
	sourceColumnID string
	sourcePos      int
	hoverColumnID  string
	hoverIndex     int
	hovering       bool
}

func NewController(api *API, workspaceID, boardID string) *Controller {
	return &Controller{
		api:         api,
		workspaceID: workspaceID,
		boardID:     boardID,
		notifier:    LogNotifier{},
	}
}

// SetNotifier replaces the failure sink. A nil notifier restores the default.
func (c *Controller) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		n = LogNotifier{}
	}
	c.notifier = n
}

// Load fetches the board from the server. A failed load is surfaced through
// the notifier like any other failed operation.
func (c *Controller) Load() error {
	board, err := c.api.GetBoard(c.workspaceID, c.boardID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.notifier.Notify(fmt.Sprintf("load board failed: %v", err))
		return fmt.Errorf("failed to load board: %w", err)
	}
	c.replace(board)
	return nil
}

// Board returns the current board tree. Callers must treat it as read-only;
// all edits go through the controller's operations.
func (c *Controller) Board() *database.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// replace adopts the server's board wholesale. If the open detail overlay
// points at a card the new tree no longer contains, the overlay closes.
func (c *Controller) replace(board *database.Board) {
	c.board = board
	if c.overlay != "" {
		if _, _, ok := findCard(board, c.overlay); !ok {
			c.overlay = ""
		}
	}
}

func findCard(board *database.Board, cardID string) (columnID string, pos int, ok bool) {
	if board == nil {
		return "", 0, false
	}
	for i := range board.Columns {
		for j := range board.Columns[i].Cards {
			if board.Columns[i].Cards[j].ID == cardID {
				return board.Columns[i].ID, j, true
			}
		}
	}
	return "", 0, false
}

// mutate runs a mutating API call under the lock and replaces local state
// with the returned board. On failure the local view keeps its pre-call
// state and the error is surfaced through the notifier.
func (c *Controller) mutate(what string, call func() (*database.Board, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	board, err := call()
	if err != nil {
		c.notifier.Notify(fmt.Sprintf("%s failed: %v", what, err))
		return err
	}
	c.replace(board)
	return nil
}

// AddColumn appends a column. A blank title is a no-op: no network call is
// issued.
func (c *Controller) AddColumn(title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	return c.mutate("add column", func() (*database.Board, error) {
		return c.api.AddColumn(c.workspaceID, c.boardID, title)
	})
}

// RenameColumn commits a new column title. Views call this on blur or Enter;
// an escaped edit simply never calls it.
func (c *Controller) RenameColumn(columnID, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	return c.mutate("rename column", func() (*database.Board, error) {
		return c.api.RenameColumn(c.workspaceID, c.boardID, columnID, title)
	})
}

// DeleteColumn removes a column and all of its cards. Destructive and
// without undo; the view confirms with the user before calling.
func (c *Controller) DeleteColumn(columnID string) error {
	return c.mutate("delete column", func() (*database.Board, error) {
		return c.api.DeleteColumn(c.workspaceID, c.boardID, columnID)
	})
}

// AddCard appends a card to a column. A blank title is a no-op.
func (c *Controller) AddCard(columnID, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	return c.mutate("add card", func() (*database.Board, error) {
		return c.api.AddCard(c.workspaceID, c.boardID, columnID, title)
	})
}

// UpdateCard applies a partial patch to a card. Each field edit saves
// individually, so partial edits persist even if the overlay closes mid-edit.
func (c *Controller) UpdateCard(columnID, cardID string, patch database.CardPatch) error {
	return c.mutate("update card", func() (*database.Board, error) {
		return c.api.UpdateCard(c.workspaceID, c.boardID, columnID, cardID, patch)
	})
}

// DeleteCard removes a card and closes its detail overlay if open.
func (c *Controller) DeleteCard(columnID, cardID string) error {
	return c.mutate("delete card", func() (*database.Board, error) {
		return c.api.DeleteCard(c.workspaceID, c.boardID, columnID, cardID)
	})
}

// AddComment appends a comment to a card. Blank text is a no-op.
func (c *Controller) AddComment(columnID, cardID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.mutate("add comment", func() (*database.Board, error) {
		return c.api.AddComment(c.workspaceID, c.boardID, columnID, cardID, text)
	})
}

// MoveCard sends the move to the server and adopts the recomputed board.
// The client never splices the card locally; the server's array order is
// authoritative.
func (c *Controller) MoveCard(cardID, sourceColumnID, destColumnID string, newPosition int) error {
	return c.mutate("move card", func() (*database.Board, error) {
		return c.api.MoveCard(c.workspaceID, c.boardID, database.MoveRequest{
			CardID:         cardID,
			SourceColumnID: sourceColumnID,
			DestColumnID:   destColumnID,
			NewPosition:    newPosition,
		})
	})
}

// OpenCard opens the detail overlay for a card. Opening an unknown card is
// ignored.
func (c *Controller) OpenCard(cardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, ok := findCard(c.board, cardID); ok {
		c.overlay = cardID
	}
}

// CloseCard closes the detail overlay.
func (c *Controller) CloseCard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = ""
}

// OpenCardID reports the card whose detail overlay is open, if any.
func (c *Controller) OpenCardID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay, c.overlay != ""
}
