package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnaher0/taskboard/database"
	"github.com/krishnaher0/taskboard/handlers"
	"github.com/krishnaher0/taskboard/services"
)

// countingTransport counts round trips so tests can assert that no-op
// operations never reach the network.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return t.next.RoundTrip(req)
}

func (t *countingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *captureNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// newTestController stands up a real server (handlers over an in-memory
// database) and returns a loaded controller for a fresh board.
func newTestController(t *testing.T) (*Controller, *countingTransport, *captureNotifier) {
	t.Helper()

	db, err := database.InitDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	authService := services.NewAuthService()
	boardService := database.NewBoardService(db)
	boardHandler := handlers.NewBoardHandler(boardService, nil)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}", boardHandler.GetBoard).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns", boardHandler.AddColumn).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}", boardHandler.RenameColumn).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}", boardHandler.DeleteColumn).Methods("DELETE")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards", boardHandler.AddCard).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}", boardHandler.UpdateCard).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}", boardHandler.DeleteCard).Methods("DELETE")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/cards/move", boardHandler.MoveCard).Methods("PUT")
	api.HandleFunc("/workspaces/{workspaceId}/boards/{boardId}/columns/{columnId}/cards/{cardId}/comments", boardHandler.AddComment).Methods("POST")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	email := "dev@example.com"
	ws, err := boardService.CreateWorkspace(email, "W", "", "")
	require.NoError(t, err)
	board, err := boardService.CreateBoard(ws.ID, "B", "", "")
	require.NoError(t, err)

	token, err := authService.CreateJWT(email)
	require.NoError(t, err)

	api2 := NewAPI(server.URL, token)
	transport := &countingTransport{next: http.DefaultTransport}
	api2.HTTPClient = &http.Client{Transport: transport}

	notifier := &captureNotifier{}
	c := NewController(api2, ws.ID, board.ID)
	c.SetNotifier(notifier)
	require.NoError(t, c.Load())

	return c, transport, notifier
}

// column finds a column by title in the controller's current board.
func column(t *testing.T, c *Controller, title string) *database.Column {
	t.Helper()
	board := c.Board()
	for i := range board.Columns {
		if board.Columns[i].Title == title {
			return &board.Columns[i]
		}
	}
	t.Fatalf("column %q not found", title)
	return nil
}

func titles(col *database.Column) []string {
	out := make([]string, len(col.Cards))
	for i, card := range col.Cards {
		out[i] = card.Title
	}
	return out
}

func TestLoadEmptyBoard(t *testing.T) {
	c, _, _ := newTestController(t)

	board := c.Board()
	require.NotNil(t, board)
	assert.Empty(t, board.Columns)
}

func TestAddColumnAndCardReplaceState(t *testing.T) {
	c, _, notifier := newTestController(t)

	require.NoError(t, c.AddColumn("To Do"))
	require.Len(t, c.Board().Columns, 1)

	col := column(t, c, "To Do")
	require.NoError(t, c.AddCard(col.ID, "task one"))
	require.NoError(t, c.AddCard(col.ID, "task two"))

	col = column(t, c, "To Do")
	assert.Equal(t, []string{"task one", "task two"}, titles(col))
	assert.Empty(t, notifier.all())
}

func TestBlankTitlesNeverHitTheNetwork(t *testing.T) {
	c, transport, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colID := column(t, c, "A").ID
	before := transport.count()

	require.NoError(t, c.AddColumn("   "))
	require.NoError(t, c.AddCard(colID, ""))
	require.NoError(t, c.RenameColumn(colID, " "))
	require.NoError(t, c.AddComment(colID, "whatever", "\t"))

	assert.Equal(t, before, transport.count(), "blank input must not issue a request")
}

func TestDragReorderWithinColumn(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	for _, title := range []string{"X", "Y", "Z"} {
		require.NoError(t, c.AddCard(colA.ID, title))
	}
	cardX := column(t, c, "A").Cards[0]

	// Drag X past Z. The insertion line shows at index 3 of the
	// pre-removal array; the drop must land at the line, not a slot later.
	require.NoError(t, c.DragStart(cardX.ID))
	c.DragOver(colA.ID, 3)

	colID, index, ok := c.DragTarget()
	require.True(t, ok)
	assert.Equal(t, colA.ID, colID)
	assert.Equal(t, 3, index)

	require.NoError(t, c.Drop())

	got := column(t, c, "A")
	assert.Equal(t, []string{"Y", "Z", "X"}, titles(got))
	for i, card := range got.Cards {
		assert.Equal(t, i, card.Position)
	}

	_, dragging := c.Dragging()
	assert.False(t, dragging, "drag state must be cleared after drop")
}

func TestDragMoveAcrossColumns(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	require.NoError(t, c.AddColumn("B"))
	colA, colB := column(t, c, "A"), column(t, c, "B")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	require.NoError(t, c.AddCard(colB.ID, "Y"))
	cardX := column(t, c, "A").Cards[0]

	require.NoError(t, c.DragStart(cardX.ID))
	c.DragOver(colB.ID, 0)
	require.NoError(t, c.Drop())

	assert.Empty(t, column(t, c, "A").Cards)
	assert.Equal(t, []string{"X", "Y"}, titles(column(t, c, "B")))
	assert.Equal(t, 1+1, len(column(t, c, "B").Cards)+len(column(t, c, "A").Cards),
		"a move must neither lose nor duplicate cards")
}

func TestDropWithoutTargetIsACancel(t *testing.T) {
	c, transport, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	cardX := column(t, c, "A").Cards[0]

	before := transport.count()
	require.NoError(t, c.DragStart(cardX.ID))
	require.NoError(t, c.Drop())

	assert.Equal(t, before, transport.count(), "a drop with no hover target is a cancel")
	assert.Equal(t, []string{"X"}, titles(column(t, c, "A")))
}

func TestDragEndClearsStateUnconditionally(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	cardX := column(t, c, "A").Cards[0]

	require.NoError(t, c.DragStart(cardX.ID))
	c.DragOver(colA.ID, 1)
	c.DragEnd()

	_, dragging := c.Dragging()
	assert.False(t, dragging)
	_, _, hovering := c.DragTarget()
	assert.False(t, hovering)

	// DragOver after the gesture ended is ignored.
	c.DragOver(colA.ID, 0)
	_, _, hovering = c.DragTarget()
	assert.False(t, hovering)
}

func TestDropIndexCorrection(t *testing.T) {
	tests := []struct {
		name string
		d    dragState
		want int
	}{
		{"same column, moving later", dragState{sourceColumnID: "A", hoverColumnID: "A", sourcePos: 0, hoverIndex: 3}, 2},
		{"same column, moving earlier", dragState{sourceColumnID: "A", hoverColumnID: "A", sourcePos: 2, hoverIndex: 0}, 0},
		{"same column, same slot", dragState{sourceColumnID: "A", hoverColumnID: "A", sourcePos: 1, hoverIndex: 1}, 1},
		{"different column", dragState{sourceColumnID: "A", hoverColumnID: "B", sourcePos: 0, hoverIndex: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.dropIndex())
		})
	}
}

func TestUpdateCardPartialFields(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	cardX := column(t, c, "A").Cards[0]

	labels := []database.Label{{Name: "backend", Color: "#00ff00"}}
	require.NoError(t, c.UpdateCard(colA.ID, cardX.ID, database.CardPatch{Labels: &labels}))

	done := true
	require.NoError(t, c.UpdateCard(colA.ID, cardX.ID, database.CardPatch{IsCompleted: &done}))

	got := column(t, c, "A").Cards[0]
	assert.True(t, got.IsCompleted)
	assert.Equal(t, labels, got.Labels, "completing the card must not clear labels")
}

func TestDeleteCardClosesOverlay(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	require.NoError(t, c.AddCard(colA.ID, "Y"))
	cards := column(t, c, "A").Cards

	c.OpenCard(cards[0].ID)
	open, ok := c.OpenCardID()
	require.True(t, ok)
	require.Equal(t, cards[0].ID, open)

	// Deleting another card leaves the overlay open.
	require.NoError(t, c.DeleteCard(colA.ID, cards[1].ID))
	_, ok = c.OpenCardID()
	assert.True(t, ok)

	require.NoError(t, c.DeleteCard(colA.ID, cards[0].ID))
	_, ok = c.OpenCardID()
	assert.False(t, ok, "deleting the open card must close its overlay")
}

func TestOpenCardUnknownIDIgnored(t *testing.T) {
	c, _, _ := newTestController(t)

	c.OpenCard("ghost")
	_, ok := c.OpenCardID()
	assert.False(t, ok)
}

func TestFailedLoadNotifies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := &captureNotifier{}
	c := NewController(NewAPI(server.URL, "token"), "w", "b")
	c.SetNotifier(notifier)

	require.Error(t, c.Load())

	msgs := notifier.all()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "load board failed"), "got %q", msgs[0])
	assert.Nil(t, c.Board())
}

func TestFailedMutationKeepsStateAndNotifies(t *testing.T) {
	c, _, notifier := newTestController(t)
	require.NoError(t, c.AddColumn("A"))

	err := c.AddCard("not-a-column", "task")
	require.Error(t, err)

	// Local state is untouched and the failure is surfaced.
	assert.Empty(t, column(t, c, "A").Cards)
	msgs := notifier.all()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "add card failed"), "got %q", msgs[0])
}

func TestAddComment(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	colA := column(t, c, "A")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	cardX := column(t, c, "A").Cards[0]

	require.NoError(t, c.AddComment(colA.ID, cardX.ID, "done"))

	comments := column(t, c, "A").Cards[0].Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "done", comments[0].Text)
	assert.Equal(t, "dev@example.com", comments[0].User)
	assert.False(t, comments[0].CreatedAt.IsZero())
}

func TestDeleteColumnRemovesItsCards(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.AddColumn("A"))
	require.NoError(t, c.AddColumn("B"))
	colA, colB := column(t, c, "A"), column(t, c, "B")
	require.NoError(t, c.AddCard(colA.ID, "X"))
	require.NoError(t, c.AddCard(colB.ID, "Y"))

	require.NoError(t, c.DeleteColumn(colA.ID))

	board := c.Board()
	require.Len(t, board.Columns, 1)
	assert.Equal(t, "B", board.Columns[0].Title)
	assert.Equal(t, 1, board.CardCount())
}

// encode/decode sanity for the wire shape of a move request
func TestMoveRequestWireShape(t *testing.T) {
	payload, err := json.Marshal(database.MoveRequest{
		CardID:         "c1",
		SourceColumnID: "a",
		DestColumnID:   "b",
		NewPosition:    2,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cardId":"c1","sourceColumnId":"a","destColumnId":"b","newPosition":2}`, string(payload))
}
