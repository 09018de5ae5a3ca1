package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/krishnaher0/taskboard/database"
	"github.com/krishnaher0/taskboard/services"
)

// BoardHandler handles board, column and card endpoints. Every mutating
// endpoint responds with the complete board document, which is what lets
// clients replace their local state wholesale after each call.
type BoardHandler struct {
	boardService *database.BoardService
	hub          *services.Hub
}

func NewBoardHandler(boardService *database.BoardService, hub *services.Hub) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		hub:          hub,
	}
}

// writeBoard sends the full board as JSON and fans it out to websocket
// watchers when the request mutated it.
func (h *BoardHandler) writeBoard(w http.ResponseWriter, board *database.Board, mutated bool) {
	if mutated && h.hub != nil {
		h.hub.BroadcastBoard(board.WorkspaceID, board.ID, board)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(board)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrEmptyTitle), errors.Is(err, database.ErrEmptyText):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrInviteDisabled), errors.Is(err, database.ErrInvalidInvite):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, database.ErrWorkspaceNotFound),
		errors.Is(err, database.ErrBoardNotFound),
		errors.Is(err, database.ErrColumnNotFound),
		errors.Is(err, database.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("Error handling board request: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
	}
}

// authorize checks that the authenticated user is a collaborator of the
// workspace in the URL and returns their email.
func (h *BoardHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := requestEmail(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return "", false
	}
	ws, err := h.boardService.GetWorkspace(mux.Vars(r)["workspaceId"])
	if err != nil {
		writeError(w, err)
		return "", false
	}
	if !ws.IsCollaborator(email) {
		http.Error(w, "not a collaborator of this workspace", http.StatusForbidden)
		return "", false
	}
	return email, true
}

// GetBoard retrieves a board with its nested columns and cards
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	vars := mux.Vars(r)
	board, err := h.boardService.GetBoard(vars["workspaceId"], vars["boardId"])
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeBoard(w, board, false)
}

// ListBoards returns all boards of a workspace
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	boards, err := h.boardService.ListBoards(mux.Vars(r)["workspaceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(boards)
}

// CreateBoard creates an empty board in a workspace
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Background  string `json:"background"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	board, err := h.boardService.CreateBoard(mux.Vars(r)["workspaceId"], req.Title, req.Description, req.Background)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeBoard(w, board, false)
}

// UpdateBoard renames a board or changes its background
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Background  *string `json:"background"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	board, err := h.boardService.UpdateBoard(vars["workspaceId"], vars["boardId"], func(b *database.Board) error {
		if req.Title != nil {
			b.Title = *req.Title
		}
		if req.Description != nil {
			b.Description = *req.Description
		}
		if req.Background != nil {
			b.Background = *req.Background
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeBoard(w, board, true)
}

// DeleteBoard removes a board and cascades its columns and cards
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.boardService.DeleteBoard(vars["workspaceId"], vars["boardId"]); err != nil {
		writeError(w, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastBoardDeleted(vars["workspaceId"], vars["boardId"])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// mutateBoard runs a board mutation and responds with the full board
func (h *BoardHandler) mutateBoard(w http.ResponseWriter, r *http.Request, mutate func(*database.Board) error) {
	vars := mux.Vars(r)
	board, err := h.boardService.UpdateBoard(vars["workspaceId"], vars["boardId"], mutate)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeBoard(w, board, true)
}

// AddColumn appends a column to a board
func (h *BoardHandler) AddColumn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.AddColumn(req.Title)
	})
}

// RenameColumn sets a new title on a column
func (h *BoardHandler) RenameColumn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	columnID := mux.Vars(r)["columnId"]
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.RenameColumn(columnID, req.Title)
	})
}

// DeleteColumn removes a column and every card it contains
func (h *BoardHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	columnID := mux.Vars(r)["columnId"]
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.DeleteColumn(columnID)
	})
}

// AddCard appends a card to a column
func (h *BoardHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	columnID := mux.Vars(r)["columnId"]
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.AddCard(columnID, req.Title)
	})
}

// UpdateCard applies a partial update to a card
func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var patch database.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.UpdateCard(vars["columnId"], vars["cardId"], patch)
	})
}

// DeleteCard removes a single card
func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	vars := mux.Vars(r)
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.DeleteCard(vars["columnId"], vars["cardId"])
	})
}

// MoveCard relocates a card to a new column and/or position index
func (h *BoardHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	var req database.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.MoveCard(req)
	})
}

// AddComment appends a comment to a card, authored by the requesting user
func (h *BoardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	email, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	h.mutateBoard(w, r, func(b *database.Board) error {
		return b.AddComment(vars["columnId"], vars["cardId"], email, req.Text)
	})
}

// HandleWebSocket upgrades the connection and subscribes the client to one
// board's update stream
func (h *BoardHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	email, ok := h.authorize(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &services.Client{
		Hub:         h.hub,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Email:       email,
		WorkspaceID: vars["workspaceId"],
		BoardID:     vars["boardId"],
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s (board %s)", email, client.BoardID)

	go client.WritePump()
	go client.ReadPump()
}
