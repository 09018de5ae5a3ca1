package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/krishnaher0/taskboard/database"
)

// WorkspaceHandler handles workspace and collaborator endpoints. Workspaces
// are never deleted through the API.
type WorkspaceHandler struct {
	boardService *database.BoardService
}

func NewWorkspaceHandler(boardService *database.BoardService) *WorkspaceHandler {
	return &WorkspaceHandler{boardService: boardService}
}

func (h *WorkspaceHandler) writeWorkspace(w http.ResponseWriter, ws *database.Workspace) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws)
}

// isOwner checks that the requesting user owns the workspace in the URL.
func (h *WorkspaceHandler) isOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
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
	if ws.Owner != email {
		http.Error(w, "only the workspace owner can do that", http.StatusForbidden)
		return "", false
	}
	return email, true
}

// CreateWorkspace creates a workspace owned by the requesting user
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	email, ok := requestEmail(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	ws, err := h.boardService.CreateWorkspace(email, req.Title, req.Description, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeWorkspace(w, ws)
}

// GetWorkspace retrieves a workspace the requesting user collaborates on
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	email, ok := requestEmail(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}
	ws, err := h.boardService.GetWorkspace(mux.Vars(r)["workspaceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ws.IsCollaborator(email) {
		http.Error(w, "not a collaborator of this workspace", http.StatusForbidden)
		return
	}
	h.writeWorkspace(w, ws)
}

// AddCollaborator grants a user a role in the workspace (owner only)
func (h *WorkspaceHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.isOwner(w, r); !ok {
		return
	}
	var req struct {
		User string `json:"user"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.User == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}
	ws, err := h.boardService.AddCollaborator(mux.Vars(r)["workspaceId"], req.User, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeWorkspace(w, ws)
}

// RemoveCollaborator revokes a user's access (owner only)
func (h *WorkspaceHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.isOwner(w, r); !ok {
		return
	}
	vars := mux.Vars(r)
	ws, err := h.boardService.RemoveCollaborator(vars["workspaceId"], vars["user"])
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeWorkspace(w, ws)
}

// SetInvite toggles invite-by-code for the workspace (owner only)
func (h *WorkspaceHandler) SetInvite(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.isOwner(w, r); !ok {
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	ws, err := h.boardService.SetInviteEnabled(mux.Vars(r)["workspaceId"], req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeWorkspace(w, ws)
}

// Join adds the requesting user as an editor when the invite code matches
func (h *WorkspaceHandler) Join(w http.ResponseWriter, r *http.Request) {
	email, ok := requestEmail(r)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}
	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	ws, err := h.boardService.JoinByInviteCode(mux.Vars(r)["workspaceId"], req.InviteCode, email)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeWorkspace(w, ws)
}
