package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrBoardNotFound     = errors.New("board not found")
	ErrNotCollaborator   = errors.New("user is not a collaborator")
	ErrInviteDisabled    = errors.New("invites are disabled for this workspace")
	ErrInvalidInvite     = errors.New("invalid invite code")
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create users table
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	// Workspaces and boards are stored as JSON documents. Every mutating
	// endpoint responds with the complete board, so the document is always
	// read and written whole.
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspaces table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS boards (
		id TEXT NOT NULL,
		workspace_id TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (workspace_id, id),
		FOREIGN KEY (workspace_id) REFERENCES workspaces(id)
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create boards table: %w", err)
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// BoardService handles database operations for workspaces and boards
type BoardService struct {
	db *sql.DB
}

func NewBoardService(db *sql.DB) *BoardService {
	return &BoardService{db: db}
}

// EnsureUser creates the user row if it does not exist yet.
func (s *BoardService) EnsureUser(email string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO users (email) VALUES (?)", email)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// CreateWorkspace creates a workspace owned by the given user.
func (s *BoardService) CreateWorkspace(owner, title, description, color string) (*Workspace, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	ws := &Workspace{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Color:       color,
		Owner:       owner,
		Collaborators: []Collaborator{
			{User: owner, Role: RoleOwner},
		},
		InviteEnabled: false,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.saveWorkspace(s.db, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *BoardService) saveWorkspace(ex execer, ws *Workspace) error {
	doc, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	_, err = ex.Exec(`
		INSERT INTO workspaces (id, doc, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			doc = ?,
			updated_at = CURRENT_TIMESTAMP
	`, ws.ID, string(doc), string(doc))
	if err != nil {
		return fmt.Errorf("failed to upsert workspace: %w", err)
	}
	return nil
}

func (s *BoardService) getWorkspace(ex execer, workspaceID string) (*Workspace, error) {
	row := ex.QueryRow("SELECT doc FROM workspaces WHERE id = ?", workspaceID)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query workspace: %w", err)
	}

	var ws Workspace
	if err := json.Unmarshal([]byte(doc), &ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return &ws, nil
}

// GetWorkspace retrieves a workspace by ID.
func (s *BoardService) GetWorkspace(workspaceID string) (*Workspace, error) {
	return s.getWorkspace(s.db, workspaceID)
}

// IsCollaborator reports whether email has any role in the workspace.
func (ws *Workspace) IsCollaborator(email string) bool {
	for _, c := range ws.Collaborators {
		if c.User == email {
			return true
		}
	}
	return false
}

// UpdateWorkspace applies a mutation to a workspace inside a transaction.
func (s *BoardService) UpdateWorkspace(workspaceID string, mutate func(*Workspace) error) (*Workspace, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ws, err := s.getWorkspace(tx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := mutate(ws); err != nil {
		return nil, err
	}
	if err := s.saveWorkspace(tx, ws); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ws, nil
}

// AddCollaborator grants email the given role in the workspace.
func (s *BoardService) AddCollaborator(workspaceID, email, role string) (*Workspace, error) {
	if role != RoleEditor && role != RoleViewer {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	return s.UpdateWorkspace(workspaceID, func(ws *Workspace) error {
		for i, c := range ws.Collaborators {
			if c.User == email {
				ws.Collaborators[i].Role = role
				return nil
			}
		}
		ws.Collaborators = append(ws.Collaborators, Collaborator{User: email, Role: role})
		return nil
	})
}

// RemoveCollaborator revokes email's access. The owner cannot be removed.
func (s *BoardService) RemoveCollaborator(workspaceID, email string) (*Workspace, error) {
	return s.UpdateWorkspace(workspaceID, func(ws *Workspace) error {
		if ws.Owner == email {
			return errors.New("cannot remove the workspace owner")
		}
		for i, c := range ws.Collaborators {
			if c.User == email {
				ws.Collaborators = append(ws.Collaborators[:i], ws.Collaborators[i+1:]...)
				return nil
			}
		}
		return ErrNotCollaborator
	})
}

// SetInviteEnabled toggles invite-by-code. Enabling generates a fresh code;
// disabling clears it so old links stop working.
func (s *BoardService) SetInviteEnabled(workspaceID string, enabled bool) (*Workspace, error) {
	return s.UpdateWorkspace(workspaceID, func(ws *Workspace) error {
		ws.InviteEnabled = enabled
		if enabled {
			ws.InviteCode = uuid.NewString()
		} else {
			ws.InviteCode = ""
		}
		return nil
	})
}

// JoinByInviteCode adds email as an editor if the code matches.
func (s *BoardService) JoinByInviteCode(workspaceID, code, email string) (*Workspace, error) {
	return s.UpdateWorkspace(workspaceID, func(ws *Workspace) error {
		if !ws.InviteEnabled || ws.InviteCode == "" {
			return ErrInviteDisabled
		}
		if ws.InviteCode != code {
			return ErrInvalidInvite
		}
		if ws.IsCollaborator(email) {
			return nil
		}
		ws.Collaborators = append(ws.Collaborators, Collaborator{User: email, Role: RoleEditor})
		return nil
	})
}

// CreateBoard creates an empty board in a workspace.
func (s *BoardService) CreateBoard(workspaceID, title, description, background string) (*Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if _, err := s.getWorkspace(s.db, workspaceID); err != nil {
		return nil, err
	}
	board := &Board{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: description,
		Background:  background,
		Columns:     []Column{},
	}
	if err := s.saveBoard(s.db, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) saveBoard(ex execer, board *Board) error {
	doc, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	_, err = ex.Exec(`
		INSERT INTO boards (id, workspace_id, doc, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(workspace_id, id) DO UPDATE SET
			doc = ?,
			updated_at = CURRENT_TIMESTAMP
	`, board.ID, board.WorkspaceID, string(doc), string(doc))
	if err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}
	return nil
}

func (s *BoardService) getBoard(ex execer, workspaceID, boardID string) (*Board, error) {
	row := ex.QueryRow("SELECT doc FROM boards WHERE workspace_id = ? AND id = ?", workspaceID, boardID)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query board: %w", err)
	}

	var board Board
	if err := json.Unmarshal([]byte(doc), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	return &board, nil
}

// GetBoard retrieves a board with its nested columns and cards.
func (s *BoardService) GetBoard(workspaceID, boardID string) (*Board, error) {
	return s.getBoard(s.db, workspaceID, boardID)
}

// ListBoards returns all boards belonging to a workspace.
func (s *BoardService) ListBoards(workspaceID string) ([]*Board, error) {
	rows, err := s.db.Query("SELECT doc FROM boards WHERE workspace_id = ? ORDER BY updated_at", workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	boards := []*Board{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		var board Board
		if err := json.Unmarshal([]byte(doc), &board); err != nil {
			return nil, fmt.Errorf("failed to unmarshal board: %w", err)
		}
		boards = append(boards, &board)
	}
	return boards, rows.Err()
}

// UpdateBoard applies a mutation to a board inside a transaction and returns
// the full updated board. Every card mutation in the API goes through here,
// which is what makes the "respond with the complete board" contract cheap
// to uphold.
func (s *BoardService) UpdateBoard(workspaceID, boardID string, mutate func(*Board) error) (*Board, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	board, err := s.getBoard(tx, workspaceID, boardID)
	if err != nil {
		return nil, err
	}
	if err := mutate(board); err != nil {
		return nil, err
	}
	if err := s.saveBoard(tx, board); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return board, nil
}

// DeleteBoard removes a board and, with it, all of its columns and cards.
func (s *BoardService) DeleteBoard(workspaceID, boardID string) error {
	res, err := s.db.Exec("DELETE FROM boards WHERE workspace_id = ? AND id = ?", workspaceID, boardID)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrBoardNotFound
	}
	return nil
}
