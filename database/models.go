package database

import "time"

// Role of a collaborator within a workspace.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Workspace struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Color         string         `json:"color,omitempty"`
	Owner         string         `json:"owner"` // user email
	Collaborators []Collaborator `json:"collaborators"`
	InviteEnabled bool           `json:"inviteEnabled"`
	InviteCode    string         `json:"inviteCode,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type Collaborator struct {
	User string `json:"user"` // user email
	Role string `json:"role"`
}

type Board struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspaceId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Background  string   `json:"background,omitempty"`
	Columns     []Column `json:"columns"`
}

type Column struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
	Cards   []Card `json:"cards"`
}

type Card struct {
	ID          string          `json:"id"`
	ColumnID    string          `json:"columnId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Labels      []Label         `json:"labels,omitempty"`
	Assignees   []string        `json:"assignees,omitempty"` // user emails
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Comments    []Comment       `json:"comments,omitempty"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	IsCompleted bool            `json:"isCompleted"`
	Position    int             `json:"position"`
}

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ChecklistItem struct {
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

type Comment struct {
	User      string    `json:"user"` // author email
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CardPatch is a partial update to a card. Nil fields are left untouched,
// so updating a due date never clears labels and vice versa.
type CardPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Labels      *[]Label         `json:"labels,omitempty"`
	Assignees   *[]string        `json:"assignees,omitempty"`
	Checklist   *[]ChecklistItem `json:"checklist,omitempty"`
	StartDate   *time.Time       `json:"startDate,omitempty"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	IsCompleted *bool            `json:"isCompleted,omitempty"`
}

// MoveRequest relocates a card to a new column and/or position index.
type MoveRequest struct {
	CardID         string `json:"cardId"`
	SourceColumnID string `json:"sourceColumnId"`
	DestColumnID   string `json:"destColumnId"`
	NewPosition    int    `json:"newPosition"`
}
