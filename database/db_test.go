package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *BoardService {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	// A second pooled connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return NewBoardService(db)
}

func TestCreateAndGetWorkspace(t *testing.T) {
	s := newTestService(t)

	ws, err := s.CreateWorkspace("owner@example.com", "Client Projects", "quarter work", "#336699")
	require.NoError(t, err)
	require.NotEmpty(t, ws.ID)

	got, err := s.GetWorkspace(ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Client Projects", got.Title)
	assert.Equal(t, "owner@example.com", got.Owner)
	require.Len(t, got.Collaborators, 1)
	assert.Equal(t, RoleOwner, got.Collaborators[0].Role)
	assert.False(t, got.InviteEnabled)

	_, err = s.GetWorkspace("nope")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestCreateWorkspaceBlankTitle(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateWorkspace("owner@example.com", "  ", "", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestCollaborators(t *testing.T) {
	s := newTestService(t)
	ws, err := s.CreateWorkspace("owner@example.com", "W", "", "")
	require.NoError(t, err)

	got, err := s.AddCollaborator(ws.ID, "dev@example.com", RoleEditor)
	require.NoError(t, err)
	require.Len(t, got.Collaborators, 2)
	assert.True(t, got.IsCollaborator("dev@example.com"))

	// Re-adding changes the role instead of duplicating the entry.
	got, err = s.AddCollaborator(ws.ID, "dev@example.com", RoleViewer)
	require.NoError(t, err)
	require.Len(t, got.Collaborators, 2)
	assert.Equal(t, RoleViewer, got.Collaborators[1].Role)

	_, err = s.AddCollaborator(ws.ID, "dev@example.com", "admin")
	assert.Error(t, err, "unknown roles are rejected")

	got, err = s.RemoveCollaborator(ws.ID, "dev@example.com")
	require.NoError(t, err)
	assert.False(t, got.IsCollaborator("dev@example.com"))

	_, err = s.RemoveCollaborator(ws.ID, "owner@example.com")
	assert.Error(t, err, "the owner cannot be removed")

	_, err = s.RemoveCollaborator(ws.ID, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotCollaborator)
}

func TestInviteLifecycle(t *testing.T) {
	s := newTestService(t)
	ws, err := s.CreateWorkspace("owner@example.com", "W", "", "")
	require.NoError(t, err)

	_, err = s.JoinByInviteCode(ws.ID, "anything", "dev@example.com")
	assert.ErrorIs(t, err, ErrInviteDisabled)

	enabled, err := s.SetInviteEnabled(ws.ID, true)
	require.NoError(t, err)
	require.True(t, enabled.InviteEnabled)
	require.NotEmpty(t, enabled.InviteCode)

	_, err = s.JoinByInviteCode(ws.ID, "wrong", "dev@example.com")
	assert.ErrorIs(t, err, ErrInvalidInvite)

	joined, err := s.JoinByInviteCode(ws.ID, enabled.InviteCode, "dev@example.com")
	require.NoError(t, err)
	assert.True(t, joined.IsCollaborator("dev@example.com"))

	// Disabling clears the code so old links stop working.
	disabled, err := s.SetInviteEnabled(ws.ID, false)
	require.NoError(t, err)
	assert.Empty(t, disabled.InviteCode)

	_, err = s.JoinByInviteCode(ws.ID, enabled.InviteCode, "late@example.com")
	assert.ErrorIs(t, err, ErrInviteDisabled)
}

func TestBoardLifecycle(t *testing.T) {
	s := newTestService(t)
	ws, err := s.CreateWorkspace("owner@example.com", "W", "", "")
	require.NoError(t, err)

	board, err := s.CreateBoard(ws.ID, "Sprint 12", "", "#eeeeee")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, board.WorkspaceID)
	assert.Empty(t, board.Columns, "new boards start with zero columns")

	_, err = s.CreateBoard("nope", "X", "", "")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)

	boards, err := s.ListBoards(ws.ID)
	require.NoError(t, err)
	require.Len(t, boards, 1)

	updated, err := s.UpdateBoard(ws.ID, board.ID, func(b *Board) error {
		if err := b.AddColumn("To Do"); err != nil {
			return err
		}
		return b.AddCard(b.Columns[0].ID, "write proposal")
	})
	require.NoError(t, err)
	require.Len(t, updated.Columns, 1)
	require.Len(t, updated.Columns[0].Cards, 1)

	// The mutation is persisted, not just returned.
	got, err := s.GetBoard(ws.ID, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "write proposal", got.Columns[0].Cards[0].Title)

	require.NoError(t, s.DeleteBoard(ws.ID, board.ID))
	_, err = s.GetBoard(ws.ID, board.ID)
	assert.ErrorIs(t, err, ErrBoardNotFound)
	assert.ErrorIs(t, s.DeleteBoard(ws.ID, board.ID), ErrBoardNotFound)
}

func TestUpdateBoardMutationErrorRollsBack(t *testing.T) {
	s := newTestService(t)
	ws, err := s.CreateWorkspace("owner@example.com", "W", "", "")
	require.NoError(t, err)
	board, err := s.CreateBoard(ws.ID, "B", "", "")
	require.NoError(t, err)

	_, err = s.UpdateBoard(ws.ID, board.ID, func(b *Board) error {
		if err := b.AddColumn("half-done"); err != nil {
			return err
		}
		return b.AddCard("missing", "x")
	})
	require.Error(t, err)

	got, err := s.GetBoard(ws.ID, board.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Columns, "failed mutations must leave the stored board untouched")
}
