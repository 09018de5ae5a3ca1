// Package client implements the board state controller used by taskboard
// front-ends: an in-memory board tree kept consistent with the server by
// replacing local state wholesale with the full board returned from every
// mutating call.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/krishnaher0/taskboard/database"
)

// API is a thin wrapper over the board REST endpoints. Every mutating call
// returns the complete board document echoed back by the server.
type API struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (a *API) do(method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (a *API) boardCall(method, path string, body any) (*database.Board, error) {
	var board database.Board
	if err := a.do(method, path, body, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func boardPath(workspaceID, boardID string) string {
	return fmt.Sprintf("/api/workspaces/%s/boards/%s", workspaceID, boardID)
}

// GetBoard fetches a board with its nested columns and cards.
func (a *API) GetBoard(workspaceID, boardID string) (*database.Board, error) {
	return a.boardCall("GET", boardPath(workspaceID, boardID), nil)
}

// GetWorkspace fetches a workspace.
func (a *API) GetWorkspace(workspaceID string) (*database.Workspace, error) {
	var ws database.Workspace
	if err := a.do("GET", "/api/workspaces/"+workspaceID, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (a *API) AddColumn(workspaceID, boardID, title string) (*database.Board, error) {
	return a.boardCall("POST", boardPath(workspaceID, boardID)+"/columns",
		map[string]string{"title": title})
}

func (a *API) RenameColumn(workspaceID, boardID, columnID, title string) (*database.Board, error) {
	return a.boardCall("PUT", boardPath(workspaceID, boardID)+"/columns/"+columnID,
		map[string]string{"title": title})
}

func (a *API) DeleteColumn(workspaceID, boardID, columnID string) (*database.Board, error) {
	return a.boardCall("DELETE", boardPath(workspaceID, boardID)+"/columns/"+columnID, nil)
}

func (a *API) AddCard(workspaceID, boardID, columnID, title string) (*database.Board, error) {
	return a.boardCall("POST", boardPath(workspaceID, boardID)+"/columns/"+columnID+"/cards",
		map[string]string{"title": title})
}

func (a *API) UpdateCard(workspaceID, boardID, columnID, cardID string, patch database.CardPatch) (*database.Board, error) {
	return a.boardCall("PUT", boardPath(workspaceID, boardID)+"/columns/"+columnID+"/cards/"+cardID, patch)
}

func (a *API) DeleteCard(workspaceID, boardID, columnID, cardID string) (*database.Board, error) {
	return a.boardCall("DELETE", boardPath(workspaceID, boardID)+"/columns/"+columnID+"/cards/"+cardID, nil)
}

func (a *API) MoveCard(workspaceID, boardID string, req database.MoveRequest) (*database.Board, error) {
	return a.boardCall("PUT", boardPath(workspaceID, boardID)+"/cards/move", req)
}

func (a *API) AddComment(workspaceID, boardID, columnID, cardID, text string) (*database.Board, error) {
	return a.boardCall("POST", boardPath(workspaceID, boardID)+"/columns/"+columnID+"/cards/"+cardID+"/comments",
		map[string]string{"text": text})
}
