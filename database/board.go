package database

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrCardNotFound   = errors.New("card not found")
	ErrEmptyTitle     = errors.New("title must not be empty")
	ErrEmptyText      = errors.New("text must not be empty")
)

// The mutation methods below are the authoritative ordering logic. Every
// method leaves card positions dense (0..n-1) within each affected column,
// so clients can always treat array index and position as interchangeable.

func (b *Board) findColumn(columnID string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == columnID {
			return &b.Columns[i]
		}
	}
	return nil
}

func (c *Column) findCard(cardID string) (int, *Card) {
	for i := range c.Cards {
		if c.Cards[i].ID == cardID {
			return i, &c.Cards[i]
		}
	}
	return -1, nil
}

// renumber rewrites card positions to match array order.
func (c *Column) renumber() {
	for i := range c.Cards {
		c.Cards[i].Position = i
		c.Cards[i].ColumnID = c.ID
	}
}

// AddColumn appends a new column with the given title.
func (b *Board) AddColumn(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	b.Columns = append(b.Columns, Column{
		ID:      uuid.NewString(),
		BoardID: b.ID,
		Title:   title,
		Cards:   []Card{},
	})
	return nil
}

// RenameColumn sets a new title on an existing column.
func (b *Board) RenameColumn(columnID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	col := b.findColumn(columnID)
	if col == nil {
		return ErrColumnNotFound
	}
	col.Title = title
	return nil
}

// DeleteColumn removes a column and every card it contains.
func (b *Board) DeleteColumn(columnID string) error {
	for i := range b.Columns {
		if b.Columns[i].ID == columnID {
			b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
			return nil
		}
	}
	return ErrColumnNotFound
}

// AddCard appends a card to the end of a column.
func (b *Board) AddCard(columnID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	col := b.findColumn(columnID)
	if col == nil {
		return ErrColumnNotFound
	}
	col.Cards = append(col.Cards, Card{
		ID:       uuid.NewString(),
		ColumnID: col.ID,
		Title:    title,
		Position: len(col.Cards),
	})
	return nil
}

// UpdateCard applies a partial patch to a card. Nil patch fields leave the
// existing values alone.
func (b *Board) UpdateCard(columnID, cardID string, patch CardPatch) error {
	col := b.findColumn(columnID)
	if col == nil {
		return ErrColumnNotFound
	}
	_, card := col.findCard(cardID)
	if card == nil {
		return ErrCardNotFound
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		card.Title = title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.Labels != nil {
		card.Labels = *patch.Labels
	}
	if patch.Assignees != nil {
		card.Assignees = *patch.Assignees
	}
	if patch.Checklist != nil {
		card.Checklist = *patch.Checklist
	}
	if patch.StartDate != nil {
		card.StartDate = patch.StartDate
	}
	if patch.DueDate != nil {
		card.DueDate = patch.DueDate
	}
	if patch.IsCompleted != nil {
		card.IsCompleted = *patch.IsCompleted
	}
	return nil
}

// DeleteCard removes a single card from its column.
func (b *Board) DeleteCard(columnID, cardID string) error {
	col := b.findColumn(columnID)
	if col == nil {
		return ErrColumnNotFound
	}
	idx, card := col.findCard(cardID)
	if card == nil {
		return ErrCardNotFound
	}
	col.Cards = append(col.Cards[:idx], col.Cards[idx+1:]...)
	col.renumber()
	return nil
}

// MoveCard removes the card from its source column and inserts it into the
// destination column at newPosition. The index is clamped to the destination
// length after removal, then both columns are renumbered so positions stay
// dense. Moving within one column works the same way: remove first, then
// insert into the shortened slice.
func (b *Board) MoveCard(req MoveRequest) error {
	src := b.findColumn(req.SourceColumnID)
	if src == nil {
		return ErrColumnNotFound
	}
	dst := b.findColumn(req.DestColumnID)
	if dst == nil {
		return ErrColumnNotFound
	}
	idx, card := src.findCard(req.CardID)
	if card == nil {
		return ErrCardNotFound
	}

	moved := *card
	src.Cards = append(src.Cards[:idx], src.Cards[idx+1:]...)

	pos := req.NewPosition
	if pos < 0 {
		pos = 0
	}
	if pos > len(dst.Cards) {
		pos = len(dst.Cards)
	}

	dst.Cards = append(dst.Cards, Card{})
	copy(dst.Cards[pos+1:], dst.Cards[pos:])
	dst.Cards[pos] = moved

	src.renumber()
	dst.renumber()
	return nil
}

// AddComment appends a comment authored by user to a card.
func (b *Board) AddComment(columnID, cardID, user, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	col := b.findColumn(columnID)
	if col == nil {
		return ErrColumnNotFound
	}
	_, card := col.findCard(cardID)
	if card == nil {
		return ErrCardNotFound
	}
	card.Comments = append(card.Comments, Comment{
		User:      user,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// CardCount returns the total number of cards across all columns.
func (b *Board) CardCount() int {
	n := 0
	for i := range b.Columns {
		n += len(b.Columns[i].Cards)
	}
	return n
}
