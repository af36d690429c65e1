package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sketchmesh/sketchmesh/internal/board"
)

// ParticipantTableView renders the membership summary shown when a session
// ends.
func ParticipantTableView(selfID string, participants []board.Participant) string {
	if len(participants) == 0 {
		return MutedStyle.Render("No participants")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgHiCyan, text.Bold}
	t.AppendHeader(table.Row{"#", "Session", "Color", "Cursor"})

	for i, p := range participants {
		id := p.ID
		if p.ID == selfID {
			id += " (you)"
		}
		cursor := "-"
		if p.Cursor != nil {
			cursor = fmt.Sprintf("%.0f,%.0f", p.Cursor.X, p.Cursor.Y)
		}
		t.AppendRow(table.Row{i + 1, id, p.Color, cursor})
	}

	return t.Render()
}

// RenderParticipantTable outputs the table directly to stdout.
func RenderParticipantTable(selfID string, participants []board.Participant) {
	fmt.Println(ParticipantTableView(selfID, participants))
}
