package theme

import "git.lost.host/meutraa/musicblocks/internal/game"

type Theme interface {
	RenderBlock(block *game.Block) string
	RenderNoteState(note game.NoteState) string
	RenderDangerLine(width int) string
	RenderLives(lives int) string
}
