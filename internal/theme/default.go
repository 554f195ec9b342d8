package theme

import (
	"fmt"
	"image/color"
	"strings"

	"git.lost.host/meutraa/musicblocks/internal/game"
)

type DefaultTheme struct {
}

func (t *DefaultTheme) RenderBlock(block *game.Block) string {
	c := getStyleColor(block.Config.Name)
	label := block.Pitch.String()
	if p := block.Progress(); p > 0 {
		// Cracks show destruction progress
		switch {
		case p >= 0.75:
			label += " ⣿"
		case p >= 0.5:
			label += " ⣦"
		default:
			label += " ⣄"
		}
	}
	return fmt.Sprintf("\033[38;2;%v;%v;%vm▐%v▌\033[0m", c.R, c.G, c.B, label)
}

func (t *DefaultTheme) RenderNoteState(note game.NoteState) string {
	switch note.Feedback {
	case game.FeedbackCorrect:
		return fmt.Sprintf("\033[1;32m♪ %+.0f¢\033[0m", note.Deviation)
	case game.FeedbackWrong:
		return "\033[1;31m✗\033[0m"
	case game.FeedbackSuccess:
		return fmt.Sprintf("\033[1;33m%v ×%.1f\033[0m", note.Message, note.Multiplier)
	}
	return ""
}

func (t *DefaultTheme) RenderDangerLine(width int) string {
	return "\033[38;2;236;30;0m" + strings.Repeat("─", width) + "\033[0m"
}

func (t *DefaultTheme) RenderLives(lives int) string {
	if lives < 0 {
		lives = 0
	}
	return "\033[1;31m" + strings.Repeat("♥ ", lives) + "\033[0m"
}

var (
	styleColors = map[string]color.RGBA{
		"ghost":   {236, 30, 0, 255},    // red
		"ice":     {0, 118, 236, 255},   // blue
		"hard":    {106, 0, 236, 255},   // purple
		"gold":    {236, 195, 0, 255},   // yellow
		"default": {173, 236, 236, 255}, // light blue
		"":        {255, 255, 255, 255}, // other white
	}
)

func getStyleColor(style string) color.RGBA {
	col, ok := styleColors[style]
	if !ok {
		return styleColors[""]
	}
	return col
}
