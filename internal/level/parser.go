package level

import "git.lost.host/meutraa/musicblocks/internal/game"

type Parser interface {
	Parse(file string) (*game.Level, error)
}
