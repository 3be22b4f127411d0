package store

import "context"

// Store is the narrow persistence façade the engines depend on. It is
// assumed to be a slow, fallible key/value-like store, safe for
// concurrent use, with additive-per-key upserts.
type Store interface {
	GetPuzzle(ctx context.Context, date string) (*Puzzle, error)
	HasPuzzle(ctx context.Context, date string) (bool, error)

	GetState(ctx context.Context, date string) (*SharedState, error)
	UpsertCell(ctx context.Context, date string, row, col int, letter string) error
	UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error
	ClearState(ctx context.Context, date string) error
	GetCellFillers(ctx context.Context, date string) (map[CellKey]string, error)

	AddPoints(ctx context.Context, date, name string, delta int) error
	AddGuess(ctx context.Context, date, name string, correct bool) error

	GetTimer(ctx context.Context, date string) (int, error)
	SaveTimer(ctx context.Context, date string, seconds int) error

	GetUserColors(ctx context.Context, names []string) (map[string]string, error)

	GetRandomJeopardyGame(ctx context.Context) (*JeopardyGame, error)
	GetJeopardyGame(ctx context.Context, id string) (*JeopardyGame, error)
	SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, round string, completed bool) error
}
