package game

import (
	"context"

	"github.com/movingsummer/web06-CodeClash/domain"
)

// ProblemSource supplies each round's problem set. Fetching happens off the
// hub goroutine; the result re-enters the hub as a generation-guarded command.
type ProblemSource interface {
	RandomProblems(ctx context.Context, count int) ([]domain.Problem, error)
}
