package services

import (
	"context"
	"log/slog"

	"github.com/boulodrome/tournament-engine/models"
)

// RatingNotifier receives completed matches for an external rating
// system. Notification failures must never affect match completion, so
// implementations are called fire-and-forget.
type RatingNotifier interface {
	MatchCompleted(ctx context.Context, match *models.Match)
}

type loggingRatingNotifier struct {
	logger *slog.Logger
}

// NewLoggingRatingNotifier returns a notifier that only records the
// completion. It stands in until a real rating backend is connected.
func NewLoggingRatingNotifier(logger *slog.Logger) RatingNotifier {
	return &loggingRatingNotifier{logger: logger}
}

func (n *loggingRatingNotifier) MatchCompleted(ctx context.Context, match *models.Match) {
	n.logger.InfoContext(ctx, "match completed, rating update queued",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.Any("winner_team_id", match.WinnerTeamID),
	)
}
