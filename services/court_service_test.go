package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

func TestAllocateMutualExclusion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Open", Format: models.FormatKnockout, IsActive: true,
	})
	court := env.store.SeedCourt(&models.Court{Number: 1, IsAvailable: true})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		claimed  int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
				_, err := env.courts.Allocate(ctx, exec, tournament.ID, 0)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				claimed++
			case errors.Is(err, ErrNoCourtAvailable):
				rejected++
			default:
				t.Errorf("unexpected allocation error: %v", err)
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Fatalf("expected exactly one winner for court %d, got %d", court.ID, claimed)
	}
	if rejected != 7 {
		t.Fatalf("expected 7 rejections, got %d", rejected)
	}
	if env.court(t, court.ID).IsAvailable {
		t.Error("court should be occupied")
	}
}

func TestAllocateSkipsCourtsHeldByActiveMatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Open", Format: models.FormatKnockout, IsActive: true,
	})
	teamA, _ := env.seedTeam("A", 1)
	teamB, _ := env.seedTeam("B", 1)

	// The availability flag says free, but an active match still holds
	// the court: the allocator must not double-book it.
	court := env.store.SeedCourt(&models.Court{Number: 1, IsAvailable: true})
	holder := env.store.SeedMatch(&models.Match{
		TournamentID: tournament.ID,
		Team1ID:      teamA.ID,
		Team2ID:      teamB.ID,
		Status:       models.MatchStatusActive,
		CourtID:      &court.ID,
	})

	err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := env.courts.Allocate(ctx, exec, tournament.ID, 0)
		return err
	})
	if !errors.Is(err, ErrNoCourtAvailable) {
		t.Fatalf("expected ErrNoCourtAvailable, got %v", err)
	}

	// The holding match itself is excluded from the busy check, so it can
	// reclaim its own court.
	err = env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		allocated, err := env.courts.Allocate(ctx, exec, tournament.ID, holder.ID)
		if err != nil {
			return err
		}
		if allocated.ID != court.ID {
			t.Errorf("expected court %d, got %d", court.ID, allocated.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("allocation excluding the holder failed: %v", err)
	}
}

func TestAllocateHonoursTournamentCourtList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Open", Format: models.FormatKnockout, IsActive: true,
	})
	general := env.store.SeedCourt(&models.Court{Number: 1, IsAvailable: true})
	reserved := env.store.SeedCourt(&models.Court{Number: 2, IsAvailable: true})
	env.store.ReserveCourt(tournament.ID, reserved.ID)

	err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		allocated, err := env.courts.Allocate(ctx, exec, tournament.ID, 0)
		if err != nil {
			return err
		}
		if allocated.ID != reserved.ID {
			t.Errorf("expected reserved court %d, got %d", reserved.ID, allocated.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if !env.court(t, general.ID).IsAvailable {
		t.Error("the unreserved court must not be touched")
	}
}

func TestReleaseAndReassign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Open", Format: models.FormatKnockout, IsActive: true,
	})
	teamA, _ := env.seedTeam("A", 1)
	teamB, _ := env.seedTeam("B", 1)
	court := env.store.SeedCourt(&models.Court{Number: 1, IsAvailable: false})

	// Nothing waiting: the court goes back to the pool.
	reassigned, err := env.courts.ReleaseAndReassign(ctx, tournament.ID, court.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if reassigned != nil {
		t.Fatalf("expected no reassignment, got match %d", reassigned.ID)
	}
	if !env.court(t, court.ID).IsAvailable {
		t.Error("court should be available again")
	}

	// With a match waiting, the court moves straight to it.
	waiting := env.store.SeedMatch(&models.Match{
		TournamentID:    tournament.ID,
		Team1ID:         teamA.ID,
		Team2ID:         teamB.ID,
		Status:          models.MatchStatusPendingVerification,
		WaitingForCourt: true,
	})
	err = env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		ok, err := env.store.Courts().TryOccupy(ctx, exec, court.ID)
		if err != nil || !ok {
			t.Fatalf("failed to occupy court: ok=%v err=%v", ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	reassigned, err = env.courts.ReleaseAndReassign(ctx, tournament.ID, court.ID)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if reassigned == nil || reassigned.ID != waiting.ID {
		t.Fatalf("expected match %d to take the court, got %v", waiting.ID, reassigned)
	}
	if reassigned.Status != models.MatchStatusActive {
		t.Fatalf("reassigned match should be active, got %q", reassigned.Status)
	}
	if env.court(t, court.ID).IsAvailable {
		t.Error("court should stay occupied through the handoff")
	}
}
