package repositories

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/boulodrome/tournament-engine/models"
)

// MemoryStore is an in-process implementation of every repository
// interface, used by the service tests. Each operation is atomic under
// the store mutex, so the compare-and-swap methods behave the same as
// their SQL counterparts under concurrent callers. Reads return copies,
// mirroring the row-scan behaviour of the Postgres repositories.
type MemoryStore struct {
	mu sync.Mutex

	teams           map[int]*models.Team
	players         map[int]*models.Player
	courts          map[int]*models.Court
	tournamentCourt map[int][]int
	tournaments     map[int]*models.Tournament
	tournamentTeams map[int]*models.TournamentTeam
	opponents       map[int]map[int]bool
	rounds          map[int]*models.Round
	stages          map[int]*models.Stage
	matches         map[int]*models.Match
	activations     map[int]*models.MatchActivation
	matchPlayers    map[int]*models.MatchPlayer
	results         map[int]*models.MatchResult

	nextID int
	clock  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:           make(map[int]*models.Team),
		players:         make(map[int]*models.Player),
		courts:          make(map[int]*models.Court),
		tournamentCourt: make(map[int][]int),
		tournaments:     make(map[int]*models.Tournament),
		tournamentTeams: make(map[int]*models.TournamentTeam),
		opponents:       make(map[int]map[int]bool),
		rounds:          make(map[int]*models.Round),
		stages:          make(map[int]*models.Stage),
		matches:         make(map[int]*models.Match),
		activations:     make(map[int]*models.MatchActivation),
		matchPlayers:    make(map[int]*models.MatchPlayer),
		results:         make(map[int]*models.MatchResult),
		nextID:          1,
	}
}

func (s *MemoryStore) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

// tick produces strictly increasing creation timestamps so that FIFO
// ordering by created_at is deterministic even within one test step.
func (s *MemoryStore) tick() time.Time {
	s.clock++
	return time.Unix(0, s.clock*int64(time.Millisecond))
}

type memExecutor struct{}

func (memExecutor) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (memExecutor) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (memExecutor) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

// WithinTx applies fn directly. Atomicity comes from the per-operation
// locking above, which is what the concurrency tests rely on; rollback
// on partial failure is not simulated.
func (s *MemoryStore) WithinTx(_ context.Context, fn func(exec SQLExecutor) error) error {
	return fn(memExecutor{})
}

// --- seeding helpers -------------------------------------------------

func (s *MemoryStore) SeedTeam(t *models.Team) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.allocID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.tick()
	}
	s.teams[t.ID] = cloneTeam(t)
	return t
}

func (s *MemoryStore) SeedPlayer(p *models.Player) *models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	}
	cp := *p
	s.players[p.ID] = &cp
	return p
}

func (s *MemoryStore) SeedCourt(c *models.Court) *models.Court {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.allocID()
	}
	cc := *c
	s.courts[c.ID] = &cc
	return c
}

func (s *MemoryStore) ReserveCourt(tournamentID, courtID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournamentCourt[tournamentID] = append(s.tournamentCourt[tournamentID], courtID)
}

func (s *MemoryStore) SeedTournament(t *models.Tournament) *models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.allocID()
	}
	if t.AutomationStatus == "" {
		t.AutomationStatus = models.AutomationIdle
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.tick()
	}
	s.tournaments[t.ID] = cloneTournament(t)
	return t
}

func (s *MemoryStore) SeedTournamentTeam(tt *models.TournamentTeam) *models.TournamentTeam {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tt.ID == 0 {
		tt.ID = s.allocID()
	}
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = s.tick()
	}
	s.tournamentTeams[tt.ID] = cloneTournamentTeam(tt)
	return tt
}

func (s *MemoryStore) SeedMatch(m *models.Match) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.allocID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.tick()
	}
	s.matches[m.ID] = cloneMatch(m)
	return m
}

func (s *MemoryStore) SeedStage(st *models.Stage) *models.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.allocID()
	}
	cs := *st
	s.stages[st.ID] = &cs
	return st
}

func (s *MemoryStore) SeedRound(r *models.Round) *models.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.allocID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.tick()
	}
	s.rounds[r.ID] = cloneRound(r)
	return r
}

// --- repository accessors --------------------------------------------

func (s *MemoryStore) Teams() TeamRepository                 { return memTeamRepo{s} }
func (s *MemoryStore) Courts() CourtRepository               { return memCourtRepo{s} }
func (s *MemoryStore) Tournaments() TournamentRepository     { return memTournamentRepo{s} }
func (s *MemoryStore) TournamentTeams() TournamentTeamRepository {
	return memTournamentTeamRepo{s}
}
func (s *MemoryStore) Rounds() RoundRepository               { return memRoundRepo{s} }
func (s *MemoryStore) Stages() StageRepository               { return memStageRepo{s} }
func (s *MemoryStore) Matches() MatchRepository              { return memMatchRepo{s} }
func (s *MemoryStore) Activations() MatchActivationRepository {
	return memActivationRepo{s}
}
func (s *MemoryStore) MatchPlayers() MatchPlayerRepository { return memMatchPlayerRepo{s} }
func (s *MemoryStore) Results() MatchResultRepository      { return memResultRepo{s} }

// --- teams ------------------------------------------------------------

type memTeamRepo struct{ s *MemoryStore }

func (r memTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return cloneTeam(t), nil
}

func (r memTeamRepo) ListPlayers(_ context.Context, teamID int) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	players := make([]*models.Player, 0)
	for _, p := range r.s.players {
		if p.TeamID == teamID {
			cp := *p
			players = append(players, &cp)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// --- courts -----------------------------------------------------------

type memCourtRepo struct{ s *MemoryStore }

func (r memCourtRepo) GetByID(_ context.Context, id int) (*models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[id]
	if !ok {
		return nil, ErrCourtNotFound
	}
	cc := *c
	return &cc, nil
}

func (r memCourtRepo) List(_ context.Context) ([]*models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(nil), nil
}

func (r memCourtRepo) ListForTournament(_ context.Context, tournamentID int) ([]*models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reserved := r.s.tournamentCourt[tournamentID]
	if len(reserved) == 0 {
		return r.listLocked(nil), nil
	}
	allowed := make(map[int]bool, len(reserved))
	for _, id := range reserved {
		allowed[id] = true
	}
	return r.listLocked(allowed), nil
}

func (r memCourtRepo) listLocked(allowed map[int]bool) []*models.Court {
	courts := make([]*models.Court, 0)
	for _, c := range r.s.courts {
		if allowed != nil && !allowed[c.ID] {
			continue
		}
		cc := *c
		courts = append(courts, &cc)
	}
	sort.Slice(courts, func(i, j int) bool { return courts[i].Number < courts[j].Number })
	return courts
}

func (r memCourtRepo) TryOccupy(_ context.Context, _ SQLExecutor, courtID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok || !c.IsAvailable {
		return false, nil
	}
	c.IsAvailable = false
	return true, nil
}

func (r memCourtRepo) Release(_ context.Context, _ SQLExecutor, courtID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok {
		return ErrCourtNotFound
	}
	c.IsAvailable = true
	return nil
}

// --- tournaments -------------------------------------------------------

type memTournamentRepo struct{ s *MemoryStore }

func (r memTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return cloneTournament(t), nil
}

func (r memTournamentRepo) List(_ context.Context, onlyActive bool) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tournaments := make([]*models.Tournament, 0)
	for _, t := range r.s.tournaments {
		if onlyActive && !t.IsActive {
			continue
		}
		tournaments = append(tournaments, cloneTournament(t))
	}
	sort.Slice(tournaments, func(i, j int) bool {
		return tournaments[i].StartDate.After(tournaments[j].StartDate)
	})
	return tournaments, nil
}

func (r memTournamentRepo) BeginAutomation(_ context.Context, _ SQLExecutor, id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return false, ErrTournamentNotFound
	}
	if t.AutomationStatus != models.AutomationIdle {
		return false, nil
	}
	t.AutomationStatus = models.AutomationProcessing
	return true, nil
}

func (r memTournamentRepo) SetAutomationStatus(_ context.Context, _ SQLExecutor, id int, status models.AutomationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.AutomationStatus = status
	return nil
}

func (r memTournamentRepo) SetCurrentRound(_ context.Context, _ SQLExecutor, id int, roundNumber int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.CurrentRoundNumber = roundNumber
	return nil
}

func (r memTournamentRepo) SetWinner(_ context.Context, _ SQLExecutor, id int, winnerTeamID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.WinnerTeamID = copyIntPtr(winnerTeamID)
	t.IsActive = false
	return nil
}

// --- tournament teams ---------------------------------------------------

type memTournamentTeamRepo struct{ s *MemoryStore }

func (r memTournamentTeamRepo) ListActive(_ context.Context, tournamentID int) ([]*models.TournamentTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(tournamentID, -1), nil
}

func (r memTournamentTeamRepo) ListActiveByStage(_ context.Context, tournamentID, stageNumber int) ([]*models.TournamentTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(tournamentID, stageNumber), nil
}

func (r memTournamentTeamRepo) listLocked(tournamentID, stageNumber int) []*models.TournamentTeam {
	entries := make([]*models.TournamentTeam, 0)
	for _, tt := range r.s.tournamentTeams {
		if tt.TournamentID != tournamentID || !tt.IsActive {
			continue
		}
		if stageNumber >= 0 && tt.CurrentStageNumber != stageNumber {
			continue
		}
		entries = append(entries, r.withRelationsLocked(tt))
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.SwissPoints != b.SwissPoints {
			return a.SwissPoints > b.SwissPoints
		}
		if a.BuchholzScore != b.BuchholzScore {
			return a.BuchholzScore > b.BuchholzScore
		}
		return a.ID < b.ID
	})
	return entries
}

func (r memTournamentTeamRepo) GetByTeam(_ context.Context, tournamentID, teamID int) (*models.TournamentTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tt := range r.s.tournamentTeams {
		if tt.TournamentID == tournamentID && tt.TeamID == teamID {
			return r.withRelationsLocked(tt), nil
		}
	}
	return nil, ErrTournamentTeamNotFound
}

func (r memTournamentTeamRepo) withRelationsLocked(tt *models.TournamentTeam) *models.TournamentTeam {
	out := cloneTournamentTeam(tt)
	if t, ok := r.s.teams[tt.TeamID]; ok {
		out.Team = cloneTeam(t)
	}
	opponents := make([]int, 0)
	for id := range r.s.opponents[tt.ID] {
		opponents = append(opponents, id)
	}
	sort.Ints(opponents)
	out.OpponentsPlayed = opponents
	return out
}

func (r memTournamentTeamRepo) Update(_ context.Context, _ SQLExecutor, tt *models.TournamentTeam) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tournamentTeams[tt.ID]
	if !ok {
		return ErrTournamentTeamNotFound
	}
	stored.IsActive = tt.IsActive
	stored.CurrentStageNumber = tt.CurrentStageNumber
	stored.SwissPoints = tt.SwissPoints
	stored.BuchholzScore = tt.BuchholzScore
	stored.ReceivedByeInRound = copyIntPtr(tt.ReceivedByeInRound)
	return nil
}

func (r memTournamentTeamRepo) AddOpponent(_ context.Context, _ SQLExecutor, tournamentTeamID, opponentTeamID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tournamentTeams[tournamentTeamID]; !ok {
		return ErrTournamentTeamNotFound
	}
	if r.s.opponents[tournamentTeamID] == nil {
		r.s.opponents[tournamentTeamID] = make(map[int]bool)
	}
	r.s.opponents[tournamentTeamID][opponentTeamID] = true
	return nil
}

// --- rounds -------------------------------------------------------------

type memRoundRepo struct{ s *MemoryStore }

func (r memRoundRepo) Create(_ context.Context, _ SQLExecutor, round *models.Round) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round.ID = r.s.allocID()
	round.CreatedAt = r.s.tick()
	r.s.rounds[round.ID] = cloneRound(round)
	return nil
}

func (r memRoundRepo) GetByID(_ context.Context, id int) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return cloneRound(round), nil
}

func (r memRoundRepo) GetByNumber(_ context.Context, tournamentID, number int) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, round := range r.s.rounds {
		if round.TournamentID == tournamentID && round.Number == number {
			return cloneRound(round), nil
		}
	}
	return nil, ErrRoundNotFound
}

func (r memRoundRepo) Latest(_ context.Context, tournamentID int) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Round
	for _, round := range r.s.rounds {
		if round.TournamentID != tournamentID {
			continue
		}
		if latest == nil || round.Number > latest.Number {
			latest = round
		}
	}
	if latest == nil {
		return nil, ErrRoundNotFound
	}
	return cloneRound(latest), nil
}

// --- stages ---------------------------------------------------------------

type memStageRepo struct{ s *MemoryStore }

func (r memStageRepo) Create(_ context.Context, _ SQLExecutor, stage *models.Stage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stage.ID = r.s.allocID()
	cs := *stage
	r.s.stages[stage.ID] = &cs
	return nil
}

func (r memStageRepo) GetByID(_ context.Context, id int) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stages[id]
	if !ok {
		return nil, ErrStageNotFound
	}
	cs := *st
	return &cs, nil
}

func (r memStageRepo) GetByNumber(_ context.Context, tournamentID, stageNumber int) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.stages {
		if st.TournamentID == tournamentID && st.StageNumber == stageNumber {
			cs := *st
			return &cs, nil
		}
	}
	return nil, ErrStageNotFound
}

func (r memStageRepo) Latest(_ context.Context, tournamentID int) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Stage
	for _, st := range r.s.stages {
		if st.TournamentID != tournamentID {
			continue
		}
		if latest == nil || st.StageNumber > latest.StageNumber {
			latest = st
		}
	}
	if latest == nil {
		return nil, ErrStageNotFound
	}
	cs := *latest
	return &cs, nil
}

func (r memStageRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stages := make([]*models.Stage, 0)
	for _, st := range r.s.stages {
		if st.TournamentID != tournamentID {
			continue
		}
		cs := *st
		stages = append(stages, &cs)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].StageNumber < stages[j].StageNumber })
	return stages, nil
}

func (r memStageRepo) SetComplete(_ context.Context, _ SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stages[id]
	if !ok {
		return ErrStageNotFound
	}
	st.IsComplete = true
	return nil
}

// --- matches ---------------------------------------------------------------

type memMatchRepo struct{ s *MemoryStore }

func (r memMatchRepo) Create(_ context.Context, _ SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match.ID = r.s.allocID()
	match.CreatedAt = r.s.tick()
	match.UpdatedAt = match.CreatedAt
	r.s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r memMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r memMatchRepo) Update(_ context.Context, _ SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	updated := cloneMatch(match)
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.s.tick()
	r.s.matches[match.ID] = updated
	return nil
}

func (r memMatchRepo) ListByTournament(_ context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(func(m *models.Match) bool {
		if m.TournamentID != tournamentID {
			return false
		}
		return status == nil || m.Status == *status
	}), nil
}

func (r memMatchRepo) ListByRound(_ context.Context, roundID int) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(func(m *models.Match) bool {
		return m.RoundID != nil && *m.RoundID == roundID
	}), nil
}

func (r memMatchRepo) ListByStage(_ context.Context, stageID int) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(func(m *models.Match) bool {
		return m.StageID != nil && *m.StageID == stageID
	}), nil
}

func (r memMatchRepo) ListWaitingForCourt(_ context.Context, tournamentID int) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listLocked(func(m *models.Match) bool {
		return m.TournamentID == tournamentID &&
			m.Status == models.MatchStatusPendingVerification &&
			m.WaitingForCourt
	}), nil
}

func (r memMatchRepo) ListBusyCourtIDs(_ context.Context, excludeMatchID int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int, 0)
	for _, m := range r.s.matches {
		if m.ID == excludeMatchID || m.Status != models.MatchStatusActive || m.CourtID == nil {
			continue
		}
		ids = append(ids, *m.CourtID)
	}
	sort.Ints(ids)
	return ids, nil
}

func (r memMatchRepo) FirstAwaitingOpponent(_ context.Context, teamID int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	candidates := r.listLocked(func(m *models.Match) bool {
		if !m.HasTeam(teamID) || m.Status != models.MatchStatusPendingVerification {
			return false
		}
		for _, a := range r.s.activations {
			if a.MatchID == m.ID && a.TeamID == teamID {
				return false
			}
		}
		return true
	})
	if len(candidates) == 0 {
		return nil, ErrMatchNotFound
	}
	return candidates[0], nil
}

func (r memMatchRepo) FirstPendingForTeam(_ context.Context, teamID int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	candidates := r.listLocked(func(m *models.Match) bool {
		return m.HasTeam(teamID) && m.Status == models.MatchStatusPending
	})
	if len(candidates) == 0 {
		return nil, ErrMatchNotFound
	}
	return candidates[0], nil
}

func (r memMatchRepo) listLocked(keep func(*models.Match) bool) []*models.Match {
	matches := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if keep(m) {
			matches = append(matches, cloneMatch(m))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// --- activations -------------------------------------------------------------

type memActivationRepo struct{ s *MemoryStore }

func (r memActivationRepo) Create(_ context.Context, _ SQLExecutor, activation *models.MatchActivation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.activations {
		if a.MatchID == activation.MatchID && a.TeamID == activation.TeamID {
			return ErrActivationConflict
		}
	}
	activation.ID = r.s.allocID()
	activation.ActivatedAt = r.s.tick()
	ca := *activation
	r.s.activations[activation.ID] = &ca
	return nil
}

func (r memActivationRepo) ListByMatch(_ context.Context, matchID int) ([]*models.MatchActivation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	activations := make([]*models.MatchActivation, 0)
	for _, a := range r.s.activations {
		if a.MatchID == matchID {
			ca := *a
			activations = append(activations, &ca)
		}
	}
	sort.Slice(activations, func(i, j int) bool {
		if !activations[i].ActivatedAt.Equal(activations[j].ActivatedAt) {
			return activations[i].ActivatedAt.Before(activations[j].ActivatedAt)
		}
		return activations[i].ID < activations[j].ID
	})
	return activations, nil
}

// --- match players -------------------------------------------------------------

type memMatchPlayerRepo struct{ s *MemoryStore }

func (r memMatchPlayerRepo) CreateBatch(_ context.Context, _ SQLExecutor, players []*models.MatchPlayer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range players {
		for _, existing := range r.s.matchPlayers {
			if existing.MatchID == p.MatchID && existing.PlayerID == p.PlayerID {
				return ErrMatchPlayerConflict
			}
		}
		p.ID = r.s.allocID()
		cp := *p
		cp.MatchFormat = copyMatchTypePtr(p.MatchFormat)
		r.s.matchPlayers[p.ID] = &cp
	}
	return nil
}

func (r memMatchPlayerRepo) ListByMatch(_ context.Context, matchID int) ([]*models.MatchPlayer, error) {
	return r.list(matchID, nil)
}

func (r memMatchPlayerRepo) ListByMatchAndTeam(_ context.Context, matchID, teamID int) ([]*models.MatchPlayer, error) {
	return r.list(matchID, &teamID)
}

func (r memMatchPlayerRepo) list(matchID int, teamID *int) ([]*models.MatchPlayer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	players := make([]*models.MatchPlayer, 0)
	for _, p := range r.s.matchPlayers {
		if p.MatchID != matchID {
			continue
		}
		if teamID != nil && p.TeamID != *teamID {
			continue
		}
		cp := *p
		cp.MatchFormat = copyMatchTypePtr(p.MatchFormat)
		players = append(players, &cp)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (r memMatchPlayerRepo) SetFormatForMatch(_ context.Context, _ SQLExecutor, matchID int, format models.MatchType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.matchPlayers {
		if p.MatchID == matchID {
			f := format
			p.MatchFormat = &f
		}
	}
	return nil
}

// --- results -------------------------------------------------------------------

type memResultRepo struct{ s *MemoryStore }

func (r memResultRepo) Create(_ context.Context, _ SQLExecutor, result *models.MatchResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.results {
		if existing.MatchID == result.MatchID {
			return ErrResultConflict
		}
	}
	result.ID = r.s.allocID()
	result.SubmittedAt = r.s.tick()
	r.s.results[result.ID] = cloneResult(result)
	return nil
}

func (r memResultRepo) GetByMatch(_ context.Context, matchID int) (*models.MatchResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, result := range r.s.results {
		if result.MatchID == matchID {
			return cloneResult(result), nil
		}
	}
	return nil, ErrResultNotFound
}

func (r memResultRepo) SetValidated(_ context.Context, _ SQLExecutor, resultID, validatedByID int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result, ok := r.s.results[resultID]
	if !ok {
		return ErrResultNotFound
	}
	result.ValidatedByID = &validatedByID
	t := at
	result.ValidatedAt = &t
	return nil
}

func (r memResultRepo) SetPhotoKey(_ context.Context, _ SQLExecutor, resultID int, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result, ok := r.s.results[resultID]
	if !ok {
		return ErrResultNotFound
	}
	k := key
	result.PhotoKey = &k
	return nil
}

func (r memResultRepo) DeleteByMatch(_ context.Context, _ SQLExecutor, matchID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, result := range r.s.results {
		if result.MatchID == matchID {
			delete(r.s.results, id)
			return nil
		}
	}
	return ErrResultNotFound
}

// --- clone helpers ----------------------------------------------------------------

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyMatchTypePtr(p *models.MatchType) *models.MatchType {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTeam(t *models.Team) *models.Team {
	ct := *t
	return &ct
}

func cloneTournament(t *models.Tournament) *models.Tournament {
	ct := *t
	ct.Description = copyStringPtr(t.Description)
	ct.ScoreCap = copyIntPtr(t.ScoreCap)
	ct.WinnerTeamID = copyIntPtr(t.WinnerTeamID)
	if t.MatchTypeRules.Allowed != nil {
		ct.MatchTypeRules.Allowed = append([]models.MatchType(nil), t.MatchTypeRules.Allowed...)
	}
	return &ct
}

func cloneTournamentTeam(tt *models.TournamentTeam) *models.TournamentTeam {
	ctt := *tt
	ctt.SeedingPosition = copyIntPtr(tt.SeedingPosition)
	ctt.ReceivedByeInRound = copyIntPtr(tt.ReceivedByeInRound)
	ctt.OpponentsPlayed = append([]int(nil), tt.OpponentsPlayed...)
	if tt.Team != nil {
		ctt.Team = cloneTeam(tt.Team)
	}
	return &ctt
}

func cloneRound(r *models.Round) *models.Round {
	cr := *r
	cr.StageID = copyIntPtr(r.StageID)
	return &cr
}

func cloneMatch(m *models.Match) *models.Match {
	cm := *m
	cm.StageID = copyIntPtr(m.StageID)
	cm.RoundID = copyIntPtr(m.RoundID)
	cm.Team1Score = copyIntPtr(m.Team1Score)
	cm.Team2Score = copyIntPtr(m.Team2Score)
	cm.CourtID = copyIntPtr(m.CourtID)
	cm.ProposedCourtID = copyIntPtr(m.ProposedCourtID)
	cm.StartTime = copyTimePtr(m.StartTime)
	cm.EndTime = copyTimePtr(m.EndTime)
	if m.Duration != nil {
		d := *m.Duration
		cm.Duration = &d
	}
	cm.WinnerTeamID = copyIntPtr(m.WinnerTeamID)
	cm.LoserTeamID = copyIntPtr(m.LoserTeamID)
	cm.MatchType = copyMatchTypePtr(m.MatchType)
	cm.Team1PlayerCount = copyIntPtr(m.Team1PlayerCount)
	cm.Team2PlayerCount = copyIntPtr(m.Team2PlayerCount)
	return &cm
}

func cloneResult(r *models.MatchResult) *models.MatchResult {
	cr := *r
	cr.ValidatedByID = copyIntPtr(r.ValidatedByID)
	cr.Notes = copyStringPtr(r.Notes)
	cr.PhotoKey = copyStringPtr(r.PhotoKey)
	cr.ValidatedAt = copyTimePtr(r.ValidatedAt)
	return &cr
}
