// Package memstore is an in-memory implementation of the training
// collaborator interfaces, used by tests and the CLI memory mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
)

type Store struct {
	mu         sync.RWMutex
	users      map[int64]struct{}
	exercises  map[string]training.ExerciseDefinition
	sessions   map[int64]*training.WorkoutSession
	deloads    map[int64]*training.DeloadWeek
	mesocycles map[int64]*training.Mesocycle

	userIDCounter      int64
	sessionIDCounter   int64
	logIDCounter       int64
	setIDCounter       int64
	deloadIDCounter    int64
	mesocycleIDCounter int64
}

var (
	_ training.HistoryReader  = (*Store)(nil)
	_ training.SessionWriter  = (*Store)(nil)
	_ training.DeloadStore    = (*Store)(nil)
	_ training.MesocycleStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:      make(map[int64]struct{}),
		exercises:  make(map[string]training.ExerciseDefinition),
		sessions:   make(map[int64]*training.WorkoutSession),
		deloads:    make(map[int64]*training.DeloadWeek),
		mesocycles: make(map[int64]*training.Mesocycle),
	}
}

// --- users & exercises ---

func (s *Store) AddUser(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userIDCounter++
	s.users[s.userIDCounter] = struct{}{}
	return s.userIDCounter, nil
}

func (s *Store) UserExists(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) AddExercise(_ context.Context, exercise training.ExerciseDefinition) error {
	if exercise.ID == "" {
		return training.NewValidationError("id", "must not be empty")
	}
	if !exercise.Class.IsValid() {
		return training.NewValidationError("class", "unknown exercise class %q", exercise.Class)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exercises[exercise.ID]; ok {
		return fmt.Errorf("exercise %s: %w", exercise.ID, training.ErrConflict)
	}
	s.exercises[exercise.ID] = exercise
	return nil
}

func (s *Store) GetExercise(_ context.Context, exerciseID string) (*training.ExerciseDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exercise, ok := s.exercises[exerciseID]
	if !ok {
		return nil, fmt.Errorf("exercise %s: %w", exerciseID, training.ErrNotFound)
	}
	return &exercise, nil
}

// --- sessions ---

func (s *Store) AddSession(_ context.Context, session training.WorkoutSession) (*training.WorkoutSession, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return nil, fmt.Errorf("user %d: %w", session.UserID, training.ErrNotFound)
	}
	for _, l := range session.Exercises {
		if _, ok := s.exercises[l.ExerciseID]; !ok {
			return nil, fmt.Errorf("exercise %s: %w", l.ExerciseID, training.ErrNotFound)
		}
	}
	if !session.IsCompleted() {
		for _, existing := range s.sessions {
			if existing.UserID == session.UserID && !existing.IsCompleted() {
				return nil, fmt.Errorf("user %d already has open session %d: %w", session.UserID, existing.ID, training.ErrConflict)
			}
		}
	}

	stored := copySession(session)
	s.sessionIDCounter++
	stored.ID = s.sessionIDCounter
	for i := range stored.Exercises {
		s.logIDCounter++
		stored.Exercises[i].ID = s.logIDCounter
		for j := range stored.Exercises[i].Sets {
			s.setIDCounter++
			stored.Exercises[i].Sets[j].ID = s.setIDCounter
		}
	}
	s.sessions[stored.ID] = &stored

	res := copySession(stored)
	return &res, nil
}

func (s *Store) CompleteSession(_ context.Context, sessionID int64, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %d: %w", sessionID, training.ErrNotFound)
	}
	if session.IsCompleted() {
		return fmt.Errorf("session %d already completed: %w", sessionID, training.ErrInvalidState)
	}
	if completedAt.Before(session.StartedAt) {
		return training.NewValidationError("completedAt", "before session start")
	}
	session.CompletedAt = &completedAt
	return nil
}

func (s *Store) FetchSessions(_ context.Context, params training.SessionParams) ([]training.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]training.WorkoutSession, 0)
	for _, session := range s.sessions {
		if session.UserID != params.UserID {
			continue
		}
		if params.OnlyCompleted && !session.IsCompleted() {
			continue
		}
		if params.Since != nil && session.StartedAt.Before(*params.Since) {
			continue
		}
		if params.Until != nil && session.StartedAt.After(*params.Until) {
			continue
		}

		c := copySession(*session)
		if params.ExerciseID != "" {
			exLog, ok := c.Log(params.ExerciseID)
			if !ok {
				continue
			}
			c.Exercises = []training.ExerciseLog{exLog}
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if params.Limit > 0 && len(result) > params.Limit {
		result = result[:params.Limit]
	}
	return result, nil
}

// --- deloads ---

func (s *Store) CreateDeload(_ context.Context, deload training.DeloadWeek) (*training.DeloadWeek, error) {
	if !deload.End.After(deload.Start) {
		return nil, training.NewValidationError("end", "must be after start")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[deload.UserID]; !ok {
		return nil, fmt.Errorf("user %d: %w", deload.UserID, training.ErrNotFound)
	}
	for _, existing := range s.deloads {
		if existing.UserID == deload.UserID && existing.Overlaps(deload.Start, deload.End) {
			return nil, fmt.Errorf("overlaps deload %d: %w", existing.ID, training.ErrConflict)
		}
	}

	s.deloadIDCounter++
	deload.ID = s.deloadIDCounter
	stored := deload
	s.deloads[deload.ID] = &stored
	return &deload, nil
}

func (s *Store) GetDeload(_ context.Context, id int64) (*training.DeloadWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deload, ok := s.deloads[id]
	if !ok {
		return nil, fmt.Errorf("deload %d: %w", id, training.ErrNotFound)
	}
	res := *deload
	return &res, nil
}

func (s *Store) ListDeloads(_ context.Context, userID int64) ([]training.DeloadWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]training.DeloadWeek, 0)
	for _, d := range s.deloads {
		if d.UserID == userID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.After(result[j].Start)
	})
	return result, nil
}

func (s *Store) ActiveDeload(_ context.Context, userID int64, at time.Time) (*training.DeloadWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deloads {
		if d.UserID == userID && !d.Skipped && d.Covers(at) {
			res := *d
			return &res, nil
		}
	}
	return nil, fmt.Errorf("active deload for user %d: %w", userID, training.ErrNotFound)
}

func (s *Store) SetDeloadStatus(_ context.Context, id int64, completed, skipped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deload, ok := s.deloads[id]
	if !ok {
		return fmt.Errorf("deload %d: %w", id, training.ErrNotFound)
	}
	deload.Completed = completed
	deload.Skipped = skipped
	return nil
}

// --- mesocycles ---

func (s *Store) CreateMesocycle(_ context.Context, mesocycle training.Mesocycle) (*training.Mesocycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[mesocycle.UserID]; !ok {
		return nil, fmt.Errorf("user %d: %w", mesocycle.UserID, training.ErrNotFound)
	}
	if active := s.activeMesocycle(mesocycle.UserID); active != nil {
		return nil, fmt.Errorf("user %d has active mesocycle %d: %w", mesocycle.UserID, active.ID, training.ErrConflict)
	}

	stored := copyMesocycle(mesocycle)
	s.mesocycleIDCounter++
	stored.ID = s.mesocycleIDCounter
	for i := range stored.Weeks {
		stored.Weeks[i].MesocycleID = stored.ID
	}
	s.mesocycles[stored.ID] = &stored

	res := copyMesocycle(stored)
	return &res, nil
}

func (s *Store) GetMesocycle(_ context.Context, id int64) (*training.Mesocycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mesocycles[id]
	if !ok {
		return nil, fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	res := copyMesocycle(*m)
	return &res, nil
}

func (s *Store) ActiveMesocycle(_ context.Context, userID int64) (*training.Mesocycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.activeMesocycle(userID)
	if m == nil {
		return nil, fmt.Errorf("active mesocycle for user %d: %w", userID, training.ErrNotFound)
	}
	res := copyMesocycle(*m)
	return &res, nil
}

func (s *Store) ListMesocycles(_ context.Context, userID int64) ([]training.Mesocycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]training.Mesocycle, 0)
	for _, m := range s.mesocycles {
		if m.UserID == userID {
			result = append(result, copyMesocycle(*m))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *Store) ActivateMesocycle(_ context.Context, id int64, startDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mesocycles[id]
	if !ok {
		return fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	if m.Status != training.MesocyclePlanned {
		return fmt.Errorf("mesocycle %d is %s: %w", id, m.Status, training.ErrInvalidState)
	}
	if active := s.activeMesocycle(m.UserID); active != nil {
		return fmt.Errorf("user %d has active mesocycle %d: %w", m.UserID, active.ID, training.ErrConflict)
	}

	m.Status = training.MesocycleActive
	m.CurrentWeek = 1
	m.StartDate = &startDate
	return nil
}

func (s *Store) UpdateMesocycleProgress(_ context.Context, id int64, expect, next training.MesocycleProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mesocycles[id]
	if !ok {
		return fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	if m.Status != expect.Status || m.CurrentWeek != expect.CurrentWeek {
		return fmt.Errorf("mesocycle %d changed concurrently: %w", id, training.ErrConflict)
	}
	m.Status = next.Status
	m.CurrentWeek = next.CurrentWeek
	return nil
}

func (s *Store) UpdateMesocycleWeek(_ context.Context, week training.MesocycleWeek) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mesocycles[week.MesocycleID]
	if !ok {
		return fmt.Errorf("mesocycle %d: %w", week.MesocycleID, training.ErrNotFound)
	}
	for i := range m.Weeks {
		if m.Weeks[i].WeekNumber == week.WeekNumber {
			m.Weeks[i] = week
			return nil
		}
	}
	return fmt.Errorf("mesocycle %d week %d: %w", week.MesocycleID, week.WeekNumber, training.ErrNotFound)
}

// activeMesocycle expects s.mu to be held.
func (s *Store) activeMesocycle(userID int64) *training.Mesocycle {
	for _, m := range s.mesocycles {
		if m.UserID == userID && m.Status == training.MesocycleActive {
			return m
		}
	}
	return nil
}

func copySession(session training.WorkoutSession) training.WorkoutSession {
	c := session
	if session.CompletedAt != nil {
		completedAt := *session.CompletedAt
		c.CompletedAt = &completedAt
	}
	c.Exercises = make([]training.ExerciseLog, len(session.Exercises))
	for i, l := range session.Exercises {
		c.Exercises[i] = l
		c.Exercises[i].Sets = append([]training.SetRecord(nil), l.Sets...)
	}
	return c
}

func copyMesocycle(m training.Mesocycle) training.Mesocycle {
	c := m
	if m.StartDate != nil {
		startDate := *m.StartDate
		c.StartDate = &startDate
	}
	c.Weeks = append([]training.MesocycleWeek(nil), m.Weeks...)
	return c
}
