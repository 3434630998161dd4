package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/2beens/trainload/internal/gymstats/training"

	log "github.com/sirupsen/logrus"
)

// fixture is the -seed file format. Users are created first and get ids
// 1..Users on an empty store.
type fixture struct {
	Users      int                           `json:"users"`
	Exercises  []training.ExerciseDefinition `json:"exercises"`
	Sessions   []training.WorkoutSession     `json:"sessions"`
	Deloads    []training.DeloadWeek         `json:"deloads"`
	Mesocycles []training.Mesocycle          `json:"mesocycles"`
}

func (a *app) seed(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return training.NewValidationError("seed", "decode %s: %s", path, err)
	}

	for i := 0; i < f.Users; i++ {
		if _, err := a.store.AddUser(ctx); err != nil {
			return fmt.Errorf("add user: %w", err)
		}
	}
	for _, exercise := range f.Exercises {
		if err := a.store.AddExercise(ctx, exercise); err != nil {
			return fmt.Errorf("add exercise %s: %w", exercise.ID, err)
		}
	}
	for i, session := range f.Sessions {
		if _, err := a.store.AddSession(ctx, session); err != nil {
			return fmt.Errorf("add session #%d: %w", i, err)
		}
	}
	for i, deload := range f.Deloads {
		if _, err := a.store.CreateDeload(ctx, deload); err != nil {
			return fmt.Errorf("add deload #%d: %w", i, err)
		}
	}
	for i, mesocycle := range f.Mesocycles {
		if _, err := a.store.CreateMesocycle(ctx, mesocycle); err != nil {
			return fmt.Errorf("add mesocycle #%d: %w", i, err)
		}
	}

	log.Debugf(
		"seeded %d users, %d exercises, %d sessions, %d deloads, %d mesocycles",
		f.Users, len(f.Exercises), len(f.Sessions), len(f.Deloads), len(f.Mesocycles),
	)
	return nil
}
