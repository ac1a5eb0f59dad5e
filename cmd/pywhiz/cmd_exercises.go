package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// cmdExercises manages personalized practice exercises
func cmdExercises(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Personalized exercise commands:

  pywhiz exercises list                                 List your exercises
  pywhiz exercises create <easy|medium|hard> <question> Ask for a new exercise
  pywhiz exercises submit <id> <file> [inputs...]       Submit a solution`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdExercisesList()
	case "create":
		if len(args) < 3 {
			return fmt.Errorf("usage: pywhiz exercises create <easy|medium|hard> <question>")
		}
		return cmdExercisesCreate(args[1], strings.Join(args[2:], " "))
	case "submit":
		if len(args) < 3 {
			return fmt.Errorf("usage: pywhiz exercises submit <id> <file> [inputs...]")
		}
		return cmdExercisesSubmit(args[1], args[2], args[3:])
	default:
		return fmt.Errorf("unknown exercises command: %s (valid: list, create, submit)", args[0])
	}
}

func cmdExercisesList() error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		exercises, err := a.client.PersonalizedExercises(ctx)
		if err != nil {
			return fmt.Errorf("list exercises: %w", err)
		}
		if len(exercises) == 0 {
			fmt.Println("No personalized exercises yet. Create one with 'pywhiz exercises create'.")
			return nil
		}
		for _, ex := range exercises {
			fmt.Printf("%s %-8s %-6s %s\n", tick(ex.IsCompleted), ex.ID, ex.Difficulty, ex.Question)
		}
		return nil
	})
}

func cmdExercisesCreate(difficulty, question string) error {
	d, err := domain.ParseDifficulty(difficulty)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		ex, err := a.client.CreatePersonalizedExercise(ctx, question, d)
		if err != nil {
			return fmt.Errorf("create exercise: %w", err)
		}
		fmt.Printf("✓ Exercise %s created (%s)\n\n%s\n", ex.ID, ex.Difficulty, ex.Question)
		if ex.FocusArea != "" {
			fmt.Printf("Focus: %s\n", ex.FocusArea)
		}
		if ex.Encouragement != "" {
			fmt.Println(ex.Encouragement)
		}
		return nil
	})
}

func cmdExercisesSubmit(id, file string, inputs []string) error {
	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		ex, err := a.client.SubmitPersonalizedExercise(ctx, id, string(code), inputs)
		if err != nil {
			return fmt.Errorf("submit exercise: %w", err)
		}
		if ex.Output != "" {
			fmt.Printf("Output:\n%s\n", ex.Output)
		}
		if ex.IsCompleted {
			fmt.Println("✓ Exercise completed!")
		} else {
			fmt.Println("✗ Not quite yet")
		}
		if ex.Hints != "" {
			fmt.Printf("Hint: %s\n", ex.Hints)
		}
		if ex.Suggestions != "" {
			fmt.Printf("Suggestions: %s\n", ex.Suggestions)
		}
		return nil
	})
}
