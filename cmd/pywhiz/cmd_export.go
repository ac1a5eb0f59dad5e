package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pywhiz/pywhiz/internal/report"
)

// cmdExport writes the learner's progress to a spreadsheet
func cmdExport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: pywhiz export <file.xlsx>")
	}
	path := args[0]

	return withApp(func(ctx context.Context, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		ms, err := a.nav.Milestones(ctx)
		if err != nil {
			return err
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := report.WriteProgress(f, a.store.CurrentUser(), ms, a.store.Progress()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}

		fmt.Printf("✓ Progress exported to %s\n", path)
		return nil
	})
}
