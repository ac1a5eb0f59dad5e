package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/pywhiz/pywhiz/internal/learn"
)

func cmdMilestones() error {
	return withApp(func(ctx context.Context, a *app) error {
		ms, err := a.nav.Milestones(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Milestones")
		fmt.Println("==========")
		for _, view := range learn.Statuses(ms, a.store.Progress()) {
			m := view.Milestone
			fmt.Printf("%2d. %-12s %-28s %s\n", m.Order, m.ID, m.Title, statusLabel(view.Status))
		}
		return nil
	})
}

func statusLabel(s learn.Status) string {
	switch s {
	case learn.StatusCompleted:
		return "✓ completed"
	case learn.StatusLocked:
		return "🔒 locked"
	}
	return "▶ in progress"
}

// cmdProgress prints the dashboard
func cmdProgress() error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		d, err := a.nav.Dashboard(ctx)
		if err != nil {
			return err
		}

		completed := 0
		for _, v := range d.Milestones {
			if v.Status == learn.StatusCompleted {
				completed++
			}
		}
		ratio := 0.0
		if len(d.Milestones) > 0 {
			ratio = float64(completed) / float64(len(d.Milestones))
		}

		fmt.Printf("%s's Progress\n", a.store.CurrentUser().DisplayName())
		fmt.Println("==================")
		fmt.Printf("Score:      %d\n", d.Score)
		fmt.Printf("Milestones: %s %d/%d\n", renderProgressBar(ratio, 20), completed, len(d.Milestones))

		progress := a.store.Progress()
		fmt.Println()
		for _, v := range d.Milestones {
			m := v.Milestone
			fmt.Printf("%2d. %-28s %-14s video %s  code %s  quiz %s\n", m.Order, m.Title, statusLabel(v.Status),
				tick(progress.UnitCompleted(domain.UnitVideo, m.ID)),
				tick(progress.UnitCompleted(domain.UnitCode, m.ID)),
				tick(progress.UnitCompleted(domain.UnitExercise, m.ID)))
		}

		if len(d.Badges) > 0 {
			fmt.Println("\nBadges")
			fmt.Println("------")
			for _, b := range d.Badges {
				fmt.Printf("  🏅 %s\n", b)
			}
		}
		if d.AllComplete {
			fmt.Println("\n🎉 You completed every milestone!")
		} else if d.Continue != "" {
			fmt.Printf("\nContinue: %s\n", d.Continue)
		}
		if n := a.store.Pending(); n > 0 {
			fmt.Printf("(%d updates not yet confirmed by the server)\n", n)
		}
		return nil
	})
}

func tick(ok bool) string {
	if ok {
		return "✓"
	}
	return "·"
}

func cmdContinue() error {
	return withApp(func(ctx context.Context, a *app) error {
		page, err := a.nav.Continue(ctx)
		if err != nil {
			return err
		}
		fmt.Println(page.Path())
		fmt.Printf("Run: pywhiz %s\n", pageCommand(page))
		return nil
	})
}

// pageCommand is the CLI command that opens page
func pageCommand(p learn.Page) string {
	switch p.Kind {
	case domain.UnitCode:
		return "code " + p.MilestoneID
	case domain.UnitExercise:
		return "quiz " + p.MilestoneID
	}
	return "learn " + p.MilestoneID
}

// mount opens a unit page and explains content and lock errors
func mount(ctx context.Context, a *app, page learn.Page) (*learn.Controller, error) {
	c, err := a.nav.Mount(ctx, page)
	switch {
	case errors.Is(err, domain.ErrContentUnavailable):
		return nil, fmt.Errorf("content not available for %s (run 'pywhiz progress' to return to the dashboard)", page.MilestoneID)
	case errors.Is(err, domain.ErrLocked):
		return nil, fmt.Errorf("%w: finish the earlier milestones first", err)
	case errors.Is(err, domain.ErrUnauthorized):
		return nil, fmt.Errorf("not logged in (run 'pywhiz login' first)")
	}
	return c, err
}

// printNext tells the learner where to go once the unit is complete
func printNext(ctx context.Context, c *learn.Controller) {
	if !c.NextEnabled(ctx) {
		return
	}
	next, ok, err := c.Next(ctx)
	if err != nil {
		return
	}
	if !ok {
		fmt.Println("\nThat was the last milestone. Run 'pywhiz progress' to see your dashboard.")
		return
	}
	fmt.Printf("\nNext: pywhiz %s\n", pageCommand(next))
}

// cmdLearn shows the lessons of a milestone. --watched reports the
// fraction of the main video watched.
func cmdLearn(args []string) error {
	var milestoneID string
	watched := -1.0
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--watched="); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("--watched must be a fraction between 0 and 1")
			}
			watched = f
			continue
		}
		milestoneID = arg
	}
	if milestoneID == "" {
		return fmt.Errorf("usage: pywhiz learn <milestone> [--watched=<fraction>]")
	}

	return withApp(func(ctx context.Context, a *app) error {
		c, err := mount(ctx, a, learn.LearnPage(milestoneID))
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", c.Milestone().Title)
		fmt.Println(strings.Repeat("=", len(c.Milestone().Title)))
		for _, lesson := range c.Lessons() {
			label := "▶"
			if lesson.IsAdditional {
				label = "+"
			}
			fmt.Printf("%s %s\n  %s\n", label, lesson.Title, lesson.VideoURL)
		}

		if watched >= 0 {
			done, err := c.ObserveVideo(ctx, watched, 1)
			if err != nil {
				return err
			}
			if done {
				fmt.Println("\n✓ Video watched")
			}
		}
		if !c.NextEnabled(ctx) {
			fmt.Println("\nWatch the video, then run: pywhiz learn", milestoneID, "--watched=1")
		}
		printNext(ctx, c)
		return nil
	})
}

// cmdCode shows the coding task, or submits a solution file
func cmdCode(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: pywhiz code <milestone> [file] [inputs...]")
	}

	return withApp(func(ctx context.Context, a *app) error {
		c, err := mount(ctx, a, learn.Page{Kind: domain.UnitCode, MilestoneID: args[0]})
		if err != nil {
			return err
		}

		if len(args) < 2 {
			for _, q := range c.CodeQuestions() {
				fmt.Printf("%s\n\n", q.Question)
				if q.ExampleCode != "" {
					fmt.Printf("Starter code:\n%s\n\n", q.ExampleCode)
				}
				if q.Hint != "" {
					fmt.Printf("Hint: %s\n", q.Hint)
				}
			}
			printNext(ctx, c)
			return nil
		}

		code, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}
		result, err := c.SubmitCode(ctx, "", string(code), args[2:])
		if err != nil {
			return err
		}

		if result.Output != "" {
			fmt.Printf("Output:\n%s\n", result.Output)
		}
		if result.IsCorrect {
			fmt.Println("✓ Correct!")
		} else {
			fmt.Println("✗ Not quite yet")
		}
		if result.Hints != "" {
			fmt.Printf("Hint: %s\n", result.Hints)
		}
		if result.Suggestions != "" {
			fmt.Printf("Suggestions: %s\n", result.Suggestions)
		}
		fmt.Printf("Attempts: %d\n", result.Attempts)
		printNext(ctx, c)
		return nil
	})
}

// cmdQuiz shows the quiz, or checks one answer per question in order
func cmdQuiz(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: pywhiz quiz <milestone> [answers...]")
	}

	return withApp(func(ctx context.Context, a *app) error {
		c, err := mount(ctx, a, learn.Page{Kind: domain.UnitExercise, MilestoneID: args[0]})
		if err != nil {
			return err
		}
		questions := c.Questions()
		answers := args[1:]

		if len(answers) == 0 {
			for i, q := range questions {
				fmt.Printf("%d. %s\n", i+1, q.QuestionText)
				for _, key := range q.OptionKeys() {
					fmt.Printf("   %s) %s\n", key, q.Options[key])
				}
			}
			fmt.Printf("\nAnswer with: pywhiz quiz %s %s\n", args[0], strings.TrimSpace(strings.Repeat("<option> ", len(questions))))
			printNext(ctx, c)
			return nil
		}

		if len(answers) != len(questions) {
			return fmt.Errorf("the quiz has %d questions, got %d answers", len(questions), len(answers))
		}
		for i, q := range questions {
			if err := c.SelectAnswer(q.ID, answers[i]); err != nil {
				return fmt.Errorf("question %d: %w", i+1, err)
			}
		}

		result, err := c.CheckQuiz(ctx)
		if err != nil {
			return err
		}
		for i, r := range result.Results {
			mark := "✓"
			if !r.IsCorrect {
				mark = "✗"
			}
			fmt.Printf("%s %d. you chose %s", mark, i+1, r.Selected)
			if r.Explanation != "" {
				fmt.Printf(" (%s)", r.Explanation)
			}
			fmt.Println()
		}
		fmt.Printf("\n%d/%d correct\n", result.Correct, result.Total)
		if !result.Passed {
			fmt.Println("Every answer must be right to pass. Try again!")
		}
		printNext(ctx, c)
		return nil
	})
}

// cmdReset resets progress for one milestone, or everything after
// confirmation
func cmdReset(args []string) error {
	arg := "all"
	if len(args) > 0 {
		arg = args[0]
	}
	scope, err := domain.ParseResetScope(arg)
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		if scope.All {
			answer, err := prompt("Reset ALL progress? This cannot be undone [y/N]: ")
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				fmt.Println("Cancelled.")
				return nil
			}
		}
		if err := a.store.ResetProgress(ctx, scope); err != nil {
			return err
		}
		fmt.Printf("✓ Progress reset (%s)\n", scope)
		return nil
	})
}
