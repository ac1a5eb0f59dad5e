// Package report exports a learner's progress as a spreadsheet.
package report

import (
	"fmt"
	"io"

	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/pywhiz/pywhiz/internal/learn"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	ProgressSheet = "Progress"
	SummarySheet  = "Summary"
)

const done = "done"

var progressHeader = []any{"Order", "Milestone", "Video", "Code", "Quiz", "Status"}

// WriteProgress writes a workbook with one row per milestone on the
// Progress sheet and the score and badges on the Summary sheet.
func WriteProgress(w io.Writer, user *domain.User, milestones []domain.Milestone, progress *domain.Progress) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ProgressSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeMatrix(f, milestones, progress); err != nil {
		return fmt.Errorf("write %s sheet: %w", ProgressSheet, err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeSummary(f, user, milestones, progress); err != nil {
		return fmt.Errorf("write %s sheet: %w", SummarySheet, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMatrix(f *excelize.File, milestones []domain.Milestone, progress *domain.Progress) error {
	if err := f.SetSheetRow(ProgressSheet, "A1", &progressHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ProgressSheet, "A1", "F1", bold); err != nil {
		return err
	}

	for i, view := range learn.Statuses(milestones, progress) {
		m := view.Milestone
		row := []any{
			m.Order,
			m.Title,
			mark(progress.UnitCompleted(domain.UnitVideo, m.ID)),
			mark(progress.UnitCompleted(domain.UnitCode, m.ID)),
			mark(progress.UnitCompleted(domain.UnitExercise, m.ID)),
			string(view.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ProgressSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(ProgressSheet, "B", "B", 32)
}

func writeSummary(f *excelize.File, user *domain.User, milestones []domain.Milestone, progress *domain.Progress) error {
	score := 0
	if progress != nil {
		score = progress.Score
	}
	completed := progress.CompletedMilestoneIDs().Len()

	rows := [][]any{
		{"Learner", user.DisplayName()},
		{"Score", score},
		{"Completed milestones", completed},
		{"Total milestones", len(milestones)},
	}
	if learn.AllComplete(milestones, progress) {
		rows = append(rows, []any{"All milestones complete", done})
	}
	for _, badge := range progress.Badges() {
		rows = append(rows, []any{"Badge", badge})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 28)
}

func mark(ok bool) string {
	if ok {
		return done
	}
	return ""
}
