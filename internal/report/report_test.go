package report

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/xuri/excelize/v2"
)

func fixture() ([]domain.Milestone, *domain.Progress) {
	ms := []domain.Milestone{
		{ID: "m1", Title: "Hello Python", Order: 1, IsActive: true},
		{ID: "m2", Title: "Variables", Order: 2, IsActive: true},
		{ID: "m3", Title: "Loops", Order: 3, IsActive: true},
	}
	p := domain.NewProgress()
	p.CurrentMilestone = &ms[1]
	p.CompletedMilestones = []domain.Milestone{ms[0]}
	p.WatchedVideos = domain.NewIDSet("m1", "m2")
	p.CompletedCode = domain.NewIDSet("m1")
	p.CompletedExercises = domain.NewIDSet("m1")
	p.Score = 10
	return ms, p
}

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteProgress(t *testing.T) {
	ms, p := fixture()
	user := &domain.User{ID: 1, Username: "ada", Email: "ada@example.com"}

	var buf bytes.Buffer
	if err := WriteProgress(&buf, user, ms, p); err != nil {
		t.Fatalf("WriteProgress() error = %v", err)
	}
	f := open(t, &buf)

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{ProgressSheet, SummarySheet}) {
		t.Errorf("sheets = %v", got)
	}

	rows, err := f.GetRows(ProgressSheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", ProgressSheet, err)
	}
	want := [][]string{
		{"Order", "Milestone", "Video", "Code", "Quiz", "Status"},
		{"1", "Hello Python", "done", "done", "done", "completed"},
		{"2", "Variables", "done", "", "", "current"},
		{"3", "Loops", "", "", "", "locked"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("%s rows = %q, want %q", ProgressSheet, rows, want)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", SummarySheet, err)
	}
	wantSummary := [][]string{
		{"Learner", "ada"},
		{"Score", "10"},
		{"Completed milestones", "1"},
		{"Total milestones", "3"},
		{"Badge", "Completed: Hello Python"},
	}
	if !reflect.DeepEqual(summary, wantSummary) {
		t.Errorf("%s rows = %q, want %q", SummarySheet, summary, wantSummary)
	}
}

func TestWriteProgress_Anonymous(t *testing.T) {
	ms, _ := fixture()

	var buf bytes.Buffer
	if err := WriteProgress(&buf, nil, ms, nil); err != nil {
		t.Fatalf("WriteProgress() error = %v", err)
	}
	f := open(t, &buf)

	rows, _ := f.GetRows(ProgressSheet)
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if got := rows[1][5]; got != "current" {
		t.Errorf("first milestone status = %q, want current", got)
	}
	summary, _ := f.GetRows(SummarySheet)
	if summary[1][1] != "0" {
		t.Errorf("score = %q, want 0", summary[1][1])
	}
}
