package cmd

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gradekit/repograde/pkg/assess"
	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/report"
	"github.com/gradekit/repograde/pkg/store"
)

const sampleMeasurements = `target: acme/widgets
measurements:
  - attribute_id: claude_md_file
    value: 1
    status: assessed
  - attribute_id: test_coverage
    value: 92
    status: assessed
  - attribute_id: todo_density
    value: 2
    status: assessed
---
target: acme/legacy
measurements:
  - attribute_id: readme_file
    value: 1
    status: assessed
  - attribute_id: test_coverage
    value: 20
    status: assessed
`

// runTestAssessPipeline exercises the same logic as runAssess without
// cobra flags or os.Exit: load documents, score them, record history.
func runTestAssessPipeline(t *testing.T, cfg *cli.Config, path string) []assessment {
	t.Helper()
	ctx := context.Background()

	docs, err := cli.LoadMeasurements(path)
	if err != nil {
		t.Fatalf("LoadMeasurements: %v", err)
	}

	runner := assess.NewRunner()
	var runs []assessment
	for _, doc := range docs {
		res, err := runner.Run(ctx, doc.Target, doc.Measurements, cfg.WeightVector(), nil)
		if err != nil {
			t.Fatalf("Run(%s): %v", doc.Target, err)
		}
		runs = append(runs, assessment{source: path, doc: doc, result: res})
	}

	if cfg.History.IsEnabled() {
		if err := recordHistory(ctx, cfg, runs); err != nil {
			t.Fatalf("recordHistory: %v", err)
		}
	}
	return runs
}

func testAssessConfig(t *testing.T) *cli.Config {
	t.Helper()
	cfg := cli.DefaultConfig()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func TestAssessFlow_FullPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.yml")
	if err := os.WriteFile(path, []byte(sampleMeasurements), 0o644); err != nil {
		t.Fatalf("writing measurements: %v", err)
	}

	cfg := testAssessConfig(t)
	runs := runTestAssessPipeline(t, cfg, path)

	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	first := runs[0].result
	if first.Target != "acme/widgets" {
		t.Errorf("first target = %q, want acme/widgets", first.Target)
	}
	if math.Abs(first.OverallScore-100) > 1e-9 {
		t.Errorf("acme/widgets score = %v, want 100", first.OverallScore)
	}

	second := runs[1].result
	if second.OverallScore >= first.OverallScore {
		t.Errorf("acme/legacy (%v) should score below acme/widgets (%v)",
			second.OverallScore, first.OverallScore)
	}

	// Both results landed in the history store.
	st, err := store.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer st.Close()

	records, err := st.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("stored %d assessments, want 2", len(records))
	}
}

func TestAssessFlow_HistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.yml")
	if err := os.WriteFile(path, []byte(sampleMeasurements), 0o644); err != nil {
		t.Fatalf("writing measurements: %v", err)
	}

	cfg := testAssessConfig(t)
	off := false
	cfg.History.Enabled = &off

	runTestAssessPipeline(t, cfg, path)

	if _, err := os.Stat(cfg.History.Path); !os.IsNotExist(err) {
		t.Errorf("history file should not exist, stat err = %v", err)
	}
}

func TestFailingGate(t *testing.T) {
	runs := []assessment{
		{result: &assess.Result{Target: "a", OverallScore: 82}},
		{result: &assess.Result{Target: "b", OverallScore: 55}},
	}

	if got := failingGate(runs, 0); got != nil {
		t.Errorf("disabled gate flagged %q", got.Target)
	}
	if got := failingGate(runs, 50); got != nil {
		t.Errorf("gate 50 flagged %q, want none", got.Target)
	}
	got := failingGate(runs, 60)
	if got == nil || got.Target != "b" {
		t.Errorf("gate 60 = %+v, want target b", got)
	}
	got = failingGate(runs, 90)
	if got == nil || got.Target != "a" {
		t.Errorf("gate 90 = %+v, want first failing target a", got)
	}
}

func TestSelectFormatter(t *testing.T) {
	if _, ok := selectFormatter("json").(*report.JSONFormatter); !ok {
		t.Error("json should select the JSON formatter")
	}
	if _, ok := selectFormatter("table").(*report.TableFormatter); !ok {
		t.Error("table should select the table formatter")
	}
	if _, ok := selectFormatter("").(*report.TableFormatter); !ok {
		t.Error("empty format should fall back to the table formatter")
	}
}
