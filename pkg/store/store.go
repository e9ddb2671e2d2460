// Package store persists completed assessments to a local sqlite
// database so scores can be compared across runs and over time.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gradekit/repograde/pkg/assess"
	"github.com/gradekit/repograde/pkg/attribute"
)

//go:embed sql/*
var ddl embed.FS

// ErrNotFound is returned when no stored assessment matches an ID.
var ErrNotFound = errors.New("store: assessment not found")

// timeLayout keeps a fixed-width fraction so ORDER BY on the text
// column stays chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	insertAssessment = `INSERT INTO assessment
		(id, target, generated_at, overall_score, certification, total_weight)
		VALUES (?, ?, ?, ?, ?, ?)`

	insertAttributeScore = `INSERT INTO attribute_score
		(assessment_id, attribute_id, status, score, weight, value, threshold, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectAssessment = `SELECT target, generated_at, overall_score, certification, total_weight
		FROM assessment WHERE id = ?`

	selectAttributeScores = `SELECT attribute_id, status, score, weight, value, threshold, note
		FROM attribute_score WHERE assessment_id = ?`

	deleteScoresBeyond = `DELETE FROM attribute_score WHERE assessment_id IN (
		SELECT id FROM assessment ORDER BY generated_at DESC LIMIT -1 OFFSET ?)`

	deleteAssessmentsBeyond = `DELETE FROM assessment WHERE id IN (
		SELECT id FROM assessment ORDER BY generated_at DESC LIMIT -1 OFFSET ?)`
)

// Record is one history listing line: the assessment summary without the
// per-attribute breakdown.
type Record struct {
	ID                  string    `json:"id"`
	Target              string    `json:"target"`
	GeneratedAt         time.Time `json:"generated_at"`
	OverallScore        float64   `json:"overall_score"`
	Certification       string    `json:"certification_level"`
	TotalWeightAssessed float64   `json:"total_weight_assessed"`
	AssessedCount       int       `json:"assessed_count"`
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating the file and schema
// on first use. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: database path not specified")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database %s: %w", path, err)
	}

	schema, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: reading schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema in %s: %w", path, err)
	}

	slog.Debug("history store ready", "path", path)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one completed result and returns its assigned ID.
func (s *Store) Save(ctx context.Context, res *assess.Result) (string, error) {
	if res == nil {
		return "", errors.New("store: result must not be nil")
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	generatedAt := res.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, insertAssessment,
		id,
		res.Target,
		generatedAt.UTC().Format(timeLayout),
		res.OverallScore,
		string(res.Certification),
		res.TotalWeightAssessed,
	); err != nil {
		return "", fmt.Errorf("store: inserting assessment: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertAttributeScore)
	if err != nil {
		return "", fmt.Errorf("store: preparing attribute insert: %w", err)
	}
	defer stmt.Close()

	for _, sa := range res.Attributes {
		var score sql.NullFloat64
		if sa.Score != nil {
			score = sql.NullFloat64{Float64: *sa.Score, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			id, string(sa.AttributeID), string(sa.Status),
			score, sa.Weight, sa.Value, sa.Threshold, sa.Note,
		); err != nil {
			return "", fmt.Errorf("store: inserting score for %s: %w", sa.AttributeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: committing assessment: %w", err)
	}

	slog.Debug("assessment saved", "id", id, "target", res.Target)
	return id, nil
}

// List returns stored assessments newest first. An empty target matches
// everything; limit values below 1 fall back to 50.
func (s *Store) List(ctx context.Context, target string, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	query := `SELECT a.id, a.target, a.generated_at, a.overall_score, a.certification, a.total_weight,
		(SELECT COUNT(*) FROM attribute_score sc WHERE sc.assessment_id = a.id AND sc.status = 'assessed')
		FROM assessment a`
	args := []any{}
	if target != "" {
		query += ` WHERE a.target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY a.generated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing assessments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec Record
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.Target, &ts, &rec.OverallScore,
			&rec.Certification, &rec.TotalWeightAssessed, &rec.AssessedCount); err != nil {
			return nil, fmt.Errorf("store: scanning assessment row: %w", err)
		}
		rec.GeneratedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("store: parsing timestamp %q: %w", ts, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating assessments: %w", err)
	}
	return records, nil
}

// Get reconstructs one stored assessment with its full attribute
// breakdown, in catalog order.
func (s *Store) Get(ctx context.Context, id string) (*assess.Result, error) {
	var (
		res assess.Result
		ts  string
	)
	err := s.db.QueryRowContext(ctx, selectAssessment, id).Scan(
		&res.Target, &ts, &res.OverallScore, &res.Certification, &res.TotalWeightAssessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading assessment %s: %w", id, err)
	}
	res.GeneratedAt, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("store: parsing timestamp %q: %w", ts, err)
	}

	rows, err := s.db.QueryContext(ctx, selectAttributeScores, id)
	if err != nil {
		return nil, fmt.Errorf("store: loading scores for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sa    assess.ScoredAttribute
			aid   string
			state string
			score sql.NullFloat64
		)
		if err := rows.Scan(&aid, &state, &score, &sa.Weight, &sa.Value, &sa.Threshold, &sa.Note); err != nil {
			return nil, fmt.Errorf("store: scanning score row: %w", err)
		}
		sa.AttributeID = attribute.ID(aid)
		sa.Status = assess.Status(state)
		if score.Valid {
			v := score.Float64
			sa.Score = &v
		}
		if attr, ok := attribute.Lookup(sa.AttributeID); ok {
			sa.Name = attr.Name
			sa.Tier = attr.Tier
		}
		res.Attributes = append(res.Attributes, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating scores: %w", err)
	}

	sortByCatalog(res.Attributes)
	return &res, nil
}

// Prune keeps the newest keep assessments and deletes the rest,
// returning how many assessments were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: beginning prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteScoresBeyond, keep); err != nil {
		return 0, fmt.Errorf("store: pruning attribute scores: %w", err)
	}
	del, err := tx.ExecContext(ctx, deleteAssessmentsBeyond, keep)
	if err != nil {
		return 0, fmt.Errorf("store: pruning assessments: %w", err)
	}
	removed, err := del.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: counting pruned rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: committing prune: %w", err)
	}

	if removed > 0 {
		slog.Debug("history pruned", "removed", removed, "kept", keep)
	}
	return removed, nil
}

// sortByCatalog orders scored attributes by their catalog position,
// leaving IDs the catalog no longer knows at the end.
func sortByCatalog(attrs []assess.ScoredAttribute) {
	pos := make(map[attribute.ID]int, 25)
	for i, id := range attribute.IDs() {
		pos[id] = i
	}
	rank := func(id attribute.ID) int {
		if p, ok := pos[id]; ok {
			return p
		}
		return len(pos)
	}
	slices.SortStableFunc(attrs, func(a, b assess.ScoredAttribute) int {
		return rank(a.AttributeID) - rank(b.AttributeID)
	})
}
