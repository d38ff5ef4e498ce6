package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/problemhub/problemhub/internal/model"
)

// ProblemRepo provides data access to the problems table and its attached
// comment/answer tables.
type ProblemRepo struct{ DB *sql.DB }

func NewProblemRepo(db *sql.DB) *ProblemRepo { return &ProblemRepo{DB: db} }

// Create inserts a problem with zeroed reactions and assigns its ID.
func (r *ProblemRepo) Create(ctx context.Context, p *model.Problem) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO problems (title, description, tags, difficulty) VALUES (?,?,?,?)",
		p.Title, p.Description, tagsJSON, p.Difficulty)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// List returns all problems sorted newest first, with comments and answers
// attached.
func (r *ProblemRepo) List(ctx context.Context) ([]*model.Problem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, description, tags, difficulty, fire_count, check_count, created_at, updated_at
		 FROM problems ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		problems []*model.Problem
		byID     = map[uint64]*model.Problem{}
		ids      []uint64
	)
	for rows.Next() {
		p, scanErr := scanProblem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		problems = append(problems, p)
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return []*model.Problem{}, nil
	}
	if err := r.attachPosts(ctx, "problem_comments", ids, func(id uint64, post model.ProblemPost) {
		byID[id].Comments = append(byID[id].Comments, post)
	}); err != nil {
		return nil, err
	}
	if err := r.attachPosts(ctx, "problem_answers", ids, func(id uint64, post model.ProblemPost) {
		byID[id].Answers = append(byID[id].Answers, post)
	}); err != nil {
		return nil, err
	}
	return problems, nil
}

// GetByID fetches one problem with its comments and answers.
func (r *ProblemRepo) GetByID(ctx context.Context, id uint64) (*model.Problem, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, title, description, tags, difficulty, fire_count, check_count, created_at, updated_at
		 FROM problems WHERE id=? LIMIT 1`, id)
	p, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachPosts(ctx, "problem_comments", []uint64{id}, func(_ uint64, post model.ProblemPost) {
		p.Comments = append(p.Comments, post)
	}); err != nil {
		return nil, err
	}
	if err := r.attachPosts(ctx, "problem_answers", []uint64{id}, func(_ uint64, post model.ProblemPost) {
		p.Answers = append(p.Answers, post)
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// AddReaction increments one of the reaction counters. kind must be "fire" or
// "check"; callers validate it before reaching the repository.
func (r *ProblemRepo) AddReaction(ctx context.Context, id uint64, kind string) error {
	column := "fire_count"
	if kind == "check" {
		column = "check_count"
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE problems SET "+column+" = "+column+" + 1 WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComment attaches a comment to a problem.
func (r *ProblemRepo) AddComment(ctx context.Context, problemID uint64, username, text string) error {
	return r.addPost(ctx, "problem_comments", problemID, username, text)
}

// AddAnswer attaches a proposed answer to a problem.
func (r *ProblemRepo) AddAnswer(ctx context.Context, problemID uint64, username, text string) error {
	return r.addPost(ctx, "problem_answers", problemID, username, text)
}

// DeleteComment removes one comment from a problem.
func (r *ProblemRepo) DeleteComment(ctx context.Context, problemID, commentID uint64) error {
	return r.deletePost(ctx, "problem_comments", problemID, commentID)
}

// DeleteAnswer removes one answer from a problem.
func (r *ProblemRepo) DeleteAnswer(ctx context.Context, problemID, answerID uint64) error {
	return r.deletePost(ctx, "problem_answers", problemID, answerID)
}

// SetDifficulty updates the difficulty label of a problem.
func (r *ProblemRepo) SetDifficulty(ctx context.Context, id uint64, difficulty string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE problems SET difficulty=? WHERE id=?", difficulty, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProblemRepo) addPost(ctx context.Context, table string, problemID uint64, username, text string) error {
	// Guard against inserting posts for a missing problem; the FK would catch
	// it too, but a sentinel keeps handler mapping uniform.
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM problems WHERE id=? LIMIT 1", problemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO "+table+" (problem_id, username, text) VALUES (?,?,?)",
		problemID, username, text)
	return err
}

func (r *ProblemRepo) deletePost(ctx context.Context, table string, problemID, postID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id=? AND problem_id=?", postID, problemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProblemRepo) attachPosts(ctx context.Context, table string, ids []uint64, attach func(problemID uint64, post model.ProblemPost)) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, problem_id, username, text, created_at FROM "+table+
			" WHERE problem_id IN ("+placeholders+") ORDER BY created_at ASC, id ASC", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			post      model.ProblemPost
			problemID uint64
		)
		if err := rows.Scan(&post.ID, &problemID, &post.Username, &post.Text, &post.CreatedAt); err != nil {
			return err
		}
		attach(problemID, post)
	}
	return rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanProblem(row scanner) (*model.Problem, error) {
	var (
		p        model.Problem
		tagsJSON []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &tagsJSON, &p.Difficulty,
		&p.Reactions.Fire, &p.Reactions.Check, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Tags = []string{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, err
		}
	}
	p.Comments = []model.ProblemPost{}
	p.Answers = []model.ProblemPost{}
	return &p, nil
}
