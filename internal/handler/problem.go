package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/model"
	"github.com/problemhub/problemhub/internal/repository"
)

// ProblemHandler serves the public problem board: posting problems and
// attaching reactions, comments and proposed answers.
type ProblemHandler struct {
	Problems *repository.ProblemRepo
}

func NewProblemHandler(problems *repository.ProblemRepo) *ProblemHandler {
	return &ProblemHandler{Problems: problems}
}

type createProblemReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
}
type reactionReq struct {
	Type string `json:"type"`
}
type postReq struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}
type difficultyReq struct {
	Difficulty string `json:"difficulty"`
}

// List handles GET /api/problems, newest first.
func (h *ProblemHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	problems, err := h.Problems.List(ctx)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching problems"})
	}
	return c.JSON(http.StatusOK, problems)
}

// Create handles POST /api/problems.
func (h *ProblemHandler) Create(c echo.Context) error {
	var req createProblemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || req.Description == "" || req.Difficulty == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, description and difficulty are required"})
	}
	if !model.ValidDifficulty(req.Difficulty) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be Easy, Medium or Hard"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	problem := &model.Problem{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Tags:        req.Tags,
	}
	if err := h.Problems.Create(ctx, problem); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error creating problem"})
	}
	saved, err := h.Problems.GetByID(ctx, problem.ID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error creating problem"})
	}
	return c.JSON(http.StatusCreated, saved)
}

// React handles POST /api/problems/:id/reaction with type "fire" or "check".
func (h *ProblemHandler) React(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid problem id"})
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Type != "fire" && req.Type != "check" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reaction type must be fire or check"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Problems.AddReaction(ctx, id, req.Type); err != nil {
		return h.problemError(c, err)
	}
	return h.respondWithProblem(c, ctx, id)
}

// Comment handles POST /api/problems/:id/comment.
func (h *ProblemHandler) Comment(c echo.Context) error {
	return h.addPost(c, h.Problems.AddComment)
}

// Answer handles POST /api/problems/:id/answer.
func (h *ProblemHandler) Answer(c echo.Context) error {
	return h.addPost(c, h.Problems.AddAnswer)
}

// DeleteComment handles DELETE /api/problems/:problemId/comment/:commentId.
func (h *ProblemHandler) DeleteComment(c echo.Context) error {
	return h.deletePost(c, "commentId", h.Problems.DeleteComment)
}

// DeleteAnswer handles DELETE /api/problems/:problemId/answer/:answerId.
func (h *ProblemHandler) DeleteAnswer(c echo.Context) error {
	return h.deletePost(c, "answerId", h.Problems.DeleteAnswer)
}

// SetDifficulty handles PATCH /api/problems/:id/difficulty.
func (h *ProblemHandler) SetDifficulty(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid problem id"})
	}
	var req difficultyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidDifficulty(req.Difficulty) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "difficulty must be Easy, Medium or Hard"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Problems.SetDifficulty(ctx, id, req.Difficulty); err != nil {
		return h.problemError(c, err)
	}
	return h.respondWithProblem(c, ctx, id)
}

func (h *ProblemHandler) addPost(c echo.Context, add func(ctx context.Context, problemID uint64, username, text string) error) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid problem id"})
	}
	var req postReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and text are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := add(ctx, id, req.Username, req.Text); err != nil {
		return h.problemError(c, err)
	}
	return h.respondWithProblem(c, ctx, id)
}

func (h *ProblemHandler) deletePost(c echo.Context, paramName string, del func(ctx context.Context, problemID, postID uint64) error) error {
	problemID, err := parseID(c.Param("problemId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid problem id"})
	}
	postID, err := parseID(c.Param(paramName))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + paramName})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := del(ctx, problemID, postID); err != nil {
		return h.problemError(c, err)
	}
	return h.respondWithProblem(c, ctx, problemID)
}

// respondWithProblem returns the freshly mutated problem, matching the
// board's update-then-render flow.
func (h *ProblemHandler) respondWithProblem(c echo.Context, ctx context.Context, id uint64) error {
	problem, err := h.Problems.GetByID(ctx, id)
	if err != nil {
		return h.problemError(c, err)
	}
	return c.JSON(http.StatusOK, problem)
}

func (h *ProblemHandler) problemError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "problem not found"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
}

func parseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
