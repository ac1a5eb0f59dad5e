package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// PersonalizedExercises lists the learner's generated exercises
func (c *Client) PersonalizedExercises(ctx context.Context) ([]domain.PersonalizedExercise, error) {
	var exercises []domain.PersonalizedExercise
	if err := c.do(ctx, http.MethodGet, "/learn/personalized-exercises/", nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// CreatePersonalizedExercise asks the backend to generate a new exercise
func (c *Client) CreatePersonalizedExercise(ctx context.Context, question string, difficulty domain.Difficulty) (*domain.PersonalizedExercise, error) {
	var exercise domain.PersonalizedExercise
	err := c.do(ctx, http.MethodPost, "/learn/personalized-exercises/", map[string]string{
		"question":   question,
		"difficulty": string(difficulty),
	}, &exercise)
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// SubmitPersonalizedExercise sends a solution for a generated exercise
func (c *Client) SubmitPersonalizedExercise(ctx context.Context, exerciseID, code string, inputs []string) (*domain.PersonalizedExercise, error) {
	if inputs == nil {
		inputs = []string{}
	}
	var exercise domain.PersonalizedExercise
	path := "/learn/personalized-exercises/" + url.PathEscape(exerciseID) + "/submit/"
	err := c.do(ctx, http.MethodPost, path, map[string]any{
		"code":   code,
		"inputs": inputs,
	}, &exercise)
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}
