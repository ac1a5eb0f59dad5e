package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// Milestones returns the active milestones ordered by their order field
func (c *Client) Milestones(ctx context.Context) ([]domain.Milestone, error) {
	data, err := c.doRaw(ctx, http.MethodGet, "/learn/milestones/", nil)
	if err != nil {
		return nil, err
	}
	if err := validate(milestoneSchema, "milestones", data); err != nil {
		return nil, err
	}

	var all []domain.Milestone
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode milestones: %w", err)
	}

	active := domain.ActiveMilestones(all)
	if err := domain.ValidateOrder(active); err != nil {
		c.logger.Warn("milestone order is not dense", "error", err)
	}
	return active, nil
}

// LearnContents returns the video lessons of a milestone. The endpoint may
// answer with a single lesson object or a list. A 404 from learn-contents/
// is retried once on the learn/ route.
func (c *Client) LearnContents(ctx context.Context, milestoneID string) ([]domain.LearnContent, error) {
	base := "/learn/milestones/" + url.PathEscape(milestoneID)
	data, err := c.doRaw(ctx, http.MethodGet, base+"/learn-contents/", nil)
	if errors.Is(err, domain.ErrNotFound) {
		// Deployed backends route lessons to /learn/
		data, err = c.doRaw(ctx, http.MethodGet, base+"/learn/", nil)
	}
	if err != nil {
		return nil, err
	}
	if err := validate(learnSchema, "learn content", data); err != nil {
		return nil, err
	}

	var contents []domain.LearnContent
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var one domain.LearnContent
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("decode learn content: %w", err)
		}
		contents = []domain.LearnContent{one}
	} else if err := json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("decode learn content: %w", err)
	}

	domain.SortLearnContents(contents)
	return contents, nil
}

// CodeQuestions returns the coding tasks of a milestone
func (c *Client) CodeQuestions(ctx context.Context, milestoneID string) ([]domain.CodeQuestion, error) {
	path := "/learn/milestones/" + url.PathEscape(milestoneID) + "/questions/"
	data, err := c.doRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := validate(codeQuestionSchema, "code questions", data); err != nil {
		return nil, err
	}

	var questions []domain.CodeQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode code questions: %w", err)
	}
	return questions, nil
}

// MCQQuestions returns the quiz of a milestone ordered by question order
func (c *Client) MCQQuestions(ctx context.Context, milestoneID string) ([]domain.MCQQuestion, error) {
	path := "/learn/milestones/" + url.PathEscape(milestoneID) + "/mcq-questions/"
	data, err := c.doRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := validate(mcqSchema, "quiz questions", data); err != nil {
		return nil, err
	}

	var questions []domain.MCQQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}
	domain.SortMCQQuestions(questions)
	return questions, nil
}

// SubmitCode sends code to the judge
func (c *Client) SubmitCode(ctx context.Context, questionID, code string, inputs []string) (*domain.CodeSubmission, error) {
	if inputs == nil {
		inputs = []string{}
	}
	var result domain.CodeSubmission
	path := "/learn/questions/" + url.PathEscape(questionID) + "/submit/"
	err := c.do(ctx, http.MethodPost, path, map[string]any{
		"code":   code,
		"inputs": inputs,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitMCQ sends one quiz answer to the judge. The option key is sent
// as given; callers normalise it first.
func (c *Client) SubmitMCQ(ctx context.Context, questionID, option string) (*domain.MCQResult, error) {
	var result domain.MCQResult
	path := "/learn/mcq-questions/" + url.PathEscape(questionID) + "/submit/"
	err := c.do(ctx, http.MethodPost, path, map[string]string{
		"selected_option": option,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
