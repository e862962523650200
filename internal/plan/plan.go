// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PLAN
// =============================================================================

// Plan is the structured payload the model emits when it judges a
// request too large for a single reply. Immutable once parsed.
type Plan struct {
	// ID is a unique identifier for this plan
	ID string

	// Title is the model's name for the overall piece of work
	Title string

	// Steps are executed strictly in order, one exchange each
	Steps []string

	// CreatedAt is when the plan was parsed
	CreatedAt time.Time
}

// StepCount returns the number of steps.
func (p *Plan) StepCount() int {
	return len(p.Steps)
}

// Progress renders completed-of-total, e.g. "2/5".
func (p *Plan) Progress(completed int) string {
	return fmt.Sprintf("%d/%d", completed, len(p.Steps))
}

// =============================================================================
// PARSING
// =============================================================================

// maxPlanBytes bounds the JSON payload accepted from a reply.
const maxPlanBytes = 1024 * 1024

// Parse reads a closed ```json block body into a Plan.
//
// The schema is {"title": string, "steps": [string, ...]}; the steps
// array is expected to hold 3-7 entries but only "non-empty array of
// strings" is enforced. A parse failure means the reply is shown as
// ordinary prose - the caller logs the error and moves on; nothing is
// retried.
func Parse(body string) (*Plan, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty plan payload")
	}
	if len(body) > maxPlanBytes {
		return nil, fmt.Errorf("plan payload too large: %d bytes (max %d)", len(body), maxPlanBytes)
	}

	var data struct {
		Title string   `json:"title"`
		Steps []string `json:"steps"`
	}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("malformed plan JSON: %w", err)
	}

	if len(data.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}
	for i, s := range data.Steps {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("plan step %d is empty", i+1)
		}
	}

	return &Plan{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(data.Title),
		Steps:     data.Steps,
		CreatedAt: time.Now(),
	}, nil
}
