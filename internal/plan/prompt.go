// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import "fmt"

// =============================================================================
// PROMPTS
// =============================================================================

// Instruction is appended to long-form user requests so the model emits
// a plan instead of attempting one oversized reply.
const Instruction = `If this request is too large to answer well in a single response, do not answer it directly. Instead reply with a short note and a work plan as a JSON code block with this exact structure:

` + "```json" + `
{"title": "name of the overall document", "steps": ["first step", "second step"]}
` + "```" + `

Use 3-7 steps, each a self-contained instruction producing one section of the final result. Otherwise, answer normally.`

// StepPrompt builds the exchange text for one approved plan step. It
// restates the plan title and the step so each exchange stands on its
// own, and instructs the model to produce only that step's output.
func StepPrompt(title string, index, total int, step string) string {
	return fmt.Sprintf(
		"We are executing the approved plan %q, step %d of %d.\n\nStep: %s\n\nProduce only this step's output. Do not repeat earlier steps or anticipate later ones.",
		title, index+1, total, step)
}
