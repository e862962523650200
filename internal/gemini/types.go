// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Conversation roles. The API calls the assistant side "model".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of a request or reply turn. Exactly one field is set.
type Part struct {
	// Text content
	Text string `json:"text,omitempty"`

	// InlineData embeds attachment bytes directly in the request
	InlineData *Blob `json:"inlineData,omitempty"`

	// FileData references previously registered out-of-band content
	FileData *FileRef `json:"fileData,omitempty"`
}

// Blob is inline binary content, base64-encoded on the wire.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileRef is an out-of-band attachment handle returned by Upload.
type FileRef struct {
	MIMEType string `json:"mimeType"`
	URI      string `json:"fileUri"`
}

// Content is one conversation turn: ordered parts plus a role. The final
// part of a user turn is always the exchange text.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// GenerateRequest is the request body for the generate endpoints.
type GenerateRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
}

// NewTextContent builds a single-part text turn.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// generateResponse is one streamed chunk of a reply. Concatenating the
// candidate texts across chunks yields the full reply.
type generateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

// text returns the concatenated candidate text of this chunk.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// blocked reports whether this chunk carries a safety rejection.
func (r *generateResponse) blocked() bool {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return true
	}
	return len(r.Candidates) > 0 && r.Candidates[0].FinishReason == "SAFETY"
}

// apiError is the error envelope the API returns on non-200 responses.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// uploadResponse is the files endpoint response envelope.
type uploadResponse struct {
	File struct {
		Name     string `json:"name"`
		URI      string `json:"uri"`
		MIMEType string `json:"mimeType"`
	} `json:"file"`
}
