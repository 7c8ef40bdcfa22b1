package claude

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestFromSDKMessage(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Model: anthropic.Model("claude-sonnet-4-20250514"),
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "0.8 "},
			{Type: "text", Text: "RELEVANT"},
		},
		Usage: anthropic.Usage{InputTokens: 420, OutputTokens: 7},
	}

	resp := fromSDKMessage(msg)

	if resp.Text != "0.8 RELEVANT" {
		t.Errorf("text = %q, want text blocks concatenated", resp.Text)
	}
	if resp.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.Usage.InputTokens != 420 || resp.Usage.OutputTokens != 7 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestFromSDKMessage_SkipsNonText(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking", Thinking: "weighing the evidence"},
			{Type: "text", Text: "SAME"},
		},
	}

	resp := fromSDKMessage(msg)
	if resp.Text != "SAME" {
		t.Errorf("text = %q, want only text blocks", resp.Text)
	}
}

func TestFromSDKMessage_Empty(t *testing.T) {
	t.Parallel()

	resp := fromSDKMessage(&anthropic.Message{})
	if resp.Text != "" {
		t.Errorf("text = %q, want empty", resp.Text)
	}
}
