package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"name": "value"}`,
			want:    `{"name": "value"}`,
		},
		{
			name:    "json fence",
			content: "```json\n{\"name\": \"value\"}\n```",
			want:    `{"name": "value"}`,
		},
		{
			name:    "plain fence",
			content: "```\n{\"name\": \"value\"}\n```",
			want:    `{"name": "value"}`,
		},
		{
			name:    "prose around the object",
			content: "Here is the profile you asked for:\n{\"name\": \"value\"}\nLet me know if you need changes.",
			want:    `{"name": "value"}`,
		},
		{
			name:    "trailing comma removed",
			content: `{"name": "value",}`,
			want:    `{"name": "value"}`,
		},
		{
			name:    "no json",
			content: "I could not produce a profile.",
			want:    "",
		},
		{
			name:    "empty input",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.content); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, expected %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare array",
			content: `[{"a": 1}, {"a": 2}]`,
			want:    `[{"a": 1}, {"a": 2}]`,
		},
		{
			name:    "json fence",
			content: "```json\n[{\"a\": 1}]\n```",
			want:    `[{"a": 1}]`,
		},
		{
			name:    "prose around the array",
			content: "Here are the ideas:\n[{\"a\": 1}]",
			want:    `[{"a": 1}]`,
		},
		{
			name:    "nested trailing commas removed",
			content: `[{"a": 1,}, {"a": 2},]`,
			want:    `[{"a": 1}, {"a": 2}]`,
		},
		{
			name:    "no array",
			content: "nothing to see",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONArray(tt.content); got != tt.want {
				t.Errorf("ExtractJSONArray(%q) = %q, expected %q", tt.content, got, tt.want)
			}
		})
	}
}
