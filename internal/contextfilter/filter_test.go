package contextfilter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/herointene/ai-translator-discord/internal/storage"
)

// fakeCompleter returns a canned reply, or an error, and counts calls.
type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func window(n int) []storage.Message {
	msgs := make([]storage.Message, n)
	for i := range msgs {
		msgs[i] = storage.Message{
			ID:         fmt.Sprintf("m%d", i),
			AuthorName: fmt.Sprintf("user%d", i),
			Content:    fmt.Sprintf("message %d", i),
		}
	}
	return msgs
}

func ids(msgs []storage.Message) string {
	var parts []string
	for _, m := range msgs {
		parts = append(parts, m.ID)
	}
	return strings.Join(parts, ",")
}

// TestApply_SmallWindowSkipsNetwork verifies windows of two or fewer
// messages come back unchanged without any completion call.
func TestApply_SmallWindowSkipsNetwork(t *testing.T) {
	fc := &fakeCompleter{reply: "[]"}
	f := New(fc)

	for n := 0; n <= 2; n++ {
		got := f.Apply(context.Background(), "target", window(n))
		if len(got) != n {
			t.Errorf("window(%d): got %d messages back", n, len(got))
		}
	}
	if fc.calls != 0 {
		t.Errorf("completer called %d times, want 0", fc.calls)
	}
}

func TestApply_SelectsIndices(t *testing.T) {
	fc := &fakeCompleter{reply: "[1, 3]"}
	f := New(fc)

	got := f.Apply(context.Background(), "target", window(4))
	if ids(got) != "m0,m2" {
		t.Errorf("filtered = %s, want m0,m2", ids(got))
	}
	if fc.calls != 1 {
		t.Errorf("completer called %d times, want 1", fc.calls)
	}
}

func TestApply_FailOpen(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "completion error", err: errors.New("boom")},
		{name: "non-JSON reply", reply: "I think messages 1 and 2 matter most."},
		{name: "non-list result", reply: `{"relevant": 2}`},
		{name: "empty array", reply: "[]"},
		{name: "all out of range", reply: "[9, 12]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&fakeCompleter{reply: tt.reply, err: tt.err})
			w := window(4)
			got := f.Apply(context.Background(), "target", w)
			if len(got) != len(w) {
				t.Errorf("got %d messages, want full window of %d", len(got), len(w))
			}
		})
	}
}

// TestApply_TolerantParsing covers fenced and commentary-wrapped replies.
func TestApply_TolerantParsing(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "code fence",
			reply: "```json\n[2]\n```",
			want:  "m1",
		},
		{
			name:  "bare fence",
			reply: "```\n[1, 2]\n```",
			want:  "m0,m1",
		},
		{
			name:  "commentary before array",
			reply: "Based on the topic overlap, the relevant messages are: [2, 4]",
			want:  "m1,m3",
		},
		{
			name:  "out-of-range entries dropped",
			reply: "[0, 2, 99]",
			want:  "m1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&fakeCompleter{reply: tt.reply})
			got := f.Apply(context.Background(), "target", window(4))
			if ids(got) != tt.want {
				t.Errorf("filtered = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

// TestBuildFilterPrompt spot-checks the enumeration format.
func TestBuildFilterPrompt(t *testing.T) {
	w := []storage.Message{
		{AuthorName: "alice", Content: "the demo is at noon"},
		{AuthorName: "bob", Content: "bring the slides"},
	}
	prompt := buildFilterPrompt("see you there", w)

	if !strings.Contains(prompt, "[1] alice: the demo is at noon") {
		t.Errorf("prompt missing first enumerated message:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[2] bob: bring the slides") {
		t.Errorf("prompt missing second enumerated message:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"see you there"`) {
		t.Errorf("prompt missing target content:\n%s", prompt)
	}
}
