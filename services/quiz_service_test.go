package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"

	"smartquizzer/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

const twoQuestions = `[
  {"question": "2+2?", "options": ["3", "4", "5", "6"], "correct_answer": 1, "explanation": "Basic addition."},
  {"question": "Capital of France?", "options": ["Paris", "Rome", "Oslo", "Bern"], "correct_answer": 0, "explanation": "Paris."}
]`

var countPattern = regexp.MustCompile(`^Generate (\d+) multiple choice quiz questions about (.+)\.`)

func requestedCount(t *testing.T, prompt string) (int, string) {
	t.Helper()
	m := countPattern.FindStringSubmatch(prompt)
	require.Len(t, m, 3, "prompt: %s", prompt)
	n, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return n, m[2]
}

func TestClampQuestionCount(t *testing.T) {
	tests := map[int]int{-3: 5, 0: 5, 1: 5, 5: 5, 15: 15, 50: 50, 51: 50, 999: 50}
	for in, want := range tests {
		assert.Equal(t, want, ClampQuestionCount(in), "count %d", in)
	}
}

func TestGenerate_ClampsRequestedCount(t *testing.T) {
	for in, want := range map[int]int{1: 5, 999: 50, 12: 12} {
		fake := &fakeCompleter{reply: twoQuestions}
		svc := NewQuizService(fake, testLogger())

		_, err := svc.Generate(context.Background(), "Math", in)
		require.NoError(t, err)

		require.Len(t, fake.prompts, 1)
		got, topic := requestedCount(t, fake.prompts[0])
		assert.Equal(t, want, got)
		assert.Equal(t, "Math", topic)
	}
}

func TestGenerate_DefaultTopic(t *testing.T) {
	fake := &fakeCompleter{reply: twoQuestions}
	svc := NewQuizService(fake, testLogger())

	_, err := svc.Generate(context.Background(), "   ", 10)
	require.NoError(t, err)

	_, topic := requestedCount(t, fake.prompts[0])
	assert.Equal(t, DefaultTopic, topic)
}

func TestBuildPrompt_DescribesShape(t *testing.T) {
	prompt := BuildPrompt("History", 7)

	assert.Contains(t, prompt, "Generate 7 multiple choice quiz questions about History.")
	for _, field := range []string{`"question"`, `"options"`, `"correct_answer"`, `"explanation"`} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "exactly 4 options")
	assert.Contains(t, prompt, "Return ONLY the JSON array")
}

func TestGenerate_ReturnsQuestionsInOrder(t *testing.T) {
	svc := NewQuizService(&fakeCompleter{reply: twoQuestions}, testLogger())

	questions, err := svc.Generate(context.Background(), "Mixed", 5)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.JSONEq(t,
		`{"question": "2+2?", "options": ["3", "4", "5", "6"], "correct_answer": 1, "explanation": "Basic addition."}`,
		string(questions[0]))
	assert.JSONEq(t,
		`{"question": "Capital of France?", "options": ["Paris", "Rome", "Oslo", "Bern"], "correct_answer": 0, "explanation": "Paris."}`,
		string(questions[1]))
}

func TestGenerate_KeepsReplyUnmodified(t *testing.T) {
	item := `{"question":"q","options":["a","b","c","d"],"correct_answer":1,"explanation":"e","difficulty":"hard"}`
	svc := NewQuizService(&fakeCompleter{reply: "[" + item + "]"}, testLogger())

	questions, err := svc.Generate(context.Background(), "Math", 5)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, item, string(questions[0]))
}

func TestParseQuestions_AnswerIndexNumbers(t *testing.T) {
	svc := NewQuizService(&fakeCompleter{}, testLogger())
	reply := func(answer string) string {
		return `[{"question":"q","options":["a","b","c","d"],"correct_answer":` + answer + `,"explanation":"e"}]`
	}

	for _, answer := range []string{"0", "1.0", "3", "3.0", "2e0"} {
		questions, err := svc.ParseQuestions(reply(answer))
		require.NoError(t, err, answer)
		assert.Contains(t, string(questions[0]), `"correct_answer":`+answer)
	}

	for _, answer := range []string{"1.5", "3.01", "-0.5", `"1"`, "null"} {
		_, err := svc.ParseQuestions(reply(answer))
		assert.ErrorIs(t, err, ErrMalformedResponse, answer)
	}
}

func TestGenerate_MalformedReplies(t *testing.T) {
	tests := map[string]string{
		"prose":             "Sure! Here are your questions: ...",
		"empty":             "",
		"empty array":       "[]",
		"null":              "null",
		"object":            `{"question": "q"}`,
		"three options":     `[{"question":"q","options":["a","b","c"],"correct_answer":0,"explanation":"e"}]`,
		"index too large":   `[{"question":"q","options":["a","b","c","d"],"correct_answer":4,"explanation":"e"}]`,
		"negative index":    `[{"question":"q","options":["a","b","c","d"],"correct_answer":-1,"explanation":"e"}]`,
		"missing answer":    `[{"question":"q","options":["a","b","c","d"],"explanation":"e"}]`,
		"missing question":  `[{"options":["a","b","c","d"],"correct_answer":0,"explanation":"e"}]`,
		"blank option":      `[{"question":"q","options":["a","","c","d"],"correct_answer":0,"explanation":"e"}]`,
		"null element":      `[null]`,
		"number element":    `[1]`,
		"second one broken": `[{"question":"q","options":["a","b","c","d"],"correct_answer":0,"explanation":"e"},{"question":"q2"}]`,
	}

	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			svc := NewQuizService(&fakeCompleter{reply: reply}, testLogger())

			questions, err := svc.Generate(context.Background(), "Math", 5)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Nil(t, questions)
		})
	}
}

func TestGenerate_UpstreamErrorsPassThrough(t *testing.T) {
	rateLimited := &llm.Error{Kind: llm.KindRateLimited, StatusCode: 429, Err: errors.New("slow down")}

	svc := NewQuizService(&fakeCompleter{err: rateLimited}, testLogger())
	_, err := svc.Generate(context.Background(), "Math", 5)

	kind, ok := llm.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindRateLimited, kind)
	assert.NotErrorIs(t, err, ErrMalformedResponse)

	svc = NewQuizService(&fakeCompleter{err: llm.ErrMissingCredential}, testLogger())
	_, err = svc.Generate(context.Background(), "Math", 5)
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
}

func TestCheckUpstream(t *testing.T) {
	fake := &fakeCompleter{reply: "ready"}
	svc := NewQuizService(fake, testLogger())

	out, err := svc.CheckUpstream(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", out)
	assert.Len(t, fake.prompts, 1)
}
