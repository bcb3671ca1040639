package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcraft/internal/gemini"
	"adcraft/internal/plan"
)

const plannerReply = "```json\n{\"text_swap\":\"X\",\"product_swap\":\"Y\",\"edits\":\"Z\"}\n```"

func testInputs() Inputs {
	return Inputs{
		Reference: gemini.ImageInput{Data: []byte("ref"), MimeType: "image/png"},
		Logo:      gemini.ImageInput{Data: []byte("logo"), MimeType: "image/png"},
		Product:   gemini.ImageInput{Data: []byte("product"), MimeType: "image/png"},
	}
}

// newTestFlow serves both stages from one fake endpoint: the text
// model path returns plannerBody, the image model path imageBody.
func newTestFlow(t *testing.T, plannerBody, imageBody string) (*Flow, *int) {
	t.Helper()

	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("content-type", "application/json")
		if strings.Contains(r.URL.Path, "image") {
			_, _ = io.WriteString(w, imageBody)
			return
		}
		_, _ = io.WriteString(w, plannerBody)
	}))
	t.Cleanup(srv.Close)

	gem := gemini.New(gemini.Options{
		APIKey:     "k",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	return NewFlow(FlowOptions{Gemini: gem}), calls
}

func plannerJSON(text string, in, out int) string {
	return `{
		"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}],
		"usageMetadata":{"promptTokenCount":` + strconv.Itoa(in) + `,"candidatesTokenCount":` + strconv.Itoa(out) + `}
	}`
}

func imageJSON(payload []byte, in, out int) string {
	return `{
		"candidates":[{"content":{"parts":[{"inlineData":{"data":"` + base64.StdEncoding.EncodeToString(payload) + `","mimeType":"image/png"}}]}}],
		"usage":{"promptTokenCount":` + strconv.Itoa(in) + `,"candidatesTokenCount":` + strconv.Itoa(out) + `}
	}`
}

func TestFlowRunSequencesBothStages(t *testing.T) {
	flow, calls := newTestFlow(t,
		plannerJSON(plannerReply, 10, 5),
		imageJSON([]byte("final-ad"), 3, 7),
	)

	image, usage, err := flow.Run(context.Background(), "campaign", testInputs())
	require.NoError(t, err)
	assert.Equal(t, []byte("final-ad"), image)
	assert.Equal(t, gemini.Usage{InputTokens: 13, OutputTokens: 12}, usage)
	assert.Equal(t, 2, *calls)
}

func TestFlowAbortsOnMalformedPlan(t *testing.T) {
	flow, calls := newTestFlow(t,
		plannerJSON("I have no plan for you today.", 10, 5),
		imageJSON([]byte("never"), 0, 0),
	)

	image, usage, err := flow.Run(context.Background(), "campaign", testInputs())
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrMalformed))
	assert.Nil(t, image)
	// Plan-stage usage is still accounted for.
	assert.Equal(t, gemini.Usage{InputTokens: 10, OutputTokens: 5}, usage)
	// The render stage never fired.
	assert.Equal(t, 1, *calls)
}

func TestFlowPropagatesNoImagePayload(t *testing.T) {
	flow, _ := newTestFlow(t,
		plannerJSON(plannerReply, 10, 5),
		plannerJSON("text instead of an image", 3, 7),
	)

	image, _, err := flow.Run(context.Background(), "campaign", testInputs())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gemini.ErrNoImagePayload))
	assert.Nil(t, image)
}

func TestFlowPlanParsesExactValues(t *testing.T) {
	flow, _ := newTestFlow(t, plannerJSON(plannerReply, 1, 1), "")

	p, _, err := flow.Plan(context.Background(), "campaign", testInputs())
	require.NoError(t, err)
	assert.Equal(t, plan.Plan{TextSwap: "X", ProductSwap: "Y", Edits: "Z"}, p)
}

func jsonString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}
