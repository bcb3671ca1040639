// Package plan turns raw planner output into the structured campaign
// plan consumed by the render stage.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrMalformed marks planner output that is not valid JSON or is
// missing one of the required keys.
var ErrMalformed = errors.New("malformed plan")

// Plan is the three-field instruction set produced by the planner
// stage. All fields are free-form natural language and are fed
// verbatim into the image-generation prompt.
type Plan struct {
	TextSwap    string `json:"text_swap"`
	ProductSwap string `json:"product_swap"`
	Edits       string `json:"edits"`
}

var (
	fencedMu    sync.Mutex
	fencedCache = map[string]*regexp.Regexp{}
)

func fencedRegexp(lang string) *regexp.Regexp {
	fencedMu.Lock()
	defer fencedMu.Unlock()

	if re, ok := fencedCache[lang]; ok {
		return re
	}
	re := regexp.MustCompile("(?s)```" + regexp.QuoteMeta(lang) + `\s*(.*?)` + "```")
	fencedCache[lang] = re
	return re
}

// ExtractFenced returns the content of the first fenced code block
// tagged with lang. Models are told not to use markdown fences, but
// some do anyway; when no block is found the input is returned
// unchanged rather than treated as an error.
func ExtractFenced(text, lang string) string {
	if m := fencedRegexp(lang).FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return text
}

// Parse extracts the JSON payload from raw planner output and decodes
// it, requiring all three keys to be present and non-empty JSON
// members. Validation happens here, at the parse boundary, so the
// render stage never sees a partial plan.
func Parse(raw string) (Plan, error) {
	payload := ExtractFenced(raw, "json")

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &keys); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	for _, key := range []string{"text_swap", "product_swap", "edits"} {
		if _, ok := keys[key]; !ok {
			return Plan{}, fmt.Errorf("%w: missing key %q", ErrMalformed, key)
		}
	}

	var p Plan
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}
