// Package generator provides the built-in answer generator: a deterministic
// template renderer that streams the answer word by word. It stands in for a
// hosted language model in single-process deployments and tests.
package generator

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/datalens-ai/datalens/pkg/protocol"
)

// TemplateGenerator produces the answer by extracting the findings sections
// from the fused prompt and joining them into a short summary.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(ctx context.Context, prompt string) (protocol.FragmentStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &wordStream{fragments: fragment(render(prompt))}, nil
}

// render pulls the per-section findings out of the prompt and rewrites them
// as one continuous answer.
func render(prompt string) string {
	findings := sectionBodies(prompt)
	if len(findings) == 0 {
		return "No findings were available to answer this question."
	}

	return strings.Join(findings, " ")
}

// sectionBodies returns the first line of each "... findings:" section.
func sectionBodies(prompt string) []string {
	var bodies []string

	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		if !strings.HasSuffix(strings.TrimSpace(line), "findings:") {
			continue
		}

		for j := i + 1; j < len(lines); j++ {
			body := strings.TrimSpace(lines[j])
			if body == "" || strings.HasPrefix(body, "-") {
				continue
			}

			bodies = append(bodies, body)

			break
		}
	}

	return bodies
}

// fragment splits the answer into word fragments, keeping the separating
// space on the leading fragment so concatenation reproduces the text exactly.
func fragment(text string) []string {
	words := strings.Fields(text)
	fragments := make([]string, len(words))

	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}

		fragments[i] = word
	}

	return fragments
}

type wordStream struct {
	mu        sync.Mutex
	fragments []string
	pos       int
	closed    bool
}

func (s *wordStream) Recv(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pos >= len(s.fragments) {
		return "", io.EOF
	}

	fragment := s.fragments[s.pos]
	s.pos++

	return fragment, nil
}

func (s *wordStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}
