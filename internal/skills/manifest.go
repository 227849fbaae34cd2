// Package skills implements the Skill Loader (spec.md §6): discovery of
// skill manifests across a three-tier search path (project → workspace
// → user-global), YAML-frontmatter + markdown-body parsing, and an
// fsnotify-driven hot-reload cache.
//
// No teacher code handles skills at all — cmd/root.go registers a
// skillsCmd() that is never defined anywhere in the pack — so the
// manifest format and discovery mechanics here are grounded instead on
// regul4rj0hn-architecture-mcp's markdown-manifest scanner and
// filesystem monitor; see DESIGN.md.
package skills

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	goldast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Manifest is a single skill's parsed definition.
type Manifest struct {
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	AllowedTools      []string `yaml:"allowed-tools"`
	RequiresContainer bool     `yaml:"requires-container"`

	Body       string `yaml:"-"`
	SourcePath string `yaml:"-"`
}

const frontmatterDelim = "---"

// ParseManifest splits a skill file into its YAML frontmatter and
// markdown body, decodes the frontmatter, and validates the markdown
// body parses cleanly (catching malformed manifests before they reach
// a running session).
func ParseManifest(path string, data []byte) (*Manifest, error) {
	content := string(data)
	if !strings.HasPrefix(content, frontmatterDelim) {
		return nil, fmt.Errorf("skills: %s: missing frontmatter delimiter", path)
	}

	rest := content[len(frontmatterDelim):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end == -1 {
		return nil, fmt.Errorf("skills: %s: unterminated frontmatter block", path)
	}
	frontmatter := rest[:end]
	body := strings.TrimPrefix(rest[end+len(frontmatterDelim)+1:], "\n")

	var m Manifest
	if err := yaml.Unmarshal([]byte(frontmatter), &m); err != nil {
		return nil, fmt.Errorf("skills: %s: parse frontmatter: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("skills: %s: manifest missing required 'name' field", path)
	}
	if m.Description == "" {
		return nil, fmt.Errorf("skills: %s: manifest missing required 'description' field", path)
	}

	if err := validateMarkdown(body); err != nil {
		return nil, fmt.Errorf("skills: %s: invalid markdown body: %w", path, err)
	}

	m.Body = body
	m.SourcePath = path
	return &m, nil
}

// validateMarkdown parses body with goldmark and rejects raw HTML
// blocks/inlines — a skill manifest's body may end up rendered in a
// terminal or web UI, and raw HTML has no business in a tool-provided
// instruction document — adapted from
// regul4rj0hn-architecture-mcp/pkg/scanner's
// parser.WithAutoHeadingID() manifest-scanning convention.
func validateMarkdown(body string) error {
	md := goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	doc := md.Parser().Parse(text.NewReader([]byte(body)))

	var rejectErr error
	_ = goldast.Walk(doc, func(n goldast.Node, entering bool) (goldast.WalkStatus, error) {
		if !entering {
			return goldast.WalkContinue, nil
		}
		switch n.Kind() {
		case goldast.KindHTMLBlock, goldast.KindRawHTML:
			rejectErr = fmt.Errorf("raw HTML is not permitted in a skill manifest body")
			return goldast.WalkStop, nil
		}
		return goldast.WalkContinue, nil
	})
	if rejectErr != nil {
		return rejectErr
	}

	var buf bytes.Buffer
	return md.Renderer().Render(&buf, []byte(body), doc)
}

// LoadFile reads and parses a single manifest file from disk.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skills: read %s: %w", path, err)
	}
	return ParseManifest(path, data)
}
