// Package render turns a validated question set into a self-contained HTML
// quiz artifact and manages the on-disk artifact store.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quizforge/quizforge/internal/quiz"
)

//go:embed quiz.html.tmpl
var quizTemplate string

var tmpl = template.Must(template.New("quiz").Funcs(template.FuncMap{
	"letter": func(i int) string { return string(rune('A' + i)) },
	"inc":    func(i int) int { return i + 1 },
}).Parse(quizTemplate))

type templateData struct {
	Title       string
	Sources     string
	GeneratedAt string
	Questions   []quiz.Question
	Total       int
}

// Render produces the complete HTML document for one quiz. The output embeds
// its own styling and scoring script so the file works offline, opened
// directly from disk.
func Render(questions []quiz.Question, meta quiz.Meta) ([]byte, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to render")
	}

	title := meta.Title
	if title == "" {
		title = "Quiz"
	}
	at := meta.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, templateData{
		Title:       title,
		Sources:     strings.Join(meta.SourceNames, ", "),
		GeneratedAt: at.UTC().Format("2006-01-02 15:04 UTC"),
		Questions:   questions,
		Total:       len(questions),
	})
	if err != nil {
		return nil, fmt.Errorf("executing quiz template: %w", err)
	}
	return buf.Bytes(), nil
}

// Store writes rendered artifacts under a single outputs directory and hands
// back paths for later retrieval.
type Store struct {
	dir string
}

// NewStore creates the outputs directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outputs dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes one quiz artifact and returns its path. Owner and job id are
// sanitized so a hostile identifier cannot escape the outputs directory.
func (s *Store) Save(owner, jobID string, content []byte) (string, error) {
	name := fmt.Sprintf("quiz_%s_%s.html", sanitize(owner), sanitize(jobID))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return path, nil
}

// Read returns a previously saved artifact by its stored path. The path must
// resolve inside the outputs directory.
func (s *Store) Read(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("artifact path outside outputs dir")
	}
	return os.ReadFile(abs)
}

// Publish renders a question set and saves the resulting artifact in one
// step, returning the stored path.
func (s *Store) Publish(owner, jobID string, questions []quiz.Question, meta quiz.Meta) (string, error) {
	content, err := Render(questions, meta)
	if err != nil {
		return "", err
	}
	return s.Save(owner, jobID, content)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
