package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"influencer-agent/internal/domain"
)

const stemTimeLayout = "060102_1504"

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"title": func(s string) string { return cases.Title(language.Und).String(s) },
	"join":  strings.Join,
}).Parse(`============================================================
🤖 AI INFLUENCER SOCIAL MEDIA POST
============================================================

📝 POST ID: {{.ID}}
📅 Generated: {{.Generated}}
📱 Platform: {{title .Platform}}
🎯 Niche: {{.Niche}}

Title: {{.Title}}
Hook: {{.Hook}}

Content:
{{.Content}}

Hashtags:
{{join .Hashtags " "}}
`))

type report struct {
	ID        string
	Generated string
	Platform  string
	Niche     string
	Title     string
	Hook      string
	Content   string
	Hashtags  []string
}

// FileWriter owns post file naming. Each post is written as a pair of files
// sharing a stem: <stem>.json with the full record and <stem>.txt with a
// readable report.
type FileWriter struct {
	dir string
	now func() time.Time
}

// NewFileWriter creates a FileWriter rooted at dir. The directory is created
// on first write.
func NewFileWriter(dir string) (*FileWriter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("repository: posts directory must not be empty")
	}
	return &FileWriter{dir: dir, now: time.Now}, nil
}

// Write persists post and returns the path of the structured record.
func (w *FileWriter) Write(post domain.Post) (string, error) {
	if post.ID == "" {
		return "", errors.New("repository: Write: post id is required")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("repository: Write: create dir: %w", err)
	}

	body, err := encodePost(post)
	if err != nil {
		return "", fmt.Errorf("repository: Write: %w", err)
	}
	text, err := renderReport(post)
	if err != nil {
		return "", fmt.Errorf("repository: Write: %w", err)
	}

	stem, err := w.freeStem(postStem(post, w.now()))
	if err != nil {
		return "", fmt.Errorf("repository: Write: %w", err)
	}
	jsonPath := filepath.Join(w.dir, stem+".json")
	if err := os.WriteFile(jsonPath, body, 0o644); err != nil {
		return "", fmt.Errorf("repository: Write: json record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, stem+".txt"), []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("repository: Write: text report: %w", err)
	}
	return jsonPath, nil
}

// freeStem appends _2, _3, ... until neither file of the pair exists.
func (w *FileWriter) freeStem(stem string) (string, error) {
	candidate := stem
	for n := 2; n < 1000; n++ {
		if !exists(filepath.Join(w.dir, candidate+".json")) && !exists(filepath.Join(w.dir, candidate+".txt")) {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", stem, n)
	}
	return "", fmt.Errorf("no free file name for %q", stem)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func postStem(post domain.Post, at time.Time) string {
	platform, niche := "general", "content"
	if post.Parameters != nil {
		if post.Parameters.Platform != "" {
			platform = post.Parameters.Platform
		}
		if post.Parameters.Niche != "" {
			niche = post.Parameters.Niche
		}
	}
	return fmt.Sprintf("%s_%s_%s", safeName(platform), safeName(niche), at.Format(stemTimeLayout))
}

func safeName(s string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
}

func encodePost(post domain.Post) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(post); err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	return buf.Bytes(), nil
}

func renderReport(post domain.Post) (string, error) {
	r := report{
		ID:        post.ID,
		Generated: post.GeneratedAt.Format(time.RFC3339),
	}
	if p := post.Parameters; p != nil {
		r.Platform, r.Niche = p.Platform, p.Niche
	}
	if t := post.Topic; t != nil {
		r.Title, r.Hook = t.Title, t.Hook
	}
	if c := post.Content; c != nil {
		r.Content = c.Text
	}
	if h := post.Hashtags; h != nil {
		r.Hashtags = h.Primary
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Read loads the structured record at path.
func (w *FileWriter) Read(path string) (domain.Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repository: Read: %w", err)
	}
	var post domain.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return domain.Post{}, fmt.Errorf("repository: Read: decode %s: %w", path, err)
	}
	return post, nil
}
