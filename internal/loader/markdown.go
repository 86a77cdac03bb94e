// Package loader ingests markdown story files into the content tree and
// watches the content directory for changes.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/folio-sh/folio/internal/content"
)

// storyMeta is the YAML frontmatter of a story file.
type storyMeta struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	Category   string   `yaml:"category"`
	Categories []string `yaml:"categories"`
	Image      string   `yaml:"image"`
	Thumbnail  string   `yaml:"thumbnail"`
	Summary    string   `yaml:"summary"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// LoadStory parses one markdown file into a story record. The body is
// rendered to HTML under the "content" field; frontmatter categories keep
// both legacy single-string and list forms, normalized downstream.
func LoadStory(path string) (content.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var meta storyMeta
	body, err := frontmatter.Parse(f, &meta)
	if err != nil {
		return nil, fmt.Errorf("frontmatter %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}

	slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := meta.Title
	if title == "" {
		title = slug
	}

	rec := content.Record{
		"id":      content.String(slug),
		"title":   content.String(title),
		"date":    content.String(meta.Date),
		"content": content.String(buf.String()),
	}
	if meta.Summary != "" {
		rec["description"] = content.String(meta.Summary)
	}
	if meta.Image != "" {
		rec["src"] = content.String(meta.Image)
	}
	if meta.Thumbnail != "" {
		rec["thumbnail"] = content.String(meta.Thumbnail)
	}
	if len(meta.Categories) > 0 {
		list := make(content.List, len(meta.Categories))
		for i, c := range meta.Categories {
			list[i] = content.String(c)
		}
		rec["categories"] = list
	} else if meta.Category != "" {
		rec["category"] = content.String(meta.Category)
	}
	return rec, nil
}

// LoadStories reads every .md file under dir into a story list ordered by
// date descending. A missing directory yields an empty list.
func LoadStories(dir string) (content.List, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return content.List{}, nil
	}
	if err != nil {
		return nil, err
	}

	var stories []content.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		rec, err := LoadStory(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		stories = append(stories, rec)
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return content.FieldString(stories[i], "date") > content.FieldString(stories[j], "date")
	})

	list := make(content.List, len(stories))
	for i, rec := range stories {
		list[i] = rec
	}
	return list, nil
}

// LoadTree loads the startup content: content.json as the root tree, with
// stories/ merged under the "stories" field. A missing content.json yields
// an empty root so a fresh site starts clean.
func LoadTree(dir string) (content.Node, error) {
	root := content.Node(content.Record{})

	data, err := os.ReadFile(filepath.Join(dir, "content.json"))
	if err == nil {
		root, err = content.FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("content.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	stories, err := LoadStories(filepath.Join(dir, "stories"))
	if err != nil {
		return nil, err
	}
	if len(stories) > 0 {
		rec, ok := root.(content.Record)
		if !ok {
			return nil, fmt.Errorf("content.json root is %s, not a record", root.Kind())
		}
		rec["stories"] = stories
	}

	return root, nil
}
