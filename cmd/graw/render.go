package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// item is the printable view of one entity.
type item struct {
	Kind    string    `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Author  string    `json:"author,omitempty"`
	Title   string    `json:"title,omitempty"`
	Body    string    `json:"body,omitempty"`
	Score   int       `json:"score"`
	Created time.Time `json:"created"`
	Depth   int       `json:"depth"`
}

func itemOf(e types.Entity, depth int) item {
	it := item{Kind: e.GetKind(), Name: e.GetName(), Depth: depth}
	switch v := e.(type) {
	case *types.Comment:
		it.Author, it.Body, it.Score = v.Author.String(), v.Body, v.Score
		it.Title = v.LinkTitle
		it.Created = unix(v.CreatedUTC)
	case *types.Submission:
		it.Author, it.Title, it.Body, it.Score = v.Author.String(), v.Title, v.SelfText, v.Score
		it.Created = unix(v.CreatedUTC)
	case *types.Message:
		it.Author, it.Title, it.Body = v.Author.String(), v.Subject, v.Body
		it.Created = unix(v.CreatedUTC)
	case *types.ModAction:
		it.Author, it.Title = v.Mod.String(), v.Action
		it.Body = strings.TrimSpace(v.Details + " " + v.TargetFullname)
		it.Created = unix(v.CreatedUTC)
	case *types.WikiPage:
		it.Author, it.Body = v.RevisionBy.String(), v.ContentMD
		it.Created = unix(v.RevisionDate)
	case *types.Subreddit:
		it.Title, it.Body = v.DisplayName, v.PublicDescription
		it.Created = unix(v.CreatedUTC)
	case *types.Ban:
		it.Author, it.Body = v.User.String(), v.Note
	}
	return it
}

func unix(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

var renderers = map[string]func(io.Writer, []item) error{
	"text": renderText,
	"json": renderJSON,
	"html": renderHTML,
}

func renderText(w io.Writer, items []item) error {
	bw := bufio.NewWriter(w)
	for _, it := range items {
		indent := strings.Repeat("  ", it.Depth)

		header := []string{it.Name}
		if it.Author != "" {
			header = append(header, "u/"+it.Author)
		}
		if !it.Created.IsZero() {
			header = append(header, humanize.Time(it.Created))
		}
		if it.Kind == types.KindComment || it.Kind == types.KindLink {
			header = append(header, humanize.Comma(int64(it.Score))+" points")
		}
		fmt.Fprintf(bw, "%s%s\n", indent, strings.Join(header, "  "))

		if it.Title != "" {
			fmt.Fprintf(bw, "%s  %s\n", indent, it.Title)
		}
		for line := range strings.Lines(strings.TrimSpace(it.Body)) {
			fmt.Fprintf(bw, "%s  | %s", indent, line)
			if !strings.HasSuffix(line, "\n") {
				bw.WriteByte('\n')
			}
		}
	}
	// bufio keeps the first write error and returns it from Flush.
	return bw.Flush()
}

func renderJSON(w io.Writer, items []item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
}

// bodyHTML converts a markdown body into sanitized HTML.
func bodyHTML(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"body":     bodyHTML,
	"humanize": humanize.Time,
	"indent":   func(depth int) int { return depth * 2 },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>graw</title></head>
<body>
{{- range .}}
<article id="{{.Name}}" style="margin-left: {{indent .Depth}}em">
<header>{{if .Author}}<b>u/{{.Author}}</b> {{end}}{{if not .Created.IsZero}}<time datetime="{{.Created.Format "2006-01-02T15:04:05Z07:00"}}">{{humanize .Created}}</time>{{end}}</header>
{{- if .Title}}
<h2>{{.Title}}</h2>
{{- end}}
{{body .Body}}
</article>
{{- end}}
</body>
</html>
`))

func renderHTML(w io.Writer, items []item) error {
	return page.Execute(w, items)
}
