package loom

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Artifact is a best-effort derived record of a file or content block the
// agent produced or referenced. ID is the deduplication key: the file path,
// or a synthesized key for non-file artifacts such as web search results.
type Artifact struct {
	ID      string
	Name    string
	Type    string
	Content string
	Path    string
}

// documentExts is the extension allowlist for heuristic path extraction,
// as a doublestar pattern matched against lowercased base names.
const documentExts = "*.{md,markdown,html,htm,txt,csv,tsv,json,pdf,docx,xlsx,pptx}"

// toolInput is the loosely-typed shape of tool invocation inputs. Only the
// fields extraction cares about; everything else is ignored.
type toolInput struct {
	FilePath     string `json:"file_path"`
	Path         string `json:"path"`
	NotebookPath string `json:"notebook_path"`
	Content      string `json:"content"`
	Query        string `json:"query"`
}

func (in toolInput) targetPath() string {
	switch {
	case in.FilePath != "":
		return in.FilePath
	case in.Path != "":
		return in.Path
	default:
		return in.NotebookPath
	}
}

// ExtractArtifacts scans the full pre-collapse event sequence for artifacts.
// Two strategies run in precedence order — structured extraction from
// file-writing and web-search tool invocations, then heuristic path matching
// over tool outputs and retained text — and the first writer of an ID wins.
// A malformed input shape skips that event only; extraction never fails.
func ExtractArtifacts(events []Event) []Artifact {
	seen := make(map[string]bool)
	var out []Artifact
	add := func(a Artifact) {
		if a.ID == "" || seen[a.ID] {
			return
		}
		seen[a.ID] = true
		out = append(out, a)
	}

	// Structured pass.
	for i, ev := range events {
		use, ok := ev.(ToolUseEvent)
		if !ok {
			continue
		}
		switch {
		case isFileWriteTool(use.Name):
			var in toolInput
			if err := json.Unmarshal(use.Input, &in); err != nil {
				continue
			}
			path := in.targetPath()
			if path == "" {
				continue
			}
			add(Artifact{
				ID:      path,
				Name:    filepath.Base(path),
				Type:    artifactType(path),
				Content: in.Content,
				Path:    path,
			})

		case isWebSearchTool(use.Name):
			var in toolInput
			if err := json.Unmarshal(use.Input, &in); err != nil {
				continue
			}
			query := strings.TrimSpace(in.Query)
			if query == "" {
				continue
			}
			result, ok := searchResultFor(events, i, use.ID)
			if !ok || !hasSearchMarkers(result.Output) {
				continue
			}
			add(Artifact{
				ID:      searchKey(query),
				Name:    query,
				Type:    "search",
				Content: result.Output,
			})
		}
	}

	// Heuristic pass over tool outputs and retained text. Collapse passes
	// non-text events through unchanged, so it yields exactly the retained
	// texts alongside every tool result.
	for _, ev := range Collapse(events) {
		switch e := ev.(type) {
		case ToolResultEvent:
			scanPaths(e.Output, add)
		case TextEvent:
			scanPaths(e.Content, add)
		}
	}

	return out
}

// MergeStored unions stored file records into the extracted artifacts.
// Records whose path already has an artifact are skipped, as are records
// typed "generated" — those were written through the structured tool path
// and are already represented.
func MergeStored(artifacts []Artifact, records []FileRecord) []Artifact {
	seen := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		seen[a.ID] = true
	}
	out := artifacts
	for _, r := range records {
		if r.Type == "generated" {
			continue
		}
		id := r.Path
		if id == "" {
			id = r.ID
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		name := r.ID
		if r.Path != "" {
			name = filepath.Base(r.Path)
		}
		typ := r.Type
		if typ == "" {
			typ = artifactType(r.Path)
		}
		out = append(out, Artifact{
			ID:      id,
			Name:    name,
			Type:    typ,
			Content: r.Preview,
			Path:    r.Path,
		})
	}
	return out
}

func isFileWriteTool(name string) bool {
	switch name {
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		return true
	}
	switch strings.ToLower(name) {
	case "write_file", "create_file", "str_replace_editor":
		return true
	}
	return false
}

func isWebSearchTool(name string) bool {
	return name == "WebSearch" || strings.ToLower(name) == "web_search"
}

// searchResultFor locates the result for the tool invocation at index i:
// by explicit id when present, otherwise the nearest following result before
// the next invocation.
func searchResultFor(events []Event, i int, id string) (ToolResultEvent, bool) {
	if id != "" {
		for _, ev := range events[i+1:] {
			if r, ok := ev.(ToolResultEvent); ok && r.ToolUseID == id {
				return r, true
			}
		}
		return ToolResultEvent{}, false
	}
	for _, ev := range events[i+1:] {
		switch e := ev.(type) {
		case ToolResultEvent:
			return e, true
		case ToolUseEvent:
			return ToolResultEvent{}, false
		}
	}
	return ToolResultEvent{}, false
}

// hasSearchMarkers reports whether a tool output looks like web search
// results rather than an error or empty response.
func hasSearchMarkers(output string) bool {
	return strings.Contains(output, "Links:") ||
		strings.Contains(output, `"url"`) ||
		strings.Contains(output, "Search results")
}

func searchKey(query string) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return fmt.Sprintf("search:%08x", h.Sum32())
}

func artifactType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	case ".csv", ".tsv", ".json":
		return "data"
	case ".pdf":
		return "pdf"
	case ".txt":
		return "text"
	default:
		return "file"
	}
}

// Path-matching patterns for the heuristic pass: backticked paths, absolute
// paths, and paths with non-ASCII segments. Candidates must still clear the
// document-extension allowlist.
var (
	backtickPathRe = regexp.MustCompile("`([^`\n]+\\.[A-Za-z0-9]{1,8})`")
	// The leading group anchors the path start so a path tail inside a
	// larger token (e.g. the "/summary.md" in "notes/summary.md") is not
	// matched on its own.
	absolutePathRe = regexp.MustCompile(`(?:^|[\s"'` + "`" + `(\[])(/[^\s"'` + "`" + `()\[\]{}<>:*?|]+\.[A-Za-z0-9]{1,8})`)
	unicodePathRe  = regexp.MustCompile(`([^\x00-\x7F][^\s"'` + "`" + `()\[\]{}<>:*?|]*\.[A-Za-z0-9]{1,8})`)
)

func scanPaths(content string, add func(Artifact)) {
	if content == "" {
		return
	}
	emit := func(matches [][]string) {
		for _, m := range matches {
			path := strings.TrimSpace(m[1])
			if !isDocumentPath(path) {
				continue
			}
			add(Artifact{
				ID:   path,
				Name: filepath.Base(path),
				Type: artifactType(path),
				Path: path,
			})
		}
	}
	emit(backtickPathRe.FindAllStringSubmatch(content, -1))
	emit(absolutePathRe.FindAllStringSubmatch(content, -1))
	emit(unicodePathRe.FindAllStringSubmatch(content, -1))
}

func isDocumentPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	ok, err := doublestar.Match(documentExts, base)
	return err == nil && ok
}
