package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/errors"
)

const maxSearchMatches = 200

// ReadFileTool reads the entire content of a file. Path containment is
// enforced by the executor before the tool sees the arguments.
type ReadFileTool struct{}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Reads the entire content of a file. Args: path (string)."
}
func (t *ReadFileTool) ArgSpec() *ArgSpec { return &ArgSpec{Required: []string{"path"}} }

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	content, err := os.ReadFile(args["path"])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", args["path"])
	}
	return string(content), nil
}

// WriteFileTool writes content to a file, replacing it entirely. Missing
// parent directories are created.
type WriteFileTool struct{}

func (t *WriteFileTool) Name() string { return "write_to_file" }
func (t *WriteFileTool) Description() string {
	return "Writes content to a file, replacing it entirely. Args: path (string), content (string)."
}
func (t *WriteFileTool) ArgSpec() *ArgSpec {
	return &ArgSpec{Required: []string{"path", "content"}}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	path := args["path"]
	content := args["content"]
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create parent directory for '%s'", path)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write to file '%s'", path)
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// ListFilesTool lists files in a directory, optionally recursively. Hidden
// paths are skipped.
type ListFilesTool struct {
	fsAccess *config.FilesystemAccess
	root     string
}

func (t *ListFilesTool) Name() string { return "list_files" }
func (t *ListFilesTool) Description() string {
	return "Lists files in a directory. Args: path (string), recursive (string, 'true' or 'false', optional)."
}
func (t *ListFilesTool) ArgSpec() *ArgSpec {
	return &ArgSpec{Required: []string{"path"}, Optional: []string{"recursive"}}
}

func (t *ListFilesTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	dir := args["path"]
	recursive := args["recursive"] == "true"

	var files []string
	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if t.hidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				files = append(files, t.display(path))
			}
			return nil
		})
		if err != nil {
			return "", errors.Wrapf(err, "failed to list files in '%s'", dir)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", errors.Wrapf(err, "failed to list files in '%s'", dir)
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() || t.hidden(full) {
				continue
			}
			files = append(files, t.display(full))
		}
	}

	sort.Strings(files)
	if len(files) == 0 {
		return "(no files)", nil
	}
	return strings.Join(files, "\n"), nil
}

func (t *ListFilesTool) hidden(path string) bool    { return isHidden(path, t.root, t.fsAccess) }
func (t *ListFilesTool) display(path string) string { return displayPath(path, t.root) }

// SearchFilesTool searches file contents under a directory with a regular
// expression, reporting file, line number and the matching line.
type SearchFilesTool struct {
	fsAccess *config.FilesystemAccess
	root     string
}

func (t *SearchFilesTool) Name() string { return "search_files" }
func (t *SearchFilesTool) Description() string {
	return "Searches file contents under a directory with a regular expression. Args: path (string), pattern (string)."
}
func (t *SearchFilesTool) ArgSpec() *ArgSpec {
	return &ArgSpec{Required: []string{"path", "pattern"}}
}

func (t *SearchFilesTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	re, err := regexp.Compile(args["pattern"])
	if err != nil {
		return "", errors.WithKind(errors.KindInvalidArguments,
			errors.Wrapf(err, "invalid search pattern '%s'", args["pattern"]))
	}

	var matches []string
	truncated := false
	err = filepath.WalkDir(args["path"], func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if isHidden(path, t.root, t.fsAccess) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || truncated {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			// Unreadable files are skipped, not fatal to the search.
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", displayPath(path, t.root), i+1, strings.TrimSpace(line)))
				if len(matches) >= maxSearchMatches {
					truncated = true
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to search files in '%s'", args["path"])
	}

	if len(matches) == 0 {
		return "(no matches)", nil
	}
	result := strings.Join(matches, "\n")
	if truncated {
		result += fmt.Sprintf("\n[search stopped after %d matches]", maxSearchMatches)
	}
	return result, nil
}

// definitionPatterns maps file extensions to a regexp matching top-level
// definitions. Good enough for orientation; this is not a parser.
var definitionPatterns = map[string]*regexp.Regexp{
	".go": regexp.MustCompile(`^(?:func\s+(?:\([^)]*\)\s*)?|type\s+)(\w+)`),
	".py": regexp.MustCompile(`^(?:class|def)\s+(\w+)`),
	".js": regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?(?:function|class)\s+(\w+)`),
	".ts": regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?(?:function|class|interface)\s+(\w+)`),
	".rs": regexp.MustCompile(`^(?:pub\s+)?(?:fn|struct|enum|trait)\s+(\w+)`),
}

// ListCodeDefinitionsTool extracts top-level definition names from source
// files under a directory.
type ListCodeDefinitionsTool struct {
	fsAccess *config.FilesystemAccess
	root     string
}

func (t *ListCodeDefinitionsTool) Name() string { return "list_code_definition_names" }
func (t *ListCodeDefinitionsTool) Description() string {
	return "Lists top-level code definition names (functions, types, classes) in source files under a directory. Args: path (string)."
}
func (t *ListCodeDefinitionsTool) ArgSpec() *ArgSpec {
	return &ArgSpec{Required: []string{"path"}}
}

func (t *ListCodeDefinitionsTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	var out []string
	err := filepath.WalkDir(args["path"], func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if isHidden(path, t.root, t.fsAccess) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		re, ok := definitionPatterns[filepath.Ext(path)]
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var names []string
		for _, line := range strings.Split(string(data), "\n") {
			if m := re.FindStringSubmatch(line); m != nil {
				names = append(names, m[len(m)-1])
			}
		}
		if len(names) > 0 {
			out = append(out, fmt.Sprintf("%s: %s", displayPath(path, t.root), strings.Join(names, ", ")))
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to list code definitions in '%s'", args["path"])
	}

	if len(out) == 0 {
		return "(no definitions found)", nil
	}
	return strings.Join(out, "\n"), nil
}

// isHidden reports whether an absolute path matches the hidden globs,
// evaluated relative to the workspace root.
func isHidden(path, root string, fsAccess *config.FilesystemAccess) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	hidden, err := matchesAny(rel, fsAccess.Hidden)
	if err != nil {
		return false
	}
	return hidden
}

// displayPath renders a path relative to the workspace root when possible.
func displayPath(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
