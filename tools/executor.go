package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"github.com/mwillems/devassist/config"
	"github.com/mwillems/devassist/errors"
	"github.com/mwillems/devassist/session"
)

// pathTools are the builtins whose "path" argument is confined to the
// workspace root. Containment is executor policy, applied before dispatch,
// so no tool has to reimplement it.
var pathTools = map[string]bool{
	"read_file":                  true,
	"write_to_file":              true,
	"search_files":               true,
	"list_files":                 true,
	"list_code_definition_names": true,
}

// Executor runs one validated tool call at a time under a bounded deadline
// and maps every failure into the error kind taxonomy. It never lets a
// capability failure escape.
type Executor struct {
	registry *Registry
	root     string
	fsAccess *config.FilesystemAccess
	timeout  time.Duration
}

// NewExecutor creates an executor bound to a frozen registry and the
// configured workspace policy.
func NewExecutor(registry *Registry, cfg *config.Config) *Executor {
	root := cfg.WorkspaceRoot
	// Containment compares resolved paths, so the root itself must be
	// resolved too.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return &Executor{
		registry: registry,
		root:     root,
		fsAccess: &cfg.FilesystemAccess,
		timeout:  cfg.ToolTimeout(),
	}
}

// Execute validates and runs one tool call, returning a uniform result
// envelope. Validation failures produce a failed result without side
// effects. The invocation runs under the executor deadline; on timeout the
// result is returned immediately and the underlying operation is abandoned.
func (e *Executor) Execute(ctx context.Context, call session.ToolCall) session.ToolResult {
	res := session.ToolResult{ToolID: call.ToolID, Target: callTarget(call)}

	if err := e.registry.Validate(call.ToolID, call.Args); err != nil {
		return failed(res, err)
	}
	tool, _ := e.registry.Get(call.ToolID)

	args := call.Args
	if pathTools[call.ToolID] {
		resolved, err := e.resolvePath(call.Args["path"], call.ToolID == "write_to_file")
		if err != nil {
			return failed(res, err)
		}
		args = make(map[string]string, len(call.Args))
		for k, v := range call.Args {
			args[k] = v
		}
		args["path"] = resolved
	}

	// The deadline context deliberately does not inherit cancellation from
	// the session: a cancelled session lets the in-flight call finish or hit
	// its own deadline rather than being killed mid-write.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Kindf(errors.KindExecutionFailed, "tool '%s' panicked: %v", call.ToolID, r)}
			}
		}()
		output, err := tool.Execute(runCtx, args)
		done <- outcome{output: output, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return failed(res, out.err)
		}
		res.Success = true
		res.Output = out.output
		log.Debug().Str("tool", call.ToolID).Str("target", res.Target).Msg("tool executed")
		return res
	case <-runCtx.Done():
		log.Warn().Str("tool", call.ToolID).Dur("timeout", e.timeout).Msg("tool timed out, abandoning")
		return failed(res, errors.Kindf(errors.KindTimeout,
			"tool '%s' exceeded its %s deadline", call.ToolID, e.timeout))
	}
}

// resolvePath resolves a tool-supplied path against the workspace root and
// rejects anything that escapes it or that policy hides. For writes it also
// rejects read-only paths.
func (e *Executor) resolvePath(raw string, write bool) (string, error) {
	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(e.root, candidate)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", errors.WithKind(errors.KindInvalidArguments, errors.Wrapf(err, "bad path '%s'", raw))
	}

	// Containment is checked against the symlink-resolved path, so a link
	// inside the workspace cannot smuggle access to a target outside it.
	resolved, err := resolveSymlinks(abs)
	if err != nil {
		return "", errors.WithKind(errors.KindAccessDenied, errors.Wrapf(err, "could not resolve path '%s'", raw))
	}

	rel, err := filepath.Rel(e.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Kindf(errors.KindAccessDenied,
			"path '%s' resolves outside the workspace root", raw)
	}

	hidden, err := matchesAny(rel, e.fsAccess.Hidden)
	if err != nil {
		return "", err
	}
	if hidden {
		return "", errors.Kindf(errors.KindAccessDenied, "path '%s' is hidden", raw)
	}

	if write {
		readOnly, err := matchesAny(rel, e.fsAccess.ReadOnly)
		if err != nil {
			return "", err
		}
		if readOnly {
			return "", errors.Kindf(errors.KindAccessDenied, "path '%s' is read-only", raw)
		}
	}

	return resolved, nil
}

// resolveSymlinks resolves a path that may not exist yet by resolving its
// deepest existing ancestor, so new files created through a linked directory
// are still contained.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// matchesAny checks a workspace-relative path against a list of glob
// patterns.
func matchesAny(rel string, patterns []string) (bool, error) {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		match, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// callTarget picks the argument worth surfacing in the action log.
func callTarget(call session.ToolCall) string {
	for _, key := range []string{"path", "command", "url"} {
		if v := call.Args[key]; v != "" {
			return v
		}
	}
	if len(call.Args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(call.Args))
	for k := range call.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return call.Args[keys[0]]
}

func failed(res session.ToolResult, err error) session.ToolResult {
	res.Success = false
	res.ErrorKind = string(errors.KindOf(err))
	res.ErrorMsg = err.Error()
	return res
}
