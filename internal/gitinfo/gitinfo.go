// Package gitinfo records the state of the git repository an experiment is
// launched from, by shelling out to the git binary.
package gitinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/labrig/internal/ctxlog"
)

// ErrNotRepo indicates the path is not inside a git repository.
var ErrNotRepo = errors.New("not a git repository")

// Error wraps a failed git command with its captured output.
type Error struct {
	Op     string // git subcommand that failed, e.g. "rev-parse HEAD"
	Output string // trimmed stderr (or stdout when stderr is empty)
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %s: %s", e.Op, e.Output)
	}
	return fmt.Sprintf("git %s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Info is the repository snapshot stored with every run.
type Info struct {
	Commit  string
	Message string
	Dirty   bool
	Diff    string
}

// Repo runs git commands against a single working directory.
type Repo struct {
	dir string
}

// Open resolves dir and verifies it belongs to a git work tree.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = abs
	if err := cmd.Run(); err != nil {
		return nil, ErrNotRepo
	}

	return &Repo{dir: abs}, nil
}

func (r *Repo) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", &Error{Op: strings.Join(args, " "), Output: msg, Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// HeadCommit returns the SHA of the current HEAD commit.
func (r *Repo) HeadCommit() (string, error) {
	return r.run("rev-parse", "HEAD")
}

// HeadMessage returns the full message of the current HEAD commit.
func (r *Repo) HeadMessage() (string, error) {
	return r.run("log", "-1", "--pretty=%B")
}

// Status returns the working tree status in short format.
func (r *Repo) Status() (string, error) {
	return r.run("status", "--short")
}

// IsDirty reports whether the working tree has uncommitted changes,
// including untracked files.
func (r *Repo) IsDirty() (bool, error) {
	status, err := r.Status()
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// Diff returns the unstaged changes to tracked files.
func (r *Repo) Diff() (string, error) {
	return r.run("diff")
}

// Capture snapshots the repository state for dir. A directory outside any
// git repository degrades to commit "unknown" with the dirty flag set, so a
// run record never blocks on missing history. Failures of individual git
// commands degrade the affected field the same way.
func Capture(ctx context.Context, dir string) *Info {
	log := ctxlog.FromContext(ctx)

	repo, err := Open(dir)
	if err != nil {
		log.Warn("Not a git repository.", "path", dir)
		return &Info{Commit: "unknown", Dirty: true}
	}

	info := &Info{Commit: "unknown", Dirty: true}
	if sha, err := repo.HeadCommit(); err == nil {
		info.Commit = sha
	} else {
		log.Debug("Could not read HEAD commit.", "path", dir, "error", err)
	}
	if msg, err := repo.HeadMessage(); err == nil {
		info.Message = msg
	}
	if dirty, err := repo.IsDirty(); err == nil {
		info.Dirty = dirty
	}
	if diff, err := repo.Diff(); err == nil {
		info.Diff = diff
	}
	return info
}
