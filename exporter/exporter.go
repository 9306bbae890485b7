// Package exporter wraps the external solution CLI that produces and
// unpacks solution archives. The tool is opaque: solsnap only passes
// arguments and surfaces exit codes.
package exporter

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultTool is the solution CLI binary invoked when none is configured.
const DefaultTool = "pac"

// CollaboratorError reports a non-zero exit from the external tool. No
// partial state is committed when this is returned.
type CollaboratorError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *CollaboratorError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// CLI invokes the solution tool as a blocking subprocess. There is no
// internal timeout; callers wanting cancellation pass a context.
type CLI struct {
	tool string
}

// New creates a CLI wrapper. An empty tool name falls back to DefaultTool.
func New(tool string) *CLI {
	if tool == "" {
		tool = DefaultTool
	}
	return &CLI{tool: tool}
}

// Export asks the tool to export the named solution into archivePath.
func (c *CLI) Export(ctx context.Context, solution string, managed bool, archivePath string) error {
	args := []string{
		"solution", "export",
		"--name", solution,
		"--path", archivePath,
		"--managed", strconv.FormatBool(managed),
		"--overwrite",
	}
	return c.run(ctx, args)
}

// Unpack expands archivePath into destDir.
func (c *CLI) Unpack(ctx context.Context, archivePath, destDir string) error {
	args := []string{
		"solution", "unpack",
		"--zipfile", archivePath,
		"--folder", destDir,
		"--allowDelete",
	}
	return c.run(ctx, args)
}

func (c *CLI) run(ctx context.Context, args []string) error {
	log.Debugf("exporter: running %s %s", c.tool, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.tool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &CollaboratorError{
			Tool:   c.tool,
			Args:   args,
			Output: strings.TrimSpace(string(output)),
			Err:    err,
		}
	}
	return nil
}
