package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/features"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/presenter"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

const (
	gitignoreFile        = ".gitignore"
	gitignoreStartMarker = "# Generated by rulesync - AI tool configuration files"
	gitignoreEndMarker   = "# End of rulesync generated files"
)

var gitignoreCmd = &cobra.Command{
	Use:   "gitignore",
	Short: "Add generated tool files to .gitignore",
	Long: `Add every location rulesync generates files into to .gitignore, between
marker comments. Running it again replaces the block instead of appending.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}
		changed, err := runGitignore(fsutil.NewOS(root))
		if err != nil {
			return err
		}
		if !changed {
			presenter.Info(".gitignore is already up to date")
			return nil
		}
		presenter.Success(fmt.Sprintf("Updated %s with %d entries", gitignoreFile, len(features.OutputLocations())+1))
		return nil
	},
}

// gitignoreBlock renders the marker-delimited block.
func gitignoreBlock() string {
	var b strings.Builder
	b.WriteString(gitignoreStartMarker + "\n")
	for _, loc := range features.OutputLocations() {
		b.WriteString("**/" + loc + "\n")
	}
	b.WriteString("**/" + path.Join(canonical.DirName, sync.LockFileName) + "\n")
	b.WriteString(gitignoreEndMarker + "\n")
	return b.String()
}

// runGitignore writes or refreshes the rulesync block and reports whether the
// file changed.
func runGitignore(fs fsutil.FS) (bool, error) {
	existing := ""
	if fs.Exists(gitignoreFile) {
		var err error
		if existing, err = fs.ReadFile(gitignoreFile); err != nil {
			return false, errors.Wrapf(err, "failed to read %s", gitignoreFile)
		}
	}

	updated := replaceBlock(existing, gitignoreBlock())
	if updated == existing {
		return false, nil
	}
	if err := fs.WriteFile(gitignoreFile, updated); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", gitignoreFile)
	}
	return true, nil
}

// replaceBlock swaps an existing marker block for block, or appends block
// after a blank line.
func replaceBlock(content, block string) string {
	start := strings.Index(content, gitignoreStartMarker)
	if start >= 0 {
		end := strings.Index(content[start:], gitignoreEndMarker)
		if end >= 0 {
			end += start + len(gitignoreEndMarker)
			if end < len(content) && content[end] == '\n' {
				end++
			}
			return content[:start] + block + content[end:]
		}
	}

	if content == "" {
		return block
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + block
}
