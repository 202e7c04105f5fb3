package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for logchase.

Pattern ids are completed from the file given by --patterns or
$LOGCHASE_PATTERNS.

Bash:
  $ source <(logchase completion bash)

Zsh:
  $ logchase completion zsh > "${fpath[1]}/_logchase"

Fish:
  $ logchase completion fish | source

PowerShell:
  PS> logchase completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		out := cmd.OutOrStdout()

		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

// completePatternIDs offers the ids in the pattern file, with descriptions,
// skipping ids already given.
func completePatternIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if patternsPath == "" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	compiled, err := pattern.CompileFile(patternsPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	given := make(map[string]bool, len(args))
	for _, a := range args {
		given[a] = true
	}
	// --ids takes a comma-separated list; complete the last element.
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		for _, id := range strings.Split(toComplete[:i], ",") {
			given[id] = true
		}
	}

	var out []string
	for _, c := range compiled {
		if given[c.ID] {
			continue
		}
		item := prefix + c.ID
		if c.Description != "" {
			item += "\t" + c.Description
		}
		out = append(out, item)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	describeCmd.ValidArgsFunction = completePatternIDs
	rootCmd.AddCommand(completionCmd)
}
