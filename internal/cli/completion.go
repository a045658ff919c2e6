package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand generates shell completion scripts on the command output.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gns3-snapshot.

To load completions:

Bash:
  $ source <(gns3-snapshot completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ gns3-snapshot completion bash > /etc/bash_completion.d/gns3-snapshot
  # macOS:
  $ gns3-snapshot completion bash > $(brew --prefix)/etc/bash_completion.d/gns3-snapshot

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ gns3-snapshot completion zsh > "${fpath[1]}/_gns3-snapshot"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gns3-snapshot completion fish | source

  # To load completions for each session, execute once:
  $ gns3-snapshot completion fish > ~/.config/fish/completions/gns3-snapshot.fish

PowerShell:
  PS> gns3-snapshot completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> gns3-snapshot completion powershell > gns3-snapshot.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}
