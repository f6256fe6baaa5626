package cli

import (
	"encoding/json"
	"fmt"
	"io"

	semver "github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/vesper-lang/vesper/internal/lifecycle"
)

// contextKinds lists every context the policy table can mention.
var contextKinds = []lifecycle.ContextKind{
	lifecycle.ContextVarInit,
	lifecycle.ContextLetInit,
	lifecycle.ContextReturnValue,
	lifecycle.ContextResultAssign,
	lifecycle.ContextOther,
}

// NewPolicyCommand creates the policy command: show the effective
// destructible-context table, optionally under a custom policy file
// and language version.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	var file, langVersion string

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show the effective destructible-context policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := lifecycle.DefaultPolicy()
			if file != "" {
				var err error
				policy, err = lifecycle.LoadPolicy(file)
				if err != nil {
					return err
				}
			}

			var version *semver.Version
			if langVersion != "" {
				var err error
				version, err = semver.NewVersion(langVersion)
				if err != nil {
					return fmt.Errorf("lang-version %q: %w", langVersion, err)
				}
			}

			return writePolicy(cmd.OutOrStdout(), rootOpts.Format, policy, version)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "policy file (YAML); defaults to the built-in whitelist")
	cmd.Flags().StringVar(&langVersion, "lang-version", "", "evaluate version-gated rules against this version")

	return cmd
}

func writePolicy(out io.Writer, format string, policy *lifecycle.Policy, version *semver.Version) error {
	if format == "json" {
		table := make(map[string]bool, len(contextKinds))
		for _, ctx := range contextKinds {
			table[ctx.String()] = policy.Allows(ctx, version)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}

	for _, ctx := range contextKinds {
		verdict := "forbidden"
		if policy.Allows(ctx, version) {
			verdict = "allowed"
		}
		fmt.Fprintf(out, "%-18s %s\n", ctx, verdict)
	}
	return nil
}
