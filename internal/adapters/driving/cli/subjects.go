package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects indexed for the provider",
	Long: `Queries the index and prints every subject in the configured provider's
partition, one per line. Nothing is modified.`,
	Args: cobra.NoArgs,
	RunE: runSubjects,
}

func init() {
	rootCmd.AddCommand(subjectsCmd)
}

func runSubjects(cmd *cobra.Command, _ []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	pub, release, err := buildPublisher(ctx, cmd, PublisherOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	subjects, err := pub.Subjects(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range subjects {
		fmt.Fprintln(out, s)
	}
	cmd.PrintErrf("%d subjects\n", len(subjects))
	return nil
}
