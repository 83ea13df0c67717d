package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gambit/pkg/authoring"
)

var (
	validateLibrary string
	validateStrict  bool
	validateFacts   []string
	validateWatch   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a YAML library for authoring mistakes",
	Long: `Validate parses a library and reports errors, warnings, and hints
without compiling it into a planner. With --known-fact the validator also
flags fact names the world will never contain; --strict makes those errors.
With --watch the library is revalidated on every save until interrupted.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateLibrary, "library", "", "YAML action/goal library (required)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat unknown fact names as errors")
	validateCmd.Flags().StringArrayVar(&validateFacts, "known-fact", nil, "fact name the world provides (repeatable)")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "revalidate on file change until interrupted")
	_ = validateCmd.MarkFlagRequired("library")
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := authoring.NewValidator().WithStrictMode(validateStrict)
	for _, f := range validateFacts {
		v.AddKnownFact(f)
	}

	lib, err := authoring.LoadLibrary(validateLibrary)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	err = reportValidation(out, v, lib)
	if !validateWatch {
		return err
	}
	if err != nil {
		// Watch mode keeps going so the author can fix and save.
		fmt.Fprintln(out, err)
	}

	watcher, err := authoring.WatchLibrary(validateLibrary)
	if err != nil {
		return err
	}
	defer watcher.Close()
	fmt.Fprintf(out, "watching %s, ctrl-c to stop\n", validateLibrary)

	for {
		select {
		case lib, ok := <-watcher.Libraries:
			if !ok {
				return nil
			}
			if err := reportValidation(out, v, lib); err != nil {
				fmt.Fprintln(out, err)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "reload failed: %v\n", werr)
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func reportValidation(out io.Writer, v *authoring.Validator, lib *authoring.Library) error {
	result := v.ValidateLibrary(lib.Def)

	printIssues(out, "error", result.Errors)
	printIssues(out, "warning", result.Warnings)
	printIssues(out, "info", result.Info)

	if !result.IsValid() {
		return fmt.Errorf("%d error(s) in %s", len(result.Errors), validateLibrary)
	}
	fmt.Fprintf(out, "%s: ok (%d warning(s), %d hint(s))\n",
		validateLibrary, len(result.Warnings), len(result.Info))
	return nil
}

func printIssues(w io.Writer, label string, issues []authoring.Issue) {
	for _, issue := range issues {
		if issue.Field != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", label, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", label, issue.Message)
		}
		if issue.Suggestion != "" {
			fmt.Fprintf(w, "  suggestion: %s\n", issue.Suggestion)
		}
	}
}
