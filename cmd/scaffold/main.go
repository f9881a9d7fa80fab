package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/todoforge/todoforge/internal/scaffold"
)

func main() {
	var root string
	var module string

	rootCmd := &cobra.Command{
		Use:   "todoforge-scaffold",
		Short: "Code generator for todoforge features",
		Long:  "Stamps out the five-file skeleton (model, repository, service, handler, routes) for a new feature",
	}

	featureCmd := &cobra.Command{
		Use:   "feature <name>",
		Short: "Generate a new feature skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := scaffold.New(root, module)
			written, err := gen.Feature(args[0])
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Println("created", path)
			}
			return nil
		},
	}
	featureCmd.Flags().StringVar(&root, "root", ".", "repository root to generate into")
	featureCmd.Flags().StringVar(&module, "module", "github.com/todoforge/todoforge", "module path used in generated imports")

	rootCmd.AddCommand(featureCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
