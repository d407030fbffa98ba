package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/normalize"
)

func newConfigCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or write the preprocessing config document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.document()
			if err != nil {
				return err
			}
			// Reject documents the engine would refuse before writing them.
			if _, err := normalize.NewFromDocument(doc); err != nil {
				return err
			}
			if path == "" {
				return normalize.WriteDocument(cmd.OutOrStdout(), doc)
			}
			if err := normalize.SaveConfig(path, doc); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVar(&path, "write", "", "Write the document to this path instead of stdout")

	return cmd
}
