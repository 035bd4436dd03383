package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pitchforge/internal/config"
	"pitchforge/internal/store"
)

func newPackagesCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Inspect stored pitch packages",
	}
	cmd.AddCommand(newPackagesListCommand(configFlag))
	cmd.AddCommand(newPackagesShowCommand(configFlag))
	return cmd
}

func newPackagesListCommand(configFlag *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := openStore(*configFlag)
			if err != nil {
				return err
			}
			defer packages.Close()

			summaries, err := packages.ListPackages(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON || !stdoutIsTerminal() {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No packages stored")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.ID,
					truncate(s.Title, 40),
					strconv.Itoa(s.Quality),
					s.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Quality", "Created"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit summaries as JSON")
	return cmd
}

func newPackagesShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored package as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := openStore(*configFlag)
			if err != nil {
				return err
			}
			defer packages.Close()

			pkg, err := packages.GetPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pkg == nil {
				return fmt.Errorf("no package with id %s", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pkg)
		},
	}
}

func openStore(configPath string) (*store.Store, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.DatabasePath)
}
