package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitecms/pkg/content"
	"sitecms/pkg/services"
)

var exportFormat string

var importCmd = &cobra.Command{
	Use:   "import [page] [file]",
	Short: "Load a page document into the content store",
	Long: `Reads a JSON, YAML or TOML document of the form
{section: {locale: tree}} and saves every section and locale in it
under page. Sections and locales not in the document are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, file := args[0], args[1]
		format, err := services.FormatOf(file)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		pc, err := services.DecodePage(data, format)
		if err != nil {
			return fmt.Errorf("decode %s: %w", file, err)
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n := 0
		for key, tree := range pc {
			for _, raw := range tree.Locales() {
				locale, err := content.ParseLocale(string(raw))
				if err != nil {
					return err
				}
				if err := store.Persist(cmd.Context(), page, key, locale, tree[raw]); err != nil {
					return err
				}
				n++
			}
		}
		logger.Info("page imported", zap.String("page", page), zap.Int("trees", n))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [page]",
	Short: "Print a page document from the content store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		pc, err := store.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := services.EncodePage(pc, exportFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, yaml or toml")
	rootCmd.AddCommand(importCmd, exportCmd)
}
