package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nerdsmedia",
	Short: "Community gaming news site",
	Long: `NerdsMedia serves a community-first gaming news site: visitors can
publish news posts, upload gallery images and add videos, all kept in
the site's local store alongside the bundled sample content.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "nerdsmedia.yml", "config file path")
}
