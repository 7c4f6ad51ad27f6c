package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/threat-modeler/internal/cache"
	"github.com/ethanolivertroy/threat-modeler/internal/scanner"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached refinements",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached refinements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.New(scanner.CacheName, cache.DefaultTTL)
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", c.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
