package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/rerack/internal/matcher"
)

var cacheCmd = &cobra.Command{
	Use:     "cache",
	GroupID: "reference",
	Short:   "Reference data cache management",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reference cache entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		stats, err := c.refCache.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("cache stats: %w", err)
		}

		if jsonOutput {
			return printJSON(stats)
		}
		fmt.Printf("exercises: %d\nmappings:  %d\nexpired:   %d\n", stats.Exercises, stats.Mappings, stats.Expired)
		return nil
	},
}

var cacheClearExpiredCmd = &cobra.Command{
	Use:   "clear-expired",
	Short: "Remove expired and outdated reference cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		removed, err := c.refCache.ClearExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("clear expired: %w", err)
		}
		fmt.Printf("removed %d entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every reference cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		if err := c.refCache.ClearAll(cmd.Context()); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Println("reference cache cleared")
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:     "match <exercise name>",
	GroupID: "reference",
	Short:   "Resolve a free text exercise name to a catalog exercise",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := openComponents(cmd.Context(), cfg, readSecrets())
		if err != nil {
			return err
		}
		defer c.close()

		name := strings.Join(args, " ")
		m := matcher.NewMatcher(c.catalog, c.refCache, nil)
		match, err := m.ResolveWithVariations(cmd.Context(), name, minFlag)
		if errors.Is(err, matcher.ErrNoMatch) {
			fmt.Printf("no match for %q\n", name)
			return nil
		} else if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(match)
		}
		fmt.Printf("%s -> %s [%s] confidence %.2f (query %q, cached %t)\n",
			name, match.Exercise.Name, match.Exercise.ExerciseID, match.Confidence, match.Query, match.FromCache)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearExpiredCmd, cacheClearCmd)
	matchCmd.Flags().Float64Var(&minFlag, "min", matcher.DefaultMinConfidence, "minimum confidence in [0, 1]")
}
