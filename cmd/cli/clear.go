// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var clearForce bool

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "force deletion without confirmation")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the on-disk resolver response cache",
	Long: `Deletes the zizmor cache directory located within the user's
standard cache location (e.g., $XDG_CACHE_HOME/zizmor on Linux).
Requires the --force flag to proceed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("failed to get user cache directory: %w", err)
		}
		cachePath := filepath.Join(userCacheDir, "zizmor")

		if _, err := os.Stat(cachePath); err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("Cache directory '%s' does not exist. Nothing to clear.\n", cachePath)
				return nil
			}
			return fmt.Errorf("failed to check status of cache directory '%s': %w", cachePath, err)
		}

		if !clearForce {
			return fmt.Errorf("cache directory '%s' exists. Use the -f or --force flag to confirm deletion", cachePath)
		}

		fmt.Printf("Removing cache directory '%s'...\n", cachePath)
		if err := os.RemoveAll(cachePath); err != nil {
			return fmt.Errorf("failed removing cache directory '%s': %w", cachePath, err)
		}
		fmt.Printf("Cache directory '%s' removed successfully.\n", cachePath)
		return nil
	},
}
