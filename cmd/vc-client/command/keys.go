package command

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcontroller/internal/keymap"
)

var (
	keysProfile      string
	keysProfilesFile string
	keysAll          bool
)

// keysCmd lists the key names a server profile understands
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the key names of a mapping profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := keymap.LoadRegistry(keysProfilesFile)
		if err != nil {
			return err
		}

		names := []string{keysProfile}
		if keysAll {
			names = registry.Names()
		}
		for _, name := range names {
			table, err := registry.Profile(name)
			if err != nil {
				return err
			}
			color.Cyan("%s (%d keys)", table.Name(), table.Len())
			for _, key := range table.ListKeys() {
				code, _ := table.Lookup(key)
				fmt.Printf("  %-16s %d\n", key, code)
			}
		}
		return nil
	},
}

func init() {
	keysCmd.Flags().StringVar(&keysProfile, "profile", cfg.Profile, "profile to list")
	keysCmd.Flags().StringVar(&keysProfilesFile, "profiles-file", cfg.ProfilesFile, "extra YAML profiles")
	keysCmd.Flags().BoolVar(&keysAll, "all", false, "list every profile")
	rootCmd.AddCommand(keysCmd)
}
