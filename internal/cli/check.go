// internal/cli/check.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/connect-client/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadValid(configPath)
		if err != nil {
			return fmt.Errorf("config %s: %w", configPath, err)
		}

		out := cmd.OutOrStdout()
		c := cfg.Connect
		fmt.Fprintf(out, "connect:  host=%s port=%d tls=%t enabled=%t\n", c.Host, c.Port, c.TLS, c.Enabled)
		fmt.Fprintf(out, "device:   endpoint=%s unit=%d base=%d\n", cfg.Device.Endpoint, cfg.Device.UnitID, cfg.Device.BaseAddress)
		if cfg.Status != nil {
			fmt.Fprintf(out, "status:   endpoint=%s unit=%d slot=%d\n", cfg.Status.Endpoint, cfg.Status.UnitID, cfg.Status.BaseSlot)
		}
		if cfg.API.Listen != "" {
			fmt.Fprintf(out, "api:      %s\n", cfg.API.Listen)
		}
		fmt.Fprintf(out, "fingerprint: %016x\n", c.Fingerprint())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
