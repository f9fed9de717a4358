package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/interfaces/di"
)

// NewCampaignsCommand creates the campaigns subcommand
func NewCampaignsCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "View and administer seasonal campaigns",
	}

	cmd.AddCommand(newCampaignsListCommand(container))
	cmd.AddCommand(newCampaignsCurrentCommand(container))
	cmd.AddCommand(newCampaignsToggleCommand(container))

	return cmd
}

func newCampaignsListCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			campaigns, err := container.Gateway.Campaigns().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			for _, c := range campaigns {
				status := "⏸"
				if c.Active {
					status = "▶"
				}
				fmt.Printf("%s #%-3d %s (%s〜%s) %s\n",
					status, c.ID, renderCampaignName(c), c.StartMonth, c.EndMonth, c.CampaignType)
			}
			return nil
		},
	}
}

func newCampaignsCurrentCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the campaigns running right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			primary, ok, err := container.Gateway.Campaigns().Current(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			if !ok {
				fmt.Println("現在開催中のキャンペーンはありません")
				return nil
			}

			fmt.Printf("🎉 %s\n", renderCampaignName(primary))
			if primary.Description != "" {
				fmt.Printf("   %s\n", primary.Description)
			}

			secondary, ok, err := container.Gateway.Campaigns().CurrentSecondary(cmd.Context())
			if err == nil && ok {
				fmt.Printf("➕ %s\n", renderCampaignName(secondary))
			}
			return nil
		},
	}
}

func newCampaignsToggleCommand(container *di.Container) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "toggle <campaign-id>",
		Short: "Switch a campaign on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := container.Gateway.Campaigns().ToggleActive(cmd.Context(), id, active); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			if active {
				fmt.Printf("▶ キャンペーン #%d を開始しました\n", id)
			} else {
				fmt.Printf("⏸ キャンペーン #%d を停止しました\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", true, "Target state")

	return cmd
}

// renderCampaignName colors the campaign name with its configured theme.
func renderCampaignName(c domain.SeasonalCampaign) string {
	if c.ColorTheme == "" {
		return c.Name
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(c.ColorTheme)).
		Render(c.Name)
}
