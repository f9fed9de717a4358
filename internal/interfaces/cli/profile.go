package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/interfaces/di"
)

// NewProfileCommand creates the profile subcommand
func NewProfileCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit your profile",
	}

	cmd.AddCommand(newProfileShowCommand(container))
	cmd.AddCommand(newProfileUpdateCommand(container))
	cmd.AddCommand(newProfileUploadImageCommand(container))

	return cmd
}

func newProfileShowCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := container.Gateway.CurrentUserID(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			profile, err := container.Gateway.Profiles().Get(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("👤 %s\n", profile.Nickname)
			if profile.Bio != "" {
				fmt.Printf("   %s\n", profile.Bio)
			}
			if profile.SelectedIcon != "" {
				fmt.Printf("   アイコン: %s\n", profile.SelectedIcon)
			}
			if profile.ProfileImage != "" {
				fmt.Printf("   🖼  %s\n", profile.ProfileImage)
			}
			return nil
		},
	}
}

func newProfileUpdateCommand(container *di.Container) *cobra.Command {
	var nickname, bio, icon string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Edit your profile",
		Example: `  mokomoko profile update --nickname ふわこ --bio "毛布が好きです"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := container.Gateway.Profiles().Update(cmd.Context(), domain.ProfileDraft{
				Nickname:     nickname,
				Bio:          bio,
				SelectedIcon: icon,
			})
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("✅ プロフィールを更新しました (%s)\n", profile.Nickname)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name")
	cmd.Flags().StringVar(&bio, "bio", "", "Short self introduction")
	cmd.Flags().StringVar(&icon, "icon", "", "Selected icon name")
	cmd.MarkFlagRequired("nickname")

	return cmd
}

func newProfileUploadImageCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <path>",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := container.Gateway.Profiles().UploadImage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("✅ 画像をアップロードしました\n   %s\n", url)
			return nil
		},
	}
}
