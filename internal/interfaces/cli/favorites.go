package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/interfaces/di"
)

// NewFavoritesCommand creates the favorites subcommand
func NewFavoritesCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage your favorited posts",
	}

	cmd.AddCommand(newFavoritesListCommand(container))
	cmd.AddCommand(newFavoritesToggleCommand(container))

	return cmd
}

func newFavoritesListCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your favorited posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			favorites, err := container.Gateway.Favorites().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			if len(favorites) == 0 {
				fmt.Println("お気に入りはまだありません")
				return nil
			}
			for _, f := range favorites {
				post, err := container.Gateway.Posts().Get(cmd.Context(), f.PostID)
				if err != nil {
					fmt.Printf("❤️  #%d\n", f.PostID)
					continue
				}
				fmt.Printf("❤️  #%d %s (¥%d)\n", post.ID, post.Title, post.Price)
			}
			return nil
		},
	}
}

func newFavoritesToggleCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <post-id>",
		Short: "Favorite or unfavorite a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			favorited, err := container.Gateway.Favorites().Toggle(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			if favorited {
				fmt.Printf("❤️  投稿 #%d をお気に入りに追加しました\n", id)
			} else {
				fmt.Printf("🤍 投稿 #%d をお気に入りから外しました\n", id)
			}
			return nil
		},
	}
}
