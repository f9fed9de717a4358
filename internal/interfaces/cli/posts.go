package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/interfaces/di"
)

// NewPostsCommand creates the posts subcommand
func NewPostsCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and manage blanket listings",
	}

	cmd.AddCommand(newPostsListCommand(container))
	cmd.AddCommand(newPostsShowCommand(container))
	cmd.AddCommand(newPostsMineCommand(container))
	cmd.AddCommand(newPostsCreateCommand(container))
	cmd.AddCommand(newPostsUpdateCommand(container))
	cmd.AddCommand(newPostsDeleteCommand(container))

	return cmd
}

func newPostsListCommand(container *di.Container) *cobra.Command {
	var season string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blanket posts",
		Example: `  mokomoko posts list
  mokomoko posts list --season winter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var posts []domain.Post
			var err error
			if season != "" {
				posts, err = container.Gateway.Posts().ListBySeason(cmd.Context(), domain.Season(season))
			} else {
				posts, err = container.Gateway.Posts().List(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			printPostTable(posts)
			return nil
		},
	}

	cmd.Flags().StringVar(&season, "season", "", "Filter by season (spring, summer, autumn, winter, all_season)")

	return cmd
}

func newPostsShowCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show one post in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			post, err := container.Gateway.Posts().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("#%d %s\n", post.ID, post.Title)
			fmt.Printf("   価格:   ¥%d\n", post.Price)
			fmt.Printf("   季節:   %s\n", post.Season)
			if len(post.Tags) > 0 {
				fmt.Printf("   タグ:   %s\n", strings.Join(post.Tags, ", "))
			}
			fmt.Printf("   お気に入り: %d\n", post.FavoritesCount)
			if post.Description != "" {
				fmt.Printf("\n%s\n", post.Description)
			}
			for _, img := range post.Images {
				fmt.Printf("   🖼  %s\n", img.URL)
			}
			return nil
		},
	}
}

func newPostsMineCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := container.Gateway.Posts().Mine(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			printPostTable(posts)
			return nil
		},
	}
}

func newPostsCreateCommand(container *di.Container) *cobra.Command {
	draft := postDraftFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new blanket post",
		Example: `  mokomoko posts create --title "モコモコ毛布" --price 3000 \
    --season winter --description "ふわふわです" --image ./blanket.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := container.Gateway.Posts().Create(cmd.Context(), draft.toDraft())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			fmt.Printf("✅ 投稿しました (#%d %s)\n", post.ID, post.Title)
			return nil
		},
	}

	draft.register(cmd)
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("image")

	return cmd
}

func newPostsUpdateCommand(container *di.Container) *cobra.Command {
	draft := postDraftFlags{}

	cmd := &cobra.Command{
		Use:   "update <post-id>",
		Short: "Edit one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			post, err := container.Gateway.Posts().Update(cmd.Context(), id, draft.toDraft())
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			fmt.Printf("✅ 更新しました (#%d %s)\n", post.ID, post.Title)
			return nil
		},
	}

	draft.register(cmd)

	return cmd
}

func newPostsDeleteCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := container.Gateway.Posts().Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			fmt.Printf("✅ 投稿 #%d を削除しました\n", id)
			return nil
		},
	}
}

// postDraftFlags collects the shared create/update flag set.
type postDraftFlags struct {
	title       string
	price       int
	description string
	season      string
	tags        []string
	imagePath   string
}

func (f *postDraftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title")
	cmd.Flags().IntVar(&f.price, "price", 0, "Price in yen")
	cmd.Flags().StringVar(&f.description, "description", "", "Description text")
	cmd.Flags().StringVar(&f.season, "season", "", "Season category")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tags (repeatable)")
	cmd.Flags().StringVar(&f.imagePath, "image", "", "Path to the listing photo")
}

func (f *postDraftFlags) toDraft() domain.PostDraft {
	return domain.PostDraft{
		Title:       f.title,
		Price:       f.price,
		Description: f.description,
		Season:      domain.Season(f.season),
		Tags:        f.tags,
		ImagePath:   f.imagePath,
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func printPostTable(posts []domain.Post) {
	if len(posts) == 0 {
		fmt.Println("投稿がありません")
		return
	}
	fmt.Printf("%-6s %-24s %-10s %-12s %s\n", "ID", "タイトル", "価格", "季節", "お気に入り")
	for _, p := range posts {
		fmt.Printf("%-6d %-24s ¥%-9d %-12s %d\n", p.ID, p.Title, p.Price, p.Season, p.FavoritesCount)
	}
}
