package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/core/domain"
	"mokomoko.app/cli/internal/interfaces/di"
)

// BrowseFlags holds command-line flags for the browse command
type BrowseFlags struct {
	Season      string
	RefreshRate time.Duration
}

// seasonTabs is the cycling order for the season filter, "" meaning all.
var seasonTabs = []domain.Season{
	"",
	domain.SeasonSpring,
	domain.SeasonSummer,
	domain.SeasonAutumn,
	domain.SeasonWinter,
	domain.SeasonAllSeason,
}

// NewBrowseCommand creates the browse command
func NewBrowseCommand(container *di.Container) *cobra.Command {
	flags := &BrowseFlags{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive terminal view of the marketplace",
		Long: `Launch an interactive terminal view of the MokoMoko marketplace.

Listings come from the shared response cache, so switching between season
tabs and back never refetches within the revalidation window. Refreshing
sweeps every cached key the way a browser tab regaining focus would.

Examples:
  mokomoko browse                   # All listings
  mokomoko browse --season winter   # Start on the winter tab`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(container, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Season, "season", "", "Initial season tab")
	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 30*time.Second, "Automatic revalidation interval")

	return cmd
}

// runBrowse starts the marketplace TUI
func runBrowse(container *di.Container, flags *BrowseFlags) error {
	model := newBrowseModel(container, flags)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browse failed: %w", err)
	}
	return nil
}

// browseModel holds the state for the Bubble Tea marketplace view
type browseModel struct {
	container    *di.Container
	flags        *BrowseFlags
	seasonIdx    int
	posts        []domain.Post
	campaign     *domain.SeasonalCampaign
	selectedRow  int
	statusLine   string
	lastUpdate   time.Time
	windowWidth  int
	windowHeight int
	err          error
}

func newBrowseModel(container *di.Container, flags *BrowseFlags) browseModel {
	m := browseModel{
		container:  container,
		flags:      flags,
		lastUpdate: time.Now(),
	}
	for i, s := range seasonTabs {
		if string(s) == flags.Season {
			m.seasonIdx = i
		}
	}
	return m
}

// Init implements the Bubble Tea init method
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.loadPostsCmd(false),
		m.loadCampaignCmd(),
		m.loadFavoritesCmd(),
	)
}

// Update implements the Bubble Tea update method
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			return m, nil

		case "down", "j":
			if m.selectedRow < len(m.posts)-1 {
				m.selectedRow++
			}
			return m, nil

		case "tab", "s":
			m.seasonIdx = (m.seasonIdx + 1) % len(seasonTabs)
			m.selectedRow = 0
			return m, m.loadPostsCmd(false)

		case "f":
			if len(m.posts) == 0 {
				return m, nil
			}
			return m, m.toggleFavoriteCmd(m.posts[m.selectedRow].ID)

		case "r":
			// Sweep every cached key, like a browser tab regaining focus.
			return m, m.loadPostsCmd(true)
		}

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.loadPostsCmd(true))

	case postsLoadedMsg:
		m.posts = msg.posts
		m.lastUpdate = time.Now()
		if m.selectedRow >= len(m.posts) {
			m.selectedRow = 0
		}
		return m, nil

	case campaignLoadedMsg:
		m.campaign = msg.campaign
		return m, nil

	case favoritesLoadedMsg:
		// The shared set is read at render time; nothing to store here.
		return m, nil

	case favoriteToggledMsg:
		if msg.err != nil {
			m.statusLine = api.ErrorMessage(msg.err)
		} else if msg.favorited {
			m.statusLine = fmt.Sprintf("❤️  #%d をお気に入りに追加しました", msg.postID)
		} else {
			m.statusLine = fmt.Sprintf("🤍 #%d をお気に入りから外しました", msg.postID)
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements the Bubble Tea view method
func (m browseModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit", m.err)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderPostTable(),
		m.renderFooter(),
	)
}

func (m browseModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		Render("🛏  MokoMoko")

	lines := []string{}

	if m.campaign != nil {
		banner := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(m.campaign.ColorTheme)).
			Render("🎉 " + m.campaign.Name)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", banner))
	} else {
		lines = append(lines, title)
	}

	lines = append(lines, m.renderSeasonTabs())
	lines = append(lines, fmt.Sprintf("Last Update: %s | %d件", m.lastUpdate.Format("15:04:05"), len(m.posts)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m browseModel) renderSeasonTabs() string {
	labels := map[domain.Season]string{
		"":                     "すべて",
		domain.SeasonSpring:    "春",
		domain.SeasonSummer:    "夏",
		domain.SeasonAutumn:    "秋",
		domain.SeasonWinter:    "冬",
		domain.SeasonAllSeason: "通年",
	}

	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	tabs := make([]string, 0, len(seasonTabs))
	for i, s := range seasonTabs {
		style := inactive
		if i == m.seasonIdx {
			style = active
		}
		tabs = append(tabs, style.Render("["+labels[s]+"]"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, tabs...)
}

func (m browseModel) renderPostTable() string {
	if len(m.posts) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("\n  投稿がありません\n")
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render(fmt.Sprintf("%-4s │ %-24s │ %-8s │ %-10s │ %s",
			"ID", "タイトル", "価格", "季節", "❤"))

	rows := []string{header}
	favorites := m.container.Gateway.Favorites().Set()

	for i, post := range m.posts {
		rowStyle := lipgloss.NewStyle()
		if i == m.selectedRow {
			rowStyle = rowStyle.Background(lipgloss.Color("240"))
		}

		heart := " "
		if favorites.Has(post.ID) {
			heart = "❤"
		}

		row := fmt.Sprintf("%-4d │ %-24s │ ¥%-7d │ %-10s │ %s",
			post.ID,
			truncateString(post.Title, 24),
			post.Price,
			post.Season,
			heart,
		)
		rows = append(rows, rowStyle.Render(row))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m browseModel) renderFooter() string {
	controls := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render("Controls: [↑↓] Navigate | [s] Season | [f] Favorite | [r] Refresh | [q] Quit")

	if m.statusLine == "" {
		return controls
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.statusLine, controls)
}

// tickMsg is sent every refresh interval
type tickMsg time.Time

func (m browseModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// postsLoadedMsg is sent when the post list is loaded
type postsLoadedMsg struct {
	posts []domain.Post
}

// campaignLoadedMsg is sent when the current campaign is resolved
type campaignLoadedMsg struct {
	campaign *domain.SeasonalCampaign
}

// favoritesLoadedMsg is sent once the favorite set is seeded from the server
type favoritesLoadedMsg struct{}

// favoriteToggledMsg is sent after a favorite toggle settles
type favoriteToggledMsg struct {
	postID    int64
	favorited bool
	err       error
}

// errMsg is sent when an error occurs
type errMsg struct {
	err error
}

// loadPostsCmd loads the visible post list. With sweep set, every cached key
// is revalidated first.
func (m browseModel) loadPostsCmd(sweep bool) tea.Cmd {
	season := seasonTabs[m.seasonIdx]
	return func() tea.Msg {
		if sweep {
			m.container.Gateway.Cache().OnFocus()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var posts []domain.Post
		var err error
		if season == "" {
			posts, err = m.container.Gateway.Posts().List(ctx)
		} else {
			posts, err = m.container.Gateway.Posts().ListBySeason(ctx, season)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return postsLoadedMsg{posts: posts}
	}
}

// loadCampaignCmd resolves the currently running campaign for the banner.
func (m browseModel) loadCampaignCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		campaign, ok, err := m.container.Gateway.Campaigns().Current(ctx)
		if err != nil || !ok {
			return campaignLoadedMsg{campaign: nil}
		}
		return campaignLoadedMsg{campaign: &campaign}
	}
}

// loadFavoritesCmd seeds the favorite set so hearts show up on first paint.
// Signed-out browsing just renders without them.
func (m browseModel) loadFavoritesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, _ = m.container.Gateway.Favorites().List(ctx)
		return favoritesLoadedMsg{}
	}
}

// toggleFavoriteCmd flips the favorite state of a post.
func (m browseModel) toggleFavoriteCmd(postID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		favorited, err := m.container.Gateway.Favorites().Toggle(ctx, postID)
		return favoriteToggledMsg{postID: postID, favorited: favorited, err: err}
	}
}

// truncateString shortens a string to at most maxLen characters. Titles are
// mostly Japanese, so it counts runes, not bytes.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
