package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/interfaces/di"
)

// loginWait bounds how long a command waits for the session token after the
// provider reports a successful sign-in.
const loginWait = 20 * time.Second

// NewAuthCommand creates the auth subcommand
func NewAuthCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the MokoMoko session",
		Long:  `Sign in, sign up and manage the persisted MokoMoko session.`,
	}

	cmd.AddCommand(newAuthLoginCommand(container))
	cmd.AddCommand(newAuthSignupCommand(container))
	cmd.AddCommand(newAuthLogoutCommand(container))
	cmd.AddCommand(newAuthStatusCommand(container))
	cmd.AddCommand(newAuthResetPasswordCommand(container))

	return cmd
}

// newAuthLoginCommand creates the auth login subcommand
func newAuthLoginCommand(container *di.Container) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Example: `  mokomoko auth login --email you@example.com --password secret
  mokomoko auth login --email you@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if password == "" {
				var err error
				password, err = promptSecret("Password: ")
				if err != nil {
					return err
				}
			}

			if err := container.Provider.SignIn(ctx, email, password); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			waitCtx, cancel := context.WithTimeout(ctx, loginWait)
			defer cancel()
			if _, err := container.TokenStore.WaitForToken(waitCtx); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("✅ %s としてログインしました\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

// newAuthSignupCommand creates the auth signup subcommand
func newAuthSignupCommand(container *di.Container) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		Long:  `Create a provider account and register the matching MokoMoko user record.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if password == "" {
				var err error
				password, err = promptSecret("Password: ")
				if err != nil {
					return err
				}
			}

			waitCtx, cancel := context.WithTimeout(ctx, loginWait)
			defer cancel()
			user, err := container.Gateway.Users().Register(waitCtx, email, password)
			if err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}

			fmt.Printf("✅ アカウントを作成しました (user id: %d)\n", user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

// newAuthLogoutCommand creates the auth logout subcommand
func newAuthLogoutCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Provider.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			fmt.Println("✅ ログアウトしました")
			return nil
		},
	}
}

// newAuthStatusCommand creates the auth status subcommand
func newAuthStatusCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !container.TokenStore.Authenticated() {
				fmt.Println("❌ ログインしていません")
				fmt.Println("   'mokomoko auth login --email YOUR_EMAIL' でログインできます")
				return nil
			}

			fmt.Println("🔑 ログイン中です")
			if uid := container.Provider.CurrentUID(); uid != "" {
				fmt.Printf("   uid: %s\n", uid)
			}
			fmt.Printf("🌐 API: %s\n", container.Config.API.BaseURL)
			return nil
		},
	}
}

// newAuthResetPasswordCommand creates the auth reset-password subcommand
func newAuthResetPasswordCommand(container *di.Container) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Provider.ResetPassword(cmd.Context(), email); err != nil {
				return fmt.Errorf("%s", api.ErrorMessage(err))
			}
			fmt.Printf("📨 %s にパスワード再設定メールを送信しました\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.MarkFlagRequired("email")

	return cmd
}

// promptSecret reads a line from stdin. Echo suppression is left to the
// terminal; the prompt exists for scripted and piped use as well.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
