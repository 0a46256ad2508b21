package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatorapp/curator-server/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var email, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.auth.CreateUser(cmd.Context(), service.CreateUserRequest{
				Email:       email,
				DisplayName: name,
			})
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout(), !noColor)
			p.Success("created user %s", user.ID)
			p.Detail("email: %s", user.Email)
			p.Detail("name:  %s", user.DisplayName)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address (required)")
	create.Flags().StringVar(&name, "name", "", "display name (default: the email's local part)")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}

	var userRef string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a user",
		Long: `Issue prints a bearer token for the given user id or email. The token
expires after ACCESS_TOKEN_DURATION.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.lookupUser(cmd.Context(), userRef)
			if err != nil {
				return err
			}
			token, err := a.auth.IssueToken(cmd.Context(), user.ID)
			if err != nil {
				return err
			}

			claims, err := a.tokens.VerifyAccessToken(token)
			if err != nil {
				return err
			}

			// The token alone goes to stdout so it can be captured by scripts.
			fmt.Fprintln(cmd.OutOrStdout(), token)
			newPrinter(cmd.ErrOrStderr(), !noColor).
				Detail("%s for %s, expires in %s", claims.TokenID, user.Email, claims.ExpiresIn(time.Now()).Round(time.Second))
			return nil
		},
	}
	issue.Flags().StringVar(&userRef, "user", "", "user id or email (required)")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}
