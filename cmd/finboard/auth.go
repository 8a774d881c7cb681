package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to external services",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "google",
		Short: "Obtain an OAuth token for the Google Sheets export",
		Long: `Prints a consent URL, waits for the redirect on OAUTH_REDIRECT_PORT and saves
the token to GOOGLE_OAUTH_TOKEN_FILE. The OAuth client must allow
http://localhost:<port>/callback as a redirect URI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateOAuth(); err != nil {
				return err
			}
			oc, err := google.OAuthConfig(a.cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()

			tok, err := google.Authorize(ctx, oc, "localhost:"+a.cfg.OAuthRedirectPort, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := google.SaveToken(a.cfg.GoogleOAuthTokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", a.cfg.GoogleOAuthTokenFile)
			return nil
		},
	})
	return cmd
}
