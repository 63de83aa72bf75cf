package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/lela/auth"
	"github.com/jmcleod/lela/internal/util"
)

// secretEnv names the environment variable holding the operator secret.
const secretEnv = "ADMIN_SECRET"

var adminSecretFile string

var rootCmd = &cobra.Command{
	Use:   "lela",
	Short: "Lela is a small story publishing site",
	Long: `Lela serves published stories to readers and an admin area where a single
operator, holding the admin secret, writes and publishes them.

The admin secret is read from the ADMIN_SECRET environment variable or from
the file named by --admin-secret-file. Without it, login is disabled.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&adminSecretFile, "admin-secret-file", "",
		"Read the admin secret from this file instead of $"+secretEnv)
}

// loadSecretStore resolves the operator secret. A secret file wins over the
// environment; a trailing newline in the file is ignored. An unset secret
// yields an unconfigured store, not an error.
func loadSecretStore(secretFile string) (*auth.SecretStore, error) {
	if secretFile == "" {
		return auth.NewSecretStore(os.Getenv(secretEnv)), nil
	}
	raw, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("reading admin secret file: %w", err)
	}
	defer util.WipeBytes(raw)
	secret := bytes.TrimRight(raw, "\r\n")
	return auth.NewSecretStore(string(secret)), nil
}
