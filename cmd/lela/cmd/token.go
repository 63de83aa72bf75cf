package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/lela/auth"
)

var errSecretNotConfigured = errors.New("admin secret not configured: set $" + secretEnv + " or --admin-secret-file")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Session token tools",
	Long:  `Commands for minting and inspecting admin session tokens offline.`,
}

// ---------------------------------------------------------------------------
// token sign
// ---------------------------------------------------------------------------

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Mint a session token signed with the admin secret",
	Long: `Prints a fresh session token. Send it as the lela_admin cookie to call the
API from scripts without posting the secret itself.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secrets, err := loadSecretStore(adminSecretFile)
		if err != nil {
			return err
		}
		defer secrets.Destroy()

		token, err := signToken(secrets, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func signToken(secrets *auth.SecretStore, now time.Time) (string, error) {
	if !secrets.Configured() {
		return "", errSecretNotConfigured
	}
	return auth.NewCodec(secrets).NewSessionToken(now)
}

// ---------------------------------------------------------------------------
// token verify
// ---------------------------------------------------------------------------

type tokenResult struct {
	Valid    bool          `json:"valid"`
	IssuedAt *time.Time    `json:"issued_at,omitempty"`
	Checks   []checkResult `json:"checks"`
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "fail", "warn"
	Detail string `json:"detail,omitempty"`
}

// verifyToken runs the same signature check the server does, then reports
// on the payload. Age is only a warning: the server never expires tokens,
// only the browser drops the cookie after auth.SessionMaxAge.
func verifyToken(codec *auth.Codec, token string, now time.Time) tokenResult {
	var result tokenResult

	if !codec.Verify(token) {
		result.Checks = append(result.Checks, checkResult{
			Name: "signature", Status: "fail", Detail: "token is malformed or not signed with this secret",
		})
		return result
	}
	result.Valid = true
	result.Checks = append(result.Checks, checkResult{Name: "signature", Status: "pass"})

	payload, ok := codec.OpenSession(token)
	if !ok || payload.IssuedAt == 0 {
		result.Checks = append(result.Checks, checkResult{
			Name: "session_payload", Status: "warn", Detail: "signed payload has no issue time",
		})
		return result
	}
	issued := payload.Issued().UTC()
	result.IssuedAt = &issued
	result.Checks = append(result.Checks, checkResult{Name: "session_payload", Status: "pass"})

	switch age := now.Sub(issued); {
	case age < 0:
		result.Checks = append(result.Checks, checkResult{
			Name: "issued_at", Status: "warn", Detail: fmt.Sprintf("issued %s in the future", (-age).Round(time.Second)),
		})
	case age > auth.SessionMaxAge:
		result.Checks = append(result.Checks, checkResult{
			Name:   "cookie_lifetime",
			Status: "warn",
			Detail: fmt.Sprintf("issued %s ago; browsers drop the cookie after %s but the server still accepts it",
				age.Round(time.Second), auth.SessionMaxAge),
		})
	default:
		result.Checks = append(result.Checks, checkResult{Name: "cookie_lifetime", Status: "pass"})
	}
	return result
}

func printHumanResult(w io.Writer, result tokenResult) {
	if result.IssuedAt != nil {
		fmt.Fprintf(w, "Issued at: %s\n\n", result.IssuedAt.Format(time.RFC3339))
	}
	for _, c := range result.Checks {
		tag := "[PASS]"
		switch c.Status {
		case "fail":
			tag = "[FAIL]"
		case "warn":
			tag = "[WARN]"
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "%s %s: %s\n", tag, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "%s %s\n", tag, c.Name)
		}
	}
	fmt.Fprintln(w)
	if result.Valid {
		fmt.Fprintln(w, "Result: VALID")
	} else {
		fmt.Fprintln(w, "Result: INVALID")
	}
}

func printJSONResult(w io.Writer, result tokenResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

var verifyJSONOutput bool

var verifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Check a session token against the admin secret",
	Long: `Checks the token's signature exactly as the server does and reports its
issue time. Exits 1 when the token is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(signCmd)
	tokenCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyJSONOutput, "json", false, "Output results as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	secrets, err := loadSecretStore(adminSecretFile)
	if err != nil {
		return err
	}
	defer secrets.Destroy()
	if !secrets.Configured() {
		return errSecretNotConfigured
	}

	result := verifyToken(auth.NewCodec(secrets), args[0], time.Now())

	out := cmd.OutOrStdout()
	if verifyJSONOutput {
		if err := printJSONResult(out, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	} else {
		printHumanResult(out, result)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}
