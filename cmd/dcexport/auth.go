package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dcexport/pkg/auth"
	"dcexport/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Discord credentials",
	Long: `Manage stored Discord credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store a Discord token securely",
	Long: `Store a Discord token in the system keychain or an encrypted file.

The token is read from the terminal without echo. If no label is given
the credential is stored as "default" and used by scrape automatically.`,
	Example: `  # Store the default credential
  dcexport auth login

  # Store a credential under a named label
  dcexport auth login work-bot`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [label]",
	Short: "Remove stored credentials",
	Long: `Remove a stored Discord credential. With no label, the default
credential is removed. Use --all to remove every stored credential.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credentials",
	Long:  `List stored credentials with their tokens masked.`,
	Run:   runStatus,
}

var logoutAll bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove all stored credentials")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = strings.TrimSpace(args[0])
	}
	if label == "" {
		ui.PrintError("Label must not be empty")
		os.Exit(1)
	}

	fmt.Println(auth.TokenInstructions)
	fmt.Println()

	if existing, _ := manager.Retrieve(label); existing != nil {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Credential %q already exists. Overwrite? (y/N): ", label)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return
		}
	}

	fmt.Print("Token (input hidden): ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read token", err.Error())
		os.Exit(1)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		ui.PrintError("Token must not be empty")
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Token type [Bot]: ")
	typeInput, _ := reader.ReadString('\n')
	typeValue := strings.TrimSpace(typeInput)
	if typeValue == "" {
		typeValue = "Bot"
	}

	account := &auth.Account{
		Label:     label,
		Token:     token,
		TokenType: typeValue,
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credential", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credential %q stored", label))
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All credentials removed")
		return
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = strings.TrimSpace(args[0])
	}

	if err := manager.Delete(label); err != nil {
		ui.PrintError("Failed to remove credential", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credential %q removed", label))
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list credentials", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored credentials. Run 'dcexport auth login' to add one.")
		return
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%s  %s token %s  (modified %s)\n",
			ui.Cyan(sanitized.Label),
			sanitized.TokenType,
			ui.Dim(sanitized.Token),
			sanitized.LastModified.Format("2006-01-02 15:04"))
	}
}
