package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"augnotes/internal/auth"
	"augnotes/internal/config"
	"augnotes/internal/store"
)

const adminPasswordEnvKey = "AUGNOTES_ADMIN_PASSWORD"

func newAdminCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(
		newAdminAddCmd(cfg),
		newAdminListCmd(cfg),
		newAdminDisableCmd(cfg),
		newAdminEnableCmd(cfg),
		newAdminImportCmd(cfg),
	)
	return cmd
}

func newAdminAddCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add <email>",
		Short: "Create an admin account",
		Long: "Create an admin account. The password is read from " +
			adminPasswordEnvKey + " if set, otherwise from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := auth.NormalizeEmail(args[0])
			if err != nil {
				return err
			}

			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			if err := auth.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			return withStore(cfg, func(ctx context.Context, st *store.Store) error {
				if existing, err := st.GetUserByEmail(ctx, email); err != nil {
					return err
				} else if existing != nil {
					return fmt.Errorf("admin user %q already exists", email)
				}
				user, err := st.CreateAdminUser(ctx, email, hash, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin user %s (%s)\n", user.Email, user.ID)
				warnIfNotAllowed(cmd, cfg, user.Email)
				return nil
			})
		},
	}
}

func newAdminListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(ctx context.Context, st *store.Store) error {
				users, err := st.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no admin users")
					return nil
				}
				for _, user := range users {
					state := "enabled"
					if user.Disabled {
						state = "disabled"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.Email, state, user.CreatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newAdminDisableCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <email>",
		Short: "Disable an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDisabled(cmd, cfg, args[0], true)
		},
	}
}

func newAdminEnableCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <email>",
		Short: "Re-enable a disabled admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDisabled(cmd, cfg, args[0], false)
		},
	}
}

// adminImportEntry is one account in an import file.
type adminImportEntry struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Disabled bool   `yaml:"disabled"`
}

func newAdminImportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Bulk-create admin accounts from a YAML file",
		Long: `Bulk-create admin accounts from a YAML file of the form:

  - email: alice@example.com
    password: changeme123
  - email: bob@example.com
    password: changeme456
    disabled: true

Accounts that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var entries []adminImportEntry
			if err := yaml.Unmarshal(raw, &entries); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("%s contains no accounts", args[0])
			}

			return withStore(cfg, func(ctx context.Context, st *store.Store) error {
				created, skipped := 0, 0
				for _, entry := range entries {
					email, err := auth.NormalizeEmail(entry.Email)
					if err != nil {
						return fmt.Errorf("entry %q: %w", entry.Email, err)
					}
					if err := auth.ValidatePassword(entry.Password); err != nil {
						return fmt.Errorf("entry %q: %w", email, err)
					}

					if existing, err := st.GetUserByEmail(ctx, email); err != nil {
						return err
					} else if existing != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "skipping %s: already exists\n", email)
						skipped++
						continue
					}

					hash, err := auth.HashPassword(entry.Password)
					if err != nil {
						return err
					}
					user, err := st.CreateAdminUser(ctx, email, hash, time.Now())
					if err != nil {
						return err
					}
					if entry.Disabled {
						if err := st.SetUserDisabled(ctx, user.Email, true, time.Now()); err != nil {
							return err
						}
					}
					warnIfNotAllowed(cmd, cfg, user.Email)
					created++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d admin users (%d skipped)\n", created, skipped)
				return nil
			})
		},
	}
}

func setDisabled(cmd *cobra.Command, cfg *config.Config, rawEmail string, disabled bool) error {
	email, err := auth.NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	return withStore(cfg, func(ctx context.Context, st *store.Store) error {
		if err := st.SetUserDisabled(ctx, email, disabled, time.Now()); err != nil {
			return err
		}
		state := "enabled"
		if disabled {
			state = "disabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, email)
		return nil
	})
}

func withStore(cfg *config.Config, fn func(context.Context, *store.Store) error) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	defer st.Close()
	return fn(context.Background(), st)
}

func readPassword(cmd *cobra.Command) (string, error) {
	if password := os.Getenv(adminPasswordEnvKey); password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func warnIfNotAllowed(cmd *cobra.Command, cfg *config.Config, email string) {
	if len(cfg.AdminEmails) > 0 && !cfg.IsAdminEmail(email) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not in admin_emails and will not be able to log in\n", email)
	}
}
