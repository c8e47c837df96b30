package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fraudintel/internal/account/models"
	accountstore "fraudintel/internal/account/store"
	"fraudintel/internal/platform/config"
	id "fraudintel/pkg/domain"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Provision accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with an entitlement",
	Long: `create provisions one account. Members of an enterprise pool pass
--role enterprise_member and --parent with the pool owner's id; their own
entitlement is ignored while the parent exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		account, err := accountFromFlags(cmd)
		if err != nil {
			return err
		}

		db, err := openDB(ctx, config.FromEnv())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := accountstore.NewPostgres(db).Save(ctx, account); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(account)
	},
}

func accountFromFlags(cmd *cobra.Command) (*models.Account, error) {
	flags := cmd.Flags()
	email, _ := flags.GetString("email")
	name, _ := flags.GetString("name")
	role, _ := flags.GetString("role")
	kind, _ := flags.GetString("kind")
	limit, _ := flags.GetInt("limit")
	validFor, _ := flags.GetDuration("valid-for")
	authoritative, _ := flags.GetBool("authoritative")
	parent, _ := flags.GetString("parent")

	if email == "" {
		return nil, fmt.Errorf("--email is required")
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:    id.NewAccountID(),
		Email: email,
		Name:  name,
		Role:  models.Role(role),
		Entitlement: models.Entitlement{
			Kind:                       models.Kind(kind),
			Status:                     models.StatusActive,
			Limit:                      limit,
			CanAccessAuthoritativeData: authoritative,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if !account.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if !account.Entitlement.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	if validFor > 0 {
		ends := now.Add(validFor)
		if account.Entitlement.Kind == models.KindTrial {
			account.Entitlement.TrialEndsAt = &ends
		} else {
			account.Entitlement.PackageEndsAt = &ends
		}
	}
	if parent != "" {
		parentID, err := id.ParseAccountID(parent)
		if err != nil {
			return nil, err
		}
		account.ParentAccountID = &parentID
	}
	return account, nil
}

func init() {
	f := accountCreateCmd.Flags()
	f.String("email", "", "account email")
	f.String("name", "", "display name")
	f.String("role", string(models.RoleIndividual), "individual, enterprise_admin or enterprise_member")
	f.String("kind", string(models.KindTrial), "trial, paid, enterprise_pool or pay_per_use")
	f.Int("limit", 10, "search limit, -1 for unlimited")
	f.Duration("valid-for", 14*24*time.Hour, "trial or package length, 0 for no end")
	f.Bool("authoritative", false, "grant access to authoritative records")
	f.String("parent", "", "parent account id for enterprise members")

	accountCmd.AddCommand(accountCreateCmd)
	rootCmd.AddCommand(accountCmd)
}
