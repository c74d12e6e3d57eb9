package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

const (
	adminName           = "Admin"
	adminEmail          = "admin@email.com"
	adminPasswordLength = 12
	passwordAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*?"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the first admin account if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer repositories.Close(db)

		users := repositories.NewGORMUserRepository(db)
		return createSuperUser(cmd.Context(), users, auth.NewBcryptHasher(cfg.Auth.BcryptCost), cmd.OutOrStdout())
	},
}

// createSuperUser creates the bootstrap admin with a random password and
// prints the credentials once. It does nothing when an admin already exists.
func createSuperUser(ctx context.Context, users repositories.UserRepository, hasher auth.PasswordHasher, out io.Writer) error {
	exists, err := users.ExistsAdmin(ctx)
	if err != nil {
		return err
	}
	if exists {
		fmt.Fprintln(out, "Admin user already exists.")
		return nil
	}

	password, err := generatePassword(adminPasswordLength)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     adminName,
		Email:    adminEmail,
		Password: hash,
		Active:   true,
		Admin:    true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	fmt.Fprintf(out, "Admin user created.\nemail: %s\npassword: %s\n", adminEmail, password)
	return nil
}

// generatePassword draws n characters uniformly from passwordAlphabet.
func generatePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate password")
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
