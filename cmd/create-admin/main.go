// Command create-admin provisions an admin account from the terminal. Admin
// accounts are never created through the public API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/config"
	"github.com/Viduth04/imax-backend/internal/stores/postgres"
	"github.com/Viduth04/imax-backend/internal/users"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	store, err := users.NewConf(db)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	nu := users.NewUser{
		Name:     prompt(reader, "Name"),
		Email:    prompt(reader, "Email"),
		Password: prompt(reader, "Password"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := store.InsertUser(ctx, nu, auth.RoleAdmin)
	if err != nil {
		return err
	}

	fmt.Printf("admin account created: %s <%s>\n", u.Name, u.Email)
	return nil
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
