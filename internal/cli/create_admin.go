package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/config"
	"github.com/digishelf/digishelf/internal/database"
	"github.com/digishelf/digishelf/internal/entities"
)

// CreateAdminCommand creates a librarian account from the command line.
// Registration over the API only produces member accounts, so the first
// admin has to come from here.
type CreateAdminCommand struct {
	DatabasePath string
	StudentID    string
	Name         string
	Email        string
	Password     string
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.StudentID, "id", "admin", "Staff identifier for the admin account")
	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a librarian (admin) account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -name \"Head Librarian\" -email admin@library.edu -password secret123\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Name == "" || cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("name, email and password are required")
	}
	if len(cmd.Password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var count int64
	if err := db.DB.Model(&entities.User{}).
		Where("student_id = ? OR email = ?", cmd.StudentID, cmd.Email).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for existing account: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("an account with that identifier or email already exists")
	}

	hash, err := auth.HashPassword(cmd.Password, 0)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := entities.User{
		StudentID:    cmd.StudentID,
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: hash,
		Role:         entities.UserRoleAdmin,
		Status:       entities.UserStatusActive,
	}
	if err := db.DB.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	fmt.Printf("Created admin account %s (%s)\n", cmd.Name, cmd.Email)
	return nil
}
