package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/ethicsfolio/portfolio-api/config"
)

// EnsureDatabase connects to the maintenance database and creates the target
// database when it does not exist. First-boot convenience so deployments do
// not need a separate provisioning step.
func EnsureDatabase(env *config.EnviornmentVariable) error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=postgres port=%s sslmode=%s",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return err
	}

	var exists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", env.DB_NAME).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	log.Printf("Database %q not found, creating it...", env.DB_NAME)
	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(env.DB_NAME)))
	return err
}
