// internal/db/db.go
package db

import (
    "database/sql"
    "fmt"
    "os"
    "time"

    _ "github.com/lib/pq"

    "github.com/designgaga/outreach-backend/internal/logging"
)

// Connect opens the Postgres pool from DB_* environment variables and
// verifies the connection with a ping.
func Connect() (*sql.DB, error) {
    logger := logging.Component("db")

    user := os.Getenv("DB_USER")
    pass := os.Getenv("DB_PASSWORD")
    host := os.Getenv("DB_HOST")
    port := os.Getenv("DB_PORT")
    name := os.Getenv("DB_NAME")

    dsn := fmt.Sprintf(
        "postgres://%s:%s@%s:%s/%s?sslmode=disable",
        user, pass, host, port, name,
    )

    conn, err := sql.Open("postgres", dsn)
    if err != nil {
        return nil, fmt.Errorf("open postgres: %w", err)
    }

    conn.SetMaxOpenConns(20)
    conn.SetMaxIdleConns(5)
    conn.SetConnMaxLifetime(30 * time.Minute)

    if err := conn.Ping(); err != nil {
        conn.Close()
        return nil, fmt.Errorf("ping postgres: %w", err)
    }

    logger.Info().Str("host", host).Str("database", name).Msg("connected to database")
    return conn, nil
}
