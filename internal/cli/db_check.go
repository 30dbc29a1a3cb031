package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/terraincognita07/vacprev/internal/upstream"
)

// RunDBCheckCommand connects to the database behind the RPC and prints its
// clock.
func RunDBCheckCommand(ctx context.Context, dsn string, out io.Writer) error {
	if strings.TrimSpace(dsn) == "" {
		return errors.New("DATABASE_URL or user/password/host/port/dbname must be set")
	}

	now, err := upstream.Ping(ctx, dsn)
	if err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}

	fmt.Fprintln(out, "✅ Connection successful")
	fmt.Fprintf(out, "Current time: %s\n", now.Format(time.RFC3339))
	return nil
}
