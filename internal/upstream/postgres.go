package upstream

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/terraincognita07/vacprev/internal/config"
	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
	"go.uber.org/zap"
)

const defaultPingTimeout = 5 * time.Second

// PostgresClient calls the RPC function directly on the database.
type PostgresClient struct {
	pool    *pgxpool.Pool
	rpcName string
	log     *zap.Logger
}

// NewPostgresClient opens a pool on dsn and verifies it with a ping.
func NewPostgresClient(ctx context.Context, cfg config.PostgresConfig, rpcName string, log *zap.Logger) (*PostgresClient, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if rpcName == "" {
		rpcName = config.DefaultRPCName
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresClient{pool: pool, rpcName: rpcName, log: logger.OrNop(log)}, nil
}

func (client *PostgresClient) Close() {
	client.pool.Close()
}

// CallForecast tries the underscored argument names first, then the plain
// ones.
func (client *PostgresClient) CallForecast(ctx context.Context, params Params) (normalize.Payload, error) {
	rows, err := client.query(ctx, params.underscored())
	if err != nil {
		client.log.Debug("rpc rejected underscored arguments, retrying plain", zap.Error(err))
		rows, err = client.query(ctx, params.plain())
	}
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	return normalize.NewPayload(rows), nil
}

func (client *PostgresClient) query(ctx context.Context, args map[string]any) ([]normalize.RawRow, error) {
	sql, values := forecastQuery(client.rpcName, args)
	rows, err := client.pool.Query(ctx, sql, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]normalize.RawRow, 0)
	for rows.Next() {
		columns, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]normalize.Field, 0, len(columns))
		for index, value := range columns {
			name := fmt.Sprintf("f%d", index)
			if index < len(fields) {
				name = fields[index].Name
			}
			row = append(row, normalize.Field{Key: name, Value: plainValue(value)})
		}
		result = append(result, normalize.KeyedRow(row...))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// forecastQuery builds a call using named notation, with arguments in a
// stable order.
func forecastQuery(rpcName string, args map[string]any) (string, []any) {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	placeholders := make([]string, 0, len(names))
	values := make([]any, 0, len(names))
	for index, name := range names {
		placeholders = append(placeholders, fmt.Sprintf("%s => $%d", pgx.Identifier{name}.Sanitize(), index+1))
		values = append(values, args[name])
	}

	sql := fmt.Sprintf("SELECT * FROM %s(%s)",
		pgx.Identifier{"public", rpcName}.Sanitize(),
		strings.Join(placeholders, ", "))
	return sql, values
}

// plainValue converts pgx values to the JSON-friendly types the row
// normalizer understands.
func plainValue(value any) any {
	switch typed := value.(type) {
	case pgtype.Numeric:
		number, err := typed.Float64Value()
		if err != nil || !number.Valid {
			return nil
		}
		return number.Float64
	case time.Time:
		return typed.Format(time.RFC3339)
	case []byte:
		return string(typed)
	default:
		return value
	}
}

// Ping runs SELECT NOW() against dsn and returns the server time.
func Ping(ctx context.Context, dsn string) (time.Time, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	conn, err := pgx.Connect(connectCtx, dsn)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: connect: %w", err)
	}
	defer conn.Close(context.Background())

	var now time.Time
	if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("postgres: select now: %w", err)
	}
	return now, nil
}
