package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/noah-isme/student-records-api/internal/apperrors"
)

// PostgreSQL SQLSTATE codes inspected by translateError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgTooManyConnections  = "53300"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
	pgQueryCanceled       = "57014"
)

// translateError maps driver and gorm errors onto the apperrors taxonomy.
// Field names on the returned error are storage column names.
func translateError(entity, key string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity, key)
	}
	if isUnavailable(err) {
		return apperrors.Unavailable(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation(entity, key, pgColumn(pgErr), err)
		case pgForeignKeyViolation:
			return foreignKeyViolation(entity, key, pgColumn(pgErr), err)
		case pgCheckViolation:
			return checkViolation(entity, key, pgColumn(pgErr), err)
		}
	}

	message := err.Error()
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return uniqueViolation(entity, key, "", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return foreignKeyViolation(entity, key, "", err)
	case strings.Contains(message, "UNIQUE constraint failed"):
		return uniqueViolation(entity, key, sqliteColumn(message, "UNIQUE constraint failed:"), err)
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		return foreignKeyViolation(entity, key, "", err)
	case strings.Contains(message, "CHECK constraint failed"):
		return checkViolation(entity, key, "", err)
	}

	return fmt.Errorf("%s storage: %w", entity, err)
}

func uniqueViolation(entity, key, column string, cause error) error {
	message := fmt.Sprintf("%s already exists", entity)
	if column != "" {
		message = fmt.Sprintf("%s with this %s already exists", entity, column)
	}
	appErr := apperrors.ConstraintViolation(entity, column, apperrors.ConstraintUnique, message)
	appErr.Key = key
	appErr.Err = cause
	return appErr
}

func foreignKeyViolation(entity, key, column string, cause error) error {
	appErr := apperrors.ReferentialIntegrity(entity, key, column, fmt.Sprintf("%s references a missing or dependent record", entity))
	appErr.Err = cause
	return appErr
}

func checkViolation(entity, key, column string, cause error) error {
	message := fmt.Sprintf("%s violates a check constraint", entity)
	if column != "" {
		message = fmt.Sprintf("%s has an invalid %s", entity, column)
	}
	appErr := apperrors.ConstraintViolation(entity, column, apperrors.ConstraintCheck, message)
	appErr.Key = key
	appErr.Err = cause
	return appErr
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == pgTooManyConnections,
			pgErr.Code == pgAdminShutdown,
			pgErr.Code == pgCannotConnectNow,
			pgErr.Code == pgQueryCanceled:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	message := err.Error()
	return strings.Contains(message, "database is locked") || strings.Contains(message, "sql: database is closed")
}

// pgColumn extracts the offending column, falling back to the "Key (col)=" detail.
func pgColumn(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	detail := pgErr.Detail
	start := strings.Index(detail, "Key (")
	if start < 0 {
		return ""
	}
	rest := detail[start+len("Key ("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// sqliteColumn turns "UNIQUE constraint failed: students.email" into "email".
func sqliteColumn(message, marker string) string {
	idx := strings.Index(message, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(message[idx+len(marker):])
	if comma := strings.Index(rest, ","); comma >= 0 {
		rest = rest[:comma]
	}
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		rest = rest[dot+1:]
	}
	return strings.TrimSpace(rest)
}
