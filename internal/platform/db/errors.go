package db

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the service distinguishes.
const (
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNotNullViolation     = "23502"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// MapError translates a store error into an apperr kind. entity names the
// record being accessed and is used in the client-facing message.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", entity)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(err, "%s: store did not respond in time", entity)
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Timeout(err, "%s: request cancelled", entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeForeignKeyViolation:
			e := apperr.NotFound("%s references a record that does not exist", entity)
			e.Detail = pgErr.Detail
			return e
		case pgErr.Code == codeUniqueViolation:
			e := apperr.Conflict("%s already exists", entity)
			e.Detail = pgErr.Detail
			return e
		case pgErr.Code == codeCheckViolation, pgErr.Code == codeNotNullViolation:
			e := apperr.Validation("%s violates constraint %s", entity, pgErr.ConstraintName)
			e.Detail = pgErr.Message
			return e
		case pgErr.Code == codeSerializationFailure, pgErr.Code == codeDeadlockDetected:
			e := apperr.Conflict("%s was modified concurrently, retry", entity)
			e.Detail = pgErr.Message
			return e
		case pgErr.Code == codeQueryCanceled:
			return apperr.Timeout(err, "%s: statement timed out", entity)
		case pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnectNow,
			strings.HasPrefix(pgErr.Code, "08"):
			return apperr.Unavailable(err, "%s: store unavailable", entity)
		}
		return apperr.Internal(err, "%s: store operation failed", entity)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperr.Unavailable(err, "%s: store unavailable", entity)
	}
	if pgconn.Timeout(err) {
		return apperr.Timeout(err, "%s: store did not respond in time", entity)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Unavailable(err, "%s: store unavailable", entity)
	}

	return apperr.Internal(err, "%s: store operation failed", entity)
}
