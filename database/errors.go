package database

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mitrahub/mitra/internal/apierror"
)

// storeError maps a driver error to an APIError. Constraint violations become
// conflicts, data exceptions such as a balance overflow are invalid input and
// connection failures are transient. Anything else is
// transient on the write path and internal on the read path.
func storeError(err error, op string, write bool) error {
	if err == nil {
		return nil
	}
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	wrapped := errors.Wrap(err, op)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apierror.NewAPIError(apierror.ErrConflict, op+": record already exists", wrapped)
		case "foreign_key_violation":
			return apierror.NewAPIError(apierror.ErrConflict, op+": record is still referenced", wrapped)
		case "check_violation":
			return apierror.NewAPIError(apierror.ErrInvalidInput, op+": value violates a constraint", wrapped)
		}
		switch pqErr.Code.Class() {
		case "08":
			return apierror.NewAPIError(apierror.ErrTransient, op+": database unavailable", wrapped)
		case "22":
			return apierror.NewAPIError(apierror.ErrInvalidInput, op+": value out of range or malformed", wrapped)
		}
	}

	if isConnectionError(err) {
		return apierror.NewAPIError(apierror.ErrTransient, op+": database unavailable", wrapped)
	}
	if write {
		return apierror.NewAPIError(apierror.ErrTransient, op+": write failed", wrapped)
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, op+": query failed", wrapped)
}

func isConnectionError(err error) bool {
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func notFound(message string, err error) error {
	return apierror.NewAPIError(apierror.ErrNotFound, message, err)
}
