package repositories

import (
	"errors"
	"fmt"

	"toolrent-content/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// translateError turns driver errors into model errors the handlers know how
// to render. Anything unrecognized is returned as is.
func translateError(err error, resource string, id interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &models.ErrorNotFound{Resource: resource, ID: id}
	case isUniqueViolation(err):
		return &models.ErrorConflict{Message: fmt.Sprintf("%s already exists", resource)}
	case isForeignKeyViolation(err):
		return &models.ErrorNotFound{Resource: resource, ID: id}
	}
	return err
}
