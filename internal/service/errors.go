package service

import (
	"database/sql"
	"errors"

	"github.com/bernicerice/MealMission/internal/repository/ports"
	"github.com/bernicerice/MealMission/internal/repository/postgres"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, ports.ErrDuplicate) || postgres.IsUniqueViolation(err)
}
