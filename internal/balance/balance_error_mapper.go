package balance

import (
	"errors"
	"strings"

	balanceerrors "go-leave/internal/balance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return balanceerrors.ErrBalanceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return balanceerrors.ErrBalanceAlreadySeeded
		case "23514":
			return balanceerrors.ErrInsufficientBalance
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "leave_balances") {
		return balanceerrors.ErrBalanceAlreadySeeded
	}

	return err
}
