package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/propshare/checkout/data/repository"
	"github.com/propshare/checkout/internal/converter/dbConverter"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/model/dbModel"
	"github.com/propshare/checkout/utils"
)

func (r *Postgres) UpsertUser(ctx context.Context, subject string) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO users(subject) VALUES($1)
		ON CONFLICT (subject) DO UPDATE SET subject = EXCLUDED.subject
		RETURNING user_id`

	slog.Debug("UpsertUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpsertUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertUser completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, subject).Scan(&userID)
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) InsertInvestment(ctx context.Context, userID int64, investment model.Investment) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO investments(investment_ref, user_id, property_ref, share_count, price_per_share, amount)
		VALUES($1, $2, $3, $4, $5, $6)`

	slog.Debug("InsertInvestment start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertInvestment failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertInvestment completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		investment.InvestmentRef,
		userID,
		investment.PropertyRef,
		investment.ShareCount,
		investment.PricePerShare,
		investment.Amount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return repository.ErrAlreadyExists
			}
		}
		return err
	}

	return nil
}

func (r *Postgres) InsertPaymentOperation(ctx context.Context, userID int64, operation model.PaymentOperation) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO payment_operations(investment_ref, user_id, property_ref, account_id, amount, status, message)
		VALUES($1, $2, $3, $4, $5, $6, $7)`

	slog.Debug("InsertPaymentOperation start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertPaymentOperation failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertPaymentOperation completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		operation.InvestmentRef,
		userID,
		operation.PropertyRef,
		operation.AccountID,
		operation.Amount,
		operation.Status,
		operation.Message,
	)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetUserID(ctx context.Context, subject string) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT user_id FROM users WHERE subject = $1`

	slog.Debug("GetUserID start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetUserID failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUserID completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).GetContext(ctx, &userID, query, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) GetInvestmentsByUser(ctx context.Context, userID int64) (investments []model.Investment, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT investment_ref, user_id, property_ref, share_count, price_per_share, amount, dt_create
		FROM investments WHERE user_id = $1 ORDER BY dt_create DESC`

	slog.Debug("GetInvestmentsByUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetInvestmentsByUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetInvestmentsByUser completed", slog.String("rqID", rqID))
		}
	}()

	dbInvestments := make([]dbModel.Investment, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &dbInvestments, query, userID)
	if err != nil {
		return nil, err
	}

	investments = make([]model.Investment, 0, len(dbInvestments))
	for _, dbInvestment := range dbInvestments {
		investments = append(investments, dbConverter.ConvertInvestment(dbInvestment))
	}

	return investments, nil
}

func (r *Postgres) GetPaymentOperationsByUser(ctx context.Context, userID int64) (operations []model.PaymentOperation, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT investment_ref, user_id, property_ref, account_id, amount, status, message, dt_create
		FROM payment_operations WHERE user_id = $1 ORDER BY dt_create DESC`

	slog.Debug("GetPaymentOperationsByUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPaymentOperationsByUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPaymentOperationsByUser completed", slog.String("rqID", rqID))
		}
	}()

	dbOperations := make([]dbModel.PaymentOperation, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &dbOperations, query, userID)
	if err != nil {
		return nil, err
	}

	operations = make([]model.PaymentOperation, 0, len(dbOperations))
	for _, dbOperation := range dbOperations {
		operations = append(operations, dbConverter.ConvertPaymentOperation(dbOperation))
	}

	return operations, nil
}
