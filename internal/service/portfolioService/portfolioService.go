package portfolioService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/propshare/checkout/data/repository"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/utils"
)

type Repository interface {
	GetUserID(ctx context.Context, subject string) (userID int64, err error)
	GetInvestmentsByUser(ctx context.Context, userID int64) ([]model.Investment, error)
	GetPaymentOperationsByUser(ctx context.Context, userID int64) ([]model.PaymentOperation, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, portfolio model.Portfolio, operations []model.PaymentOperation) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type PortfolioService struct {
	repo            Repository
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
}

func New(repo Repository, reportGenerator ReportGenerator, cloudStorage CloudStorage) *PortfolioService {
	return &PortfolioService{
		repo:            repo,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
	}
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, subject string) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPortfolio"

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetPortfolio finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	userID, err := s.repo.GetUserID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Nothing invested yet: an empty portfolio, not an error.
			return model.Portfolio{Investments: []model.Investment{}}, nil
		}
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	investments, err := s.repo.GetInvestmentsByUser(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetInvestmentsByUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	portfolio := model.Portfolio{Investments: investments}
	properties := make(map[string]struct{}, len(investments))
	for _, investment := range investments {
		portfolio.TotalInvested = portfolio.TotalInvested.Add(investment.Amount)
		properties[investment.PropertyRef] = struct{}{}
	}
	portfolio.PropertiesCount = len(properties)

	return portfolio, nil
}

func (s *PortfolioService) GetPaymentHistory(ctx context.Context, subject string) ([]model.PaymentOperation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPaymentHistory"

	slog.Debug("GetPaymentHistory start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetPaymentHistory finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	userID, err := s.repo.GetUserID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []model.PaymentOperation{}, nil
		}
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	operations, err := s.repo.GetPaymentOperationsByUser(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetPaymentOperationsByUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return operations, nil
}

func (s *PortfolioService) ExportStatement(ctx context.Context, subject string) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportStatement"

	slog.Debug("ExportStatement start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportStatement finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	portfolio, err := s.GetPortfolio(ctx, subject)
	if err != nil {
		return nil, "", err
	}

	operations, err := s.GetPaymentHistory(ctx, subject)
	if err != nil {
		return nil, "", err
	}

	return s.reportGenerator.Generate(ctx, portfolio, operations)
}

// ArchiveStatement generates the statement and uploads it to cloud storage,
// returning a shareable link.
func (s *PortfolioService) ArchiveStatement(ctx context.Context, subject string) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ArchiveStatement"

	slog.Debug("ArchiveStatement start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ArchiveStatement finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	fileBytes, fileExtension, err := s.ExportStatement(ctx, subject)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("statement_%s%s", time.Now().Format("2006-01-02"), fileExtension)

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return downloadLink, nil
}
