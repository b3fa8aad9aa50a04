package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type ListPaymentIssues struct {
	payments domain.PaymentRepository
	log      *zap.Logger
}

func NewListPaymentIssues(payments domain.PaymentRepository, log *zap.Logger) *ListPaymentIssues {
	return &ListPaymentIssues{payments: payments, log: log}
}

func (uc *ListPaymentIssues) Execute(ctx context.Context) ([]models.PaymentIssue, error) {
	issues, err := uc.payments.ListOpenIssues(ctx)
	if err != nil {
		uc.log.Error("list payment issues", zap.Error(err))
		return nil, fmt.Errorf("%w: list payment issues", domain.ErrPersistence)
	}
	if issues == nil {
		issues = []models.PaymentIssue{}
	}
	return issues, nil
}
