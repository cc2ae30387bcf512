package plans

import (
	"context"
	"fmt"

	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/pkg/api"
)

// activePlanType - тип плана, который считается действующей подпиской.
// Подписка может нести несколько планов (исторические, промо);
// действующий ровно один.
const activePlanType = 1

// freePlan возвращается пользователю без действующего платного плана
var freePlan = models.Plan{Title: "Free", Type: 0}

type remoteAPI interface {
	GetSubscription(ctx context.Context) (*api.SubscriptionResponse, error)
}

// Service выбирает действующий план из подписки
type Service struct {
	remote remoteAPI
}

// NewService создает сервис планов
func NewService(remote remoteAPI) *Service {
	return &Service{remote: remote}
}

// GetUserPlan возвращает первый план действующего типа.
// Подписка без такого плана означает бесплатный тариф.
func (s *Service) GetUserPlan(ctx context.Context) (models.Plan, error) {
	resp, err := s.remote.GetSubscription(ctx)
	if err != nil {
		return models.Plan{}, fmt.Errorf("get subscription failed: %w", err)
	}

	for _, p := range resp.Plans {
		if p.Type == activePlanType {
			return models.Plan{Title: p.Title, Type: p.Type}, nil
		}
	}
	return freePlan, nil
}
