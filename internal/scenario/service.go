package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/siad-agro/siad-api/internal/db"
)

// Service persists scenarios and evaluates them with Project.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, ownerID int64, sc Scenario) (Scenario, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return Scenario{}, fmt.Errorf("name required: %w", db.ErrInvalid)
	}
	if strings.TrimSpace(sc.Cultivar) == "" {
		return Scenario{}, fmt.Errorf("cultivar required: %w", db.ErrInvalid)
	}
	sc.OwnerID = ownerID
	return s.store.Create(ctx, sc)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Scenario, error) {
	return s.store.List(ctx, ownerID)
}

// Evaluate projects a stored scenario and records the evaluation.
func (s *Service) Evaluate(ctx context.Context, id int64) (Evaluation, error) {
	sc, err := s.store.Get(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	in := sc.Inputs()
	payload := map[string]any{
		"bag_price": sc.BagPrice,
		"cultivar":  sc.Cultivar,
	}
	if w := in.DomainWarnings(); len(w) > 0 {
		payload["warnings"] = w
	}
	return s.store.SaveEvaluation(ctx, Evaluation{
		ScenarioID: sc.ID,
		Projection: Project(in),
		Payload:    payload,
	})
}

func (s *Service) Compare(ctx context.Context, ids []int64) ([]Evaluation, error) {
	if len(ids) == 0 {
		return []Evaluation{}, nil
	}
	return s.store.LatestEvaluations(ctx, ids)
}
