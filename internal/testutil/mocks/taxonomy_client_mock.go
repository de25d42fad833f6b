package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tbueno/florarush/internal/models"
)

// MockTaxonomyClient is a mock implementation of taxonomy.ClientInterface
type MockTaxonomyClient struct {
	mock.Mock
}

func (m *MockTaxonomyClient) FetchPlants(ctx context.Context, page, perPage int) ([]models.Plant, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plant), args.Error(1)
}
