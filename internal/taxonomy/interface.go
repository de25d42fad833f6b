package taxonomy

import (
	"context"

	"github.com/tbueno/florarush/internal/models"
)

// ClientInterface defines the interface for remote taxonomy operations.
// This interface enables testability by allowing mock implementations.
type ClientInterface interface {
	FetchPlants(ctx context.Context, page, perPage int) ([]models.Plant, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
