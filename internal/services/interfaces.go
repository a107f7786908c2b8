package services

import (
	"context"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	metadatatypes "github.com/mantonx/catalog/internal/modules/metadatamodule/types"
)

// Service names used with the registry
const (
	MetadataServiceName = "metadata"
)

// MetadataService is the metadata module's public API. Other modules reach
// it through the registry instead of importing the module.
type MetadataService interface {
	// Search looks up matches for term with the upstream serving itemType
	Search(ctx context.Context, itemType models.ItemType, term string) ([]metadatatypes.Match, error)

	// Details fetches the full record for an upstream id
	Details(ctx context.Context, itemType models.ItemType, externalID string) (*metadatatypes.Details, error)
}
