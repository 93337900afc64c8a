package services

import (
	"context"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/internal/clients"
	"github.com/udistrital/marketplace_mid/models"
)

// VersionAllocator asigna la siguiente versión de entrega de un posting.
// Debe invocarse con el lock del posting tomado; el llamador persiste la versión
// devuelta en Posting.LastVersion dentro del mismo commit.
type VersionAllocator struct {
	store clients.EntityStore
}

// NewVersionAllocator construye el asignador sobre el almacén dado.
func NewVersionAllocator(store clients.EntityStore) *VersionAllocator {
	return &VersionAllocator{store: store}
}

// Next devuelve el menor entero mayor que toda versión registrada o eliminada.
func (a *VersionAllocator) Next(ctx context.Context, posting *models.Posting) (int, error) {
	max, found, err := a.store.MaxDeliverableVersion(ctx, posting.Id)
	if err != nil {
		return 0, helpers.AsAppError(err, "error consultando versiones de entregas")
	}
	last := posting.LastVersion
	if found && max > last {
		last = max
	}
	return last + 1, nil
}
