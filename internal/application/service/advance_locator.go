package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// AdvanceLocator finds an advance by id across the backend's listings
type AdvanceLocator interface {
	Locate(ctx context.Context, id string) (*entity.AdvanceRequest, error)
}

// lookupOrder is the order the status listings are searched before the
// details endpoint is tried
var lookupOrder = []entity.AdvanceStatus{
	entity.AdvanceStatusPaid,
	entity.AdvanceStatusApproved,
	entity.AdvanceStatusPending,
}

type advanceLocator struct {
	api    port.AdvanceAPI
	logger Logger
}

// NewAdvanceLocator creates a locator over the advance listings
func NewAdvanceLocator(api port.AdvanceAPI, logger Logger) AdvanceLocator {
	return &advanceLocator{api: api, logger: logger}
}

// Locate searches paid, approved and pending listings in order, then the
// details endpoint. A listing failure moves on to the next source. The
// result is ErrAdvanceNotFound when every source answered and none had
// the advance; a transport failure on the last source is returned as is.
func (l *advanceLocator) Locate(ctx context.Context, id string) (*entity.AdvanceRequest, error) {
	for _, status := range lookupOrder {
		list, err := l.api.ListAdvances(ctx, status)
		if err != nil {
			l.logger.Warnw("Advance listing failed", "status", status, "error", err)
			continue
		}
		for i := range list {
			if list[i].ID == id {
				found := list[i]
				return &found, nil
			}
		}
	}

	adv, err := l.api.GetAdvanceDetails(ctx, id)
	switch {
	case errors.Is(err, port.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrAdvanceNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("get advance details: %w", err)
	case adv == nil:
		return nil, fmt.Errorf("%w: %s", ErrAdvanceNotFound, id)
	}
	return adv, nil
}
