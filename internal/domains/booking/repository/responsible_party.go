package repository

import (
	"context"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/internal/domains/booking/model"
	gDto "venue/shared/dto"
	gRepo "venue/shared/repository"
)

type ResponsibleParty interface {
	Insert(ctx context.Context, model model.ResponsibleParty) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.ResponsibleParty, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type responsiblePartyImpl struct {
	gRepo.Repository[model.ResponsibleParty]
}

func NewResponsibleParty(db *postgres.Connection, otel otel.Otel) ResponsibleParty {
	return &responsiblePartyImpl{
		Repository: gRepo.NewRepository[model.ResponsibleParty](model.ResponsiblePartyEntityName, model.ResponsiblePartyTableName, model.FieldID, db, otel),
	}
}
