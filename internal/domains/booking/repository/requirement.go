package repository

import (
	"context"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/internal/domains/booking/model"
	gDto "venue/shared/dto"
	gRepo "venue/shared/repository"
)

type Requirement interface {
	InsertBulk(ctx context.Context, models []model.Requirement) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Requirement, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type requirementImpl struct {
	gRepo.Repository[model.Requirement]
}

func NewRequirement(db *postgres.Connection, otel otel.Otel) Requirement {
	return &requirementImpl{
		Repository: gRepo.NewRepository[model.Requirement](model.RequirementEntityName, model.RequirementTableName, model.FieldID, db, otel),
	}
}
