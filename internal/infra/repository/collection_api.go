package repository

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
)

type CollectionAPIRepository struct {
	client *apiclient.Client
}

func NewCollectionAPIRepository(client *apiclient.Client) *CollectionAPIRepository {
	return &CollectionAPIRepository{client: client}
}

func (r *CollectionAPIRepository) List(ctx context.Context) ([]model.Collection, error) {
	raw, err := apiclient.Do[json.RawMessage](ctx, r.client, http.MethodGet, "/collections", nil,
		apiclient.WithOperation("list_collections"),
	)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Collection](raw, "collections")
}

func (r *CollectionAPIRepository) FindBySlug(ctx context.Context, slug string) (model.Collection, error) {
	c, err := apiclient.Do[model.Collection](ctx, r.client, http.MethodGet, "/collections/"+apiclient.PathEscape(slug), nil,
		apiclient.WithOperation("get_collection"),
	)
	if err != nil {
		return model.Collection{}, mapNotFound(err)
	}
	return c, nil
}
