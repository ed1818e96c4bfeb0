package repository

import (
	"context"

	oauth2api "google.golang.org/api/oauth2/v2"

	"github.com/mathieu-neron/creatordash/internal/model"
)

type ProfileRepo struct {
	svc *oauth2api.Service
}

func NewProfileRepo(svc *oauth2api.Service) *ProfileRepo {
	return &ProfileRepo{svc: svc}
}

// Me returns the signed-in user's profile.
func (r *ProfileRepo) Me(ctx context.Context) (*model.Profile, error) {
	info, err := r.svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, wrapUpstream("oauth2.userinfo", err)
	}
	return &model.Profile{
		ID:    info.Id,
		Name:  info.Name,
		Email: info.Email,
	}, nil
}
