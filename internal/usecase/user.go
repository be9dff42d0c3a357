package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/internal/repository"
)

// UserUsecase defines the business logic for profile management.
type UserUsecase interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, params UpdateProfileParams) (*model.User, error)
	ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error)
}

// UpdateProfileParams defines the profile fields a user may edit. Credential
// fields (password, verification, role) are deliberately not included;
// changing those goes through the auth flows.
type UpdateProfileParams struct {
	FirstName    *string
	LastName     *string
	PhoneNumber  *string
	Country      *string
	City         *string
	AddressLine1 *string
	AddressLine2 *string
	PostalCode   *string
}

type userUsecase struct {
	userRepo repository.UserRepository
}

// NewUserUsecase creates a new instance of UserUsecase.
func NewUserUsecase(userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{userRepo: userRepo}
}

func (u *userUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, id string, params UpdateProfileParams) (*model.User, error) {
	user, err := u.userRepo.UpdateUser(ctx, id, repository.UpdateUserParams{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PhoneNumber:  params.PhoneNumber,
		Country:      params.Country,
		City:         params.City,
		AddressLine1: params.AddressLine1,
		AddressLine2: params.AddressLine2,
		PostalCode:   params.PostalCode,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *userUsecase) ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	return u.userRepo.ListUsers(ctx, params)
}
