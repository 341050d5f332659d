package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type UserUsecase struct {
	userRepo repo.UserRepository
	hasher   PasswordHasher
}

// DI
func NewUserUsecase(userRepo repo.UserRepository, hasher PasswordHasher) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, hasher: hasher}
}

type UserInput struct {
	Email    string        `json:"email"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Name     model.Name    `json:"name"`
	Address  model.Address `json:"address"`
	Phone    string        `json:"phone"`
	Status   model.Status  `json:"status"`
	Role     model.Role    `json:"role"`
}

func (u *UserUsecase) List(ctx context.Context, in ListInput) (repo.Page[model.User], error) {
	q := in.query()

	items, total, err := u.userRepo.List(ctx, q)
	if err != nil {
		return repo.Page[model.User]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return repo.NewPage(items, total, q), nil
}

func (u *UserUsecase) Get(ctx context.Context, id int64) (model.User, error) {
	if id <= 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := u.userRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}

func (u *UserUsecase) Create(ctx context.Context, in UserInput) (model.User, error) {
	if err := validateUserInput(in, true); err != nil {
		return model.User{}, err
	}

	// usernameは一意
	_, err := u.userRepo.FindByUsername(ctx, in.Username)
	if err == nil {
		return model.User{}, NewHTTPError(http.StatusConflict, "username already exists")
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "hash error")
	}

	created, err := u.userRepo.Create(ctx, model.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Name:         in.Name,
		Address:      in.Address,
		Phone:        in.Phone,
		Status:       statusOrDefault(in.Status),
		Role:         roleOrDefault(in.Role),
	})
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *UserUsecase) Update(ctx context.Context, id int64, in UserInput) (model.User, error) {
	if id <= 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := validateUserInput(in, false); err != nil {
		return model.User{}, err
	}

	existing, err := u.userRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// PUTは全置換。statusとroleは未指定なら既定（active/customer）に戻る。
	existing.Email = in.Email
	existing.Username = in.Username
	existing.Name = in.Name
	existing.Address = in.Address
	existing.Phone = in.Phone
	existing.Status = statusOrDefault(in.Status)
	existing.Role = roleOrDefault(in.Role)

	// パスワードは指定されたときだけ差し替える
	if in.Password != "" {
		hash, err := u.hasher.Hash(in.Password)
		if err != nil {
			return model.User{}, NewHTTPError(http.StatusInternalServerError, "hash error")
		}
		existing.PasswordHash = hash
	}

	updated, err := u.userRepo.Update(ctx, existing)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *UserUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	err := u.userRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func validateUserInput(in UserInput, passwordRequired bool) error {
	if strings.TrimSpace(in.Username) == "" {
		return NewHTTPError(http.StatusBadRequest, "username is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid email format")
	}
	if passwordRequired && len(in.Password) < 8 {
		return NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	if in.Password != "" && len(in.Password) < 8 {
		return NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	if in.Status != "" && !validStatus(in.Status) {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if in.Role != "" && !validRole(in.Role) {
		return NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	return nil
}

func validStatus(s model.Status) bool {
	switch s {
	case model.StatusActive, model.StatusInactive, model.StatusSuspended:
		return true
	}
	return false
}

func validRole(r model.Role) bool {
	switch r {
	case model.RoleAdmin, model.RoleCustomer:
		return true
	}
	return false
}

func statusOrDefault(s model.Status) model.Status {
	if s == "" {
		return model.StatusActive
	}
	return s
}

func roleOrDefault(r model.Role) model.Role {
	if r == "" {
		return model.RoleCustomer
	}
	return r
}
