package service

import (
    "context"
    "errors"

    "go.uber.org/zap"

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/model"
    "github.com/iliyamo/complaint-tracker/internal/repository"
    "github.com/iliyamo/complaint-tracker/internal/utils"
    "github.com/iliyamo/complaint-tracker/internal/validation"
)

// Session is what a successful login returns.
type Session struct {
    Token utils.AccessToken
    User  model.PublicUser
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
    Users  repository.UserStore
    Tokens *utils.TokenManager
    Cost   int
    Log    *zap.Logger

    // dummyHash is compared against when the email is unknown so that a
    // miss costs the same as a wrong password.
    dummyHash string
}

func NewAuthService(users repository.UserStore, tokens *utils.TokenManager, cost int, log *zap.Logger) (*AuthService, error) {
    if cost < utils.MinBcryptCost {
        cost = utils.MinBcryptCost
    }
    if log == nil {
        log = zap.NewNop()
    }
    dummy, err := utils.HashPassword("complaint-tracker-dummy-password", cost)
    if err != nil {
        return nil, err
    }
    return &AuthService{Users: users, Tokens: tokens, Cost: cost, Log: log, dummyHash: dummy}, nil
}

// Register stores a new account.  The store's unique index decides races
// between two registrations of the same email.
func (s *AuthService) Register(ctx context.Context, in validation.Registration) (model.PublicUser, error) {
    if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
        return model.PublicUser{}, apperr.Conflict("email already registered")
    } else if !errors.Is(err, repository.ErrNotFound) {
        return model.PublicUser{}, apperr.Internal("lookup user", err)
    }

    hash, err := utils.HashPassword(in.Password, s.Cost)
    if err != nil {
        return model.PublicUser{}, apperr.Internal("hash password", err)
    }
    u := &model.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: in.Role}
    if err := s.Users.Create(ctx, u); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return model.PublicUser{}, apperr.Conflict("email already registered")
        }
        return model.PublicUser{}, apperr.Internal("create user", err)
    }
    s.Log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
    return u.Public(), nil
}

// Login verifies credentials.  Unknown email and wrong password fail with
// the same error.
func (s *AuthService) Login(ctx context.Context, in validation.Credentials) (Session, error) {
    invalid := apperr.Unauthenticated("", "invalid credentials")

    u, err := s.Users.GetByEmail(ctx, in.Email)
    if err != nil {
        if !errors.Is(err, repository.ErrNotFound) {
            return Session{}, apperr.Internal("lookup user", err)
        }
        utils.VerifyPassword(s.dummyHash, in.Password)
        return Session{}, invalid
    }
    if !utils.VerifyPassword(u.PasswordHash, in.Password) {
        return Session{}, invalid
    }

    tok, err := s.Tokens.Issue(u.ID, u.Role)
    if err != nil {
        return Session{}, apperr.Internal("issue token", err)
    }
    return Session{Token: tok, User: u.Public()}, nil
}
