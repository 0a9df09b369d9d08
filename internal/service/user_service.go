package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmart/internal/auth"
	"farmart/internal/model"
	"farmart/internal/notification"
	"farmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type userService struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	courierRepo repository.CourierRepository
	tokens      auth.TokenManager
	dispatcher  notification.Dispatcher
	now         func() time.Time
	logger      zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	courierRepo repository.CourierRepository,
	tokens auth.TokenManager,
	dispatcher notification.Dispatcher,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		courierRepo: courierRepo,
		tokens:      tokens,
		dispatcher:  dispatcher,
		now:         time.Now,
		logger:      logger.With().Str("service", "user").Logger(),
	}
}

// Register creates a customer or seller account for self sign-up.
func (s *userService) Register(ctx context.Context, data *model.UserData) (*model.User, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if data.Role != model.RoleCustomer && data.Role != model.RoleSeller {
		v := model.NewValidationError()
		v.Add("role", "must be customer or seller")
		return nil, v
	}
	return s.create(ctx, data)
}

// create writes the account then the profile. A failed profile write removes
// the account again.
func (s *userService) create(ctx context.Context, data *model.UserData) (*model.User, error) {
	hash, err := auth.HashPassword(data.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	uid := uuid.NewString()
	email := strings.ToLower(strings.TrimSpace(data.Email))

	account := &model.Account{UID: uid, Email: email, PasswordHash: hash, CreatedAt: now}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:              uid,
		DisplayName:     strings.TrimSpace(data.DisplayName),
		Email:           email,
		Phone:           data.Phone,
		Role:            data.Role,
		Active:          true,
		BusinessName:    data.BusinessName,
		BusinessAddress: data.BusinessAddress,
		Location:        data.Location,
		Latitude:        data.Latitude,
		Longitude:       data.Longitude,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", uid).Msg("profile write failed, removing account")
		if delErr := s.accountRepo.Delete(ctx, uid); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", uid).Msg("failed to remove orphaned account")
		}
		return nil, err
	}

	if err := s.dispatcher.SendWelcome(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", uid).Msg("welcome email not sent")
	}

	s.logger.Info().Str("user_id", uid).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || !auth.CheckPassword(account.PasswordHash, req.Password) {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, account.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	if !user.Active {
		return nil, model.ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateMe(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	update.Apply(user)
	if strings.TrimSpace(user.DisplayName) == "" {
		v := model.NewValidationError()
		v.Add("displayName", "is required")
		return nil, v
	}
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminCreate checks the admin token carried in the body before creating the
// user with any role.
func (s *userService) AdminCreate(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	principal, err := s.tokens.Parse(req.AdminToken)
	if err != nil {
		return nil, err
	}
	admin, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	switch {
	case admin == nil:
		return nil, model.ErrTokenInvalid
	case !admin.Active:
		s.logger.Warn().Str("actor_id", principal.UserID).Msg("disabled admin attempted to create a user")
		return nil, model.ErrAccountDisabled
	case admin.Role != model.RoleAdmin:
		s.logger.Warn().Str("actor_id", principal.UserID).Msg("non-admin attempted to create a user")
		return nil, model.ErrForbidden
	}

	if err := req.UserData.Validate(); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, &req.UserData)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("admin_id", principal.UserID).Str("user_id", user.ID).Msg("user created by admin")
	return user, nil
}

func (s *userService) List(ctx context.Context, role model.Role) ([]model.User, error) {
	if role != "" && !role.Valid() {
		v := model.NewValidationError()
		v.Add("role", "unknown role")
		return nil, v
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) SetActive(ctx context.Context, id string, active bool) error {
	ok, err := s.userRepo.SetActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !ok {
		return model.ErrUserNotFound
	}
	s.logger.Info().Str("user_id", id).Bool("active", active).Msg("user active flag changed")
	return nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	ok, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !ok {
		return model.ErrUserNotFound
	}
	s.logger.Info().Str("user_id", id).Msg("user profile deleted")
	return nil
}

func (s *userService) ListCouriers(ctx context.Context) ([]model.Courier, error) {
	couriers, err := s.courierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	return couriers, nil
}

// SaveCourier creates or replaces the courier record of a courier user.
func (s *userService) SaveCourier(ctx context.Context, courier *model.Courier) (*model.Courier, error) {
	if err := courier.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, courier.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load courier profile: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	if user.Role != model.RoleCourier {
		v := model.NewValidationError()
		v.Add("userId", "user is not a courier")
		return nil, v
	}

	now := s.now()
	existing, err := s.courierRepo.GetByUserID(ctx, courier.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load courier: %w", err)
	}
	courier.CreatedAt = now
	if existing != nil {
		courier.CreatedAt = existing.CreatedAt
	}
	courier.UpdatedAt = now

	if err := s.courierRepo.Upsert(ctx, courier); err != nil {
		return nil, err
	}
	return courier, nil
}
