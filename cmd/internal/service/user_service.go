package service

import (
	"context"
	"errors"
	"strings"

	"telefonia/cmd/internal/domain/entity"
	cognitoclient "telefonia/cmd/internal/integration/aws/cognito"
	"telefonia/cmd/internal/utils"
	"telefonia/cmd/internal/utils/apierror"

	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *entity.User) error
}

// TokenIssuer signs session tokens for authenticated profiles.
type TokenIssuer interface {
	Issue(user *entity.User) (string, error)
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80,humanname"`
	Lastname string `json:"lastname" validate:"required,min=2,max=80,humanname"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phonenumber"`
	Password string `json:"password" validate:"required,min=8,max=64,hasspecial,hasdigit,hasupper,haslower,nospaces"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

type ConfirmSignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=1,max=6"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Active   bool   `json:"active"`
	Admin    bool   `json:"admin"`
}

type UserLoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type DefaultUserService struct {
	UserRepo UserRepository
	Validate *validator.Validate
	Cognito  cognitoclient.CognitoInterface
	Tokens   TokenIssuer
}

func NewUserService(userRepo UserRepository, validate *validator.Validate, cogClient cognitoclient.CognitoInterface, tokens TokenIssuer) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo, Validate: validate, Cognito: cogClient, Tokens: tokens}
}

// CreateUser registers the user with the identity provider and stores the
// local profile. The provider sends the confirmation code email.
func (u *DefaultUserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	found, err := u.UserRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}
	if found {
		return nil, apierror.UserAlreadyExistsError
	}

	cogUser := &cognitoclient.User{Email: req.Email, Password: req.Password}
	sub, apierr, revert := handleUserSignup(u.Cognito, cogUser)
	if apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	user := &entity.User{
		ID:            uuid.NewString(),
		SubUUID:       sub,
		Name:          req.Name,
		Lastname:      req.Lastname,
		Email:         req.Email,
		Phone:         req.Phone,
		EmailVerified: false,
		Active:        true,
		Admin:         false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = u.UserRepo.Save(ctx, user)
	if err != nil {
		// Keep the pool and the profile store consistent: undo the
		// provider signup when the local insert fails.
		revert()
		log.Errorf("failed to create user: %v", err)
		return nil, apierror.InternalServerError
	}
	return toUserResponse(user), nil
}

// Login authenticates against the identity provider, then issues a local
// session token carrying the stored profile claims.
func (u *DefaultUserService) Login(ctx context.Context, req *UserLoginRequest) (*UserLoginResponse, apierror.ErrorResponse) {
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	credentials := &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	}

	if _, apierr := handleUserSignin(u.Cognito, credentials); apierr != nil {
		return nil, apierr
	}

	user, err := u.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return nil, apierror.InternalServerError
	}
	if user == nil {
		// Authenticated upstream but no local profile: report invalid
		// credentials instead of disclosing the difference.
		return nil, apierror.IDPCredentialsMismatchError
	}

	signed, err := u.Tokens.Issue(user)
	if err != nil {
		log.Errorf("failed to issue session token for %s: %v", req.Email, err)
		return nil, apierror.InternalServerError
	}
	return &UserLoginResponse{Message: "Authenticated successfully", Token: signed}, nil
}

func (u *DefaultUserService) ConfirmSignup(ctx context.Context, req *ConfirmSignupRequest) apierror.ErrorResponse {
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return apierror.InternalServerError
	}
	if user == nil {
		return apierror.IDPUserNotFoundError
	}
	if user.EmailVerified {
		return apierror.UserAlreadyConfirmedError
	}

	confirms := &cognitoclient.UserConfirmation{
		Email: req.Email,
		Code:  req.Code,
	}
	if apierr := handleSignupConfirmation(u.Cognito, confirms); apierr != nil {
		return apierr
	}

	user.EmailVerified = true
	user.UpdatedAt = utils.NowUTC()
	err = u.UserRepo.Save(ctx, user)
	if err != nil {
		log.Errorf("failed to update user (%s) verified status: %v", user.ID, err)
	}
	return nil
}

func handleUserSignup(cogClient cognitoclient.CognitoInterface, req *cognitoclient.User) (string, apierror.ErrorResponse, func()) {
	revert := func() {
		_ = cogClient.AdminDeleteUser(req.Email)
	}

	sub, err := cogClient.SignUp(req)
	if err == nil {
		return sub, nil, revert
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidPasswordException":
			return "", apierror.IDPInvalidPasswordError, revert
		case "UsernameExistsException":
			return "", apierror.IDPExistingEmailError, revert
		case "TooManyRequestsException":
			return "", apierror.IDPRateLimitedError, revert
		default:
			log.Errorf("signup failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return "", apierror.IDPUpstreamError, revert
		}
	}

	log.Errorf("failed to signup user (%s): %v", req.Email, err)
	return "", apierror.InternalServerError, revert
}

func handleUserSignin(cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, apierror.ErrorResponse) {
	auth, err := cogClient.SignIn(req)
	if err == nil {
		return auth, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotAuthorizedException":
			// Cognito reports disabled users as NotAuthorizedException;
			// only the message distinguishes them from bad credentials.
			if strings.Contains(apiErr.ErrorMessage(), "disabled") {
				return nil, apierror.IDPUserDisabledError
			}
			return nil, apierror.IDPCredentialsMismatchError
		case "UserNotFoundException":
			return nil, apierror.IDPCredentialsMismatchError
		case "UserNotConfirmedException":
			return nil, apierror.IDPUserNotConfirmedError
		case "TooManyRequestsException":
			return nil, apierror.IDPRateLimitedError
		default:
			log.Errorf("signin failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return nil, apierror.IDPUpstreamError
		}
	}

	log.Errorf("failed to signin user (%s): %v", req.Email, err)
	return nil, apierror.IDPUpstreamError
}

func handleSignupConfirmation(cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserConfirmation) apierror.ErrorResponse {
	err := cogClient.ConfirmAccount(req)
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "CodeMismatchException":
			return apierror.IDPConfirmCodeMismatchError
		case "ExpiredCodeException":
			return apierror.IDPConfirmCodeExpiredError
		case "UserNotFoundException":
			return apierror.IDPUserNotFoundError
		default:
			log.Errorf("confirmation failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return apierror.IDPUpstreamError
		}
	}

	log.Errorf("failed to confirm user (%s): %v", req.Email, err)
	return apierror.InternalServerError
}

func toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Lastname: user.Lastname,
		Email:    user.Email,
		Phone:    user.Phone,
		Active:   user.Active,
		Admin:    user.Admin,
	}
}
