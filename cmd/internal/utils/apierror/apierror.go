package apierror

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is a client-facing error carrying its HTTP status code.
// Services return it alongside their payload; routes serialize it with
// c.JSON(err.Code(), err).
type ErrorResponse interface {
	Code() int
}

type SimpleError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *SimpleError) Code() int {
	return e.Status
}

func NewSimple(code int, message string) *SimpleError {
	return &SimpleError{Status: code, Message: message}
}

func NewMissingParamError(name string) *SimpleError {
	return NewSimple(400, fmt.Sprintf("Missing required parameter: %s", name))
}

func NewInvalidParamTypeError(name, expected string) *SimpleError {
	return NewSimple(400, fmt.Sprintf("Parameter %s must be of type %s", name, expected))
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields"`
}

func (e *ValidationError) Code() int {
	return 400
}

// FromValidationError converts a validator.Struct failure into a 400
// response naming the offending fields. Non-validator errors collapse
// into a generic malformed-body response.
func FromValidationError(err error) ErrorResponse {
	valErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return MalformedBodyError
	}

	fields := make([]string, len(valErrs))
	for i, fe := range valErrs {
		fields[i] = fmt.Sprintf("%s: failed '%s'", fe.Field(), fe.Tag())
	}
	return &ValidationError{Message: "Request validation failed", Fields: fields}
}

// Generic / transport errors.
var (
	InternalServerError = NewSimple(500, "Internal server error")
	MalformedBodyError  = NewSimple(400, "Malformed request body")
	NotFoundError       = NewSimple(404, "Appointment not found")
)

// Token / authentication errors.
var (
	MissingAuthHeaderError = NewSimple(400, "Authorization header missing")
	InvalidAuthSchemaError = NewSimple(400, "Invalid auth schema")
	InvalidAuthTokenError  = NewSimple(401, "Invalid token")
	ExpiredTokenError      = NewSimple(401, "Expired token")
	InactiveUserError      = NewSimple(401, "Inactive user")
	NotAuthorizedError     = NewSimple(401, "Administrator privileges required")
)

// Appointment domain errors.
var (
	InvalidTimeWindowError = NewSimple(400, "Appointments can only be created between 9:00 AM and 5:00 PM")
	SlotTakenError         = NewSimple(400, "There is already an appointment scheduled at that time")
	TooLateToModifyError   = NewSimple(400, "Appointments can no longer be changed this close to the scheduled time")
	NoChangeError          = NewSimple(400, "No changes were made")
	InvalidIdFormatError   = NewSimple(400, "Invalid ID format")
	MissingTargetError     = NewSimple(400, "Admin must provide user_id to create an appointment")
	ForbiddenError         = NewSimple(403, "Not authorized to modify this appointment")
	UserNotFoundError      = NewSimple(404, "User not found")
)

// Identity provider errors.
var (
	UserAlreadyExistsError      = NewSimple(409, "A user with that email already exists")
	UserAlreadyConfirmedError   = NewSimple(409, "User is already confirmed")
	IDPInvalidPasswordError     = NewSimple(400, "Password rejected by the identity provider")
	IDPExistingEmailError       = NewSimple(409, "Email is already registered with the identity provider")
	IDPCredentialsMismatchError = NewSimple(401, "Invalid credentials")
	IDPUserDisabledError        = NewSimple(403, "User is disabled")
	IDPUserNotConfirmedError    = NewSimple(401, "User has not confirmed their email")
	IDPUserNotFoundError        = NewSimple(404, "User not found")
	IDPConfirmCodeMismatchError = NewSimple(400, "Confirmation code does not match")
	IDPConfirmCodeExpiredError  = NewSimple(400, "Confirmation code has expired")
	IDPRateLimitedError         = NewSimple(429, "Too many attempts, try again later")
	IDPUpstreamError            = NewSimple(502, "Identity provider is unavailable, try again later")
)
