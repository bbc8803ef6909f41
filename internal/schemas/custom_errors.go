package schemas

// CustomError is the error envelope returned to clients.
// Fields carries field-keyed validation violations when the error is a
// validation rejection, and is omitted otherwise.
type CustomError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var (
	BadRequest = &CustomError{
		Code:    "ERR-001",
		Message: "The request body is invalid. Please check the request body and try again.",
	}
	ValidationFailed = &CustomError{
		Code:    "ERR-002",
		Message: "One or more fields failed validation.",
	}
	EmailTaken = &CustomError{
		Code:    "ERR-003",
		Message: "The email address is already registered.",
	}
	UserNotFound = &CustomError{
		Code:    "ERR-004",
		Message: "The requested user does not exist.",
	}
	InvalidCredentials = &CustomError{
		Code:    "ERR-005",
		Message: "The credentials are invalid.",
	}
	UserNotActivated = &CustomError{
		Code:    "ERR-006",
		Message: "The account has not been activated yet.",
	}
	UserAlreadyActivated = &CustomError{
		Code:    "ERR-007",
		Message: "The account is already activated.",
	}
	InvalidToken = &CustomError{
		Code:    "ERR-008",
		Message: "The token is invalid.",
	}
	ResetTokenExpired = &CustomError{
		Code:    "ERR-009",
		Message: "The password reset token has expired. Please request a new one.",
	}
	Unauthorized = &CustomError{
		Code:    "ERR-010",
		Message: "The request is unauthorized. Please login to your account.",
	}
	Forbidden = &CustomError{
		Code:    "ERR-011",
		Message: "You are not allowed to perform this action.",
	}
	SelfFollowNotAllowed = &CustomError{
		Code:    "ERR-012",
		Message: "You cannot follow yourself.",
	}
	RelationshipNotFound = &CustomError{
		Code:    "ERR-013",
		Message: "You are not following this user.",
	}
	MicropostNotFound = &CustomError{
		Code:    "ERR-014",
		Message: "The requested micropost does not exist.",
	}
	EmailNotSent = &CustomError{
		Code:    "ERR-015",
		Message: "The email could not be sent. Please try again later.",
	}
	EmailUnreachable = &CustomError{
		Code:    "ERR-016",
		Message: "The email address appears to be unreachable.",
	}
	TooManyRequests = &CustomError{
		Code:    "ERR-017",
		Message: "Too many requests. Please slow down and try again later.",
	}
	DatabaseError = &CustomError{
		Code:    "ERR-018",
		Message: "An unexpected database error occurred. Please try again later.",
	}
	InternalServerError = &CustomError{
		Code:    "ERR-019",
		Message: "An unexpected error occurred. Please try again later.",
	}
)

// WithFields returns a copy of the error carrying field-keyed details.
func (e *CustomError) WithFields(fields map[string]string) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Fields: fields}
}
