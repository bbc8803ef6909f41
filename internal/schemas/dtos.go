package schemas

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// MetadataDTO is a struct that represents the service metadata response
type MetadataDTO struct {
	ApiVersion string `json:"apiVersion"`
	ApiName    string `json:"apiName"`
}

// UserDTO is a struct that represents a user response
// UserId is the numeric id of the user
// Name is the display name of the user
// Email is the email of the user, always lower-cased
type UserDTO struct {
	UserId int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// TokenPairDTO is a struct that represents a token response
// Token is the main JWT token used for auth
// RefreshToken is the refresh token used to get a new token
type TokenPairDTO struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthorDTO is a struct that represents the author of a micropost
type AuthorDTO struct {
	UserId int64  `json:"userId"`
	Name   string `json:"name"`
}

// MicropostDTO is a struct that represents a micropost response
// CreationDate is formatted as RFC3339
type MicropostDTO struct {
	MicropostId  int64     `json:"micropostId"`
	Author       AuthorDTO `json:"author"`
	Content      string    `json:"content"`
	CreationDate string    `json:"creationDate"`
}

// RelationshipDTO is a struct that represents a follow edge response
type RelationshipDTO struct {
	FollowerId   int64  `json:"followerId"`
	FollowedId   int64  `json:"followedId"`
	CreationDate string `json:"creationDate"`
}

// UserProfileDTO is a struct that represents a user profile response
// FollowedByCaller is true when the authenticated user follows this profile
type UserProfileDTO struct {
	UserId           int64  `json:"userId"`
	Name             string `json:"name"`
	Followers        int    `json:"followers"`
	Following        int    `json:"following"`
	Microposts       int    `json:"microposts"`
	FollowedByCaller bool   `json:"followedByCaller"`
}

// PaginatedResponse is a struct that represents a paginated response
// Records is the records of the response
// Pagination is the pagination of the response
type PaginatedResponse struct {
	Records    interface{} `json:"records"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination is a struct that represents a pagination
// Offset is the given offset of the pagination
// Limit is the given limit of the pagination
// Records is the total records of the pagination
type Pagination struct {
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
}
