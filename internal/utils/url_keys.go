package utils

const (
	// UserIdKey is the key for the user id used in routing parameters.
	UserIdKey = "userId"

	// MicropostIdKey is the key for the micropost id used in routing parameters.
	MicropostIdKey = "micropostId"

	// OffsetParamKey is the key for offset used in pagination query parameters.
	OffsetParamKey = "offset"

	// LimitParamKey is the key for limit used in pagination query parameters.
	LimitParamKey = "limit"

	// RememberTokenCookie is the cookie holding the plaintext remember token.
	RememberTokenCookie = "remember_token"

	// RememberUserCookie is the signed cookie holding the remembered user id.
	RememberUserCookie = "remember_user"
)
