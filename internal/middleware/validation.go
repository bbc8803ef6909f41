package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"microblog/internal/schemas"
	"microblog/internal/utils"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh copy of the
// given request struct, strips markup from its string fields and runs the
// declared validations. Validation rejections carry a field-keyed list of
// the violated constraints; they are the normal "reject this input"
// outcome, never a panic.
func ValidateAndSanitizeStruct(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := factory()

		if err := c.ShouldBindJSON(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		validator := utils.GetValidator()
		if err := validator.SanitizeData(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		if err := validator.Validate.Struct(obj); err != nil {
			customErr := schemas.ValidationFailed.WithFields(utils.FieldViolations(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *customErr})
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}
