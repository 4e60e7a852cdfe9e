package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/streamhub/errors"
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(tokenString string) (string, error)
}

// Middleware authenticates the request via its Authorization header and
// sets "user_id" on the gin context. Requests without a valid bearer token
// are rejected with 401 before any session state is touched.
func Middleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			// SSE via EventSource cannot set headers; allow the token
			// as a query parameter for the stream endpoint.
			token = c.Query("access_token")
		}
		if token == "" {
			appErr := errors.Unauthorized("")
			c.AbortWithStatusJSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			appErr := errors.AsAppError(err)
			c.AbortWithStatusJSON(appErr.HTTPStatus, errors.ErrorResponse{Error: appErr})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
