package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/uid0/openmakersuite/internal/apierror"
	"github.com/uid0/openmakersuite/internal/domain"
	"github.com/uid0/openmakersuite/internal/middleware"
	"github.com/uid0/openmakersuite/internal/service"
)

func init() {
	// Teach the validator about decimal.Decimal so binding tags work on
	// money fields.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	}
}

// bindAndValidate binds the JSON body into req and writes a 422 with
// field details on failure. Returns false when the request was rejected.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			fields := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				fields[fe.Field()] = "failed validation on '" + fe.Tag() + "'"
			}
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("Malformed request body"))
		return false
	}
	return true
}

// uuidParam parses the named path parameter as a UUID, writing a 400 on
// failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("Invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}

// actorFrom builds the service-level actor from the JWT claims set by
// the auth middleware.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	userID, _ := uuid.Parse(claims.UserID)
	return service.Actor{
		UserID:   userID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}

// respondError maps domain errors onto HTTP statuses. Anything
// unrecognized becomes a 500 with the detail kept server-side.
func respondError(c *gin.Context, err error) {
	var dupErr *domain.DuplicateActiveRequestError
	var transErr *domain.InvalidTransitionError
	var valErr *domain.ValidationError

	switch {
	case errors.As(err, &dupErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"detail":              "Item already has an active reorder request",
			"existing_request_id": dupErr.Existing.ID.String(),
			"existing_status":     dupErr.Existing.Status,
		})
	case errors.As(err, &transErr):
		c.AbortWithStatusJSON(http.StatusConflict, apierror.New(transErr.Error()))
	case errors.As(err, &valErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			apierror.NewValidation(map[string]string{valErr.Field: valErr.Reason}))
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, apierror.New("Not found"))
	case errors.Is(err, domain.ErrTransientStore):
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Temporarily busy, retry shortly"))
	case errors.Is(err, domain.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid credentials"))
	case errors.Is(err, domain.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Insufficient permissions"))
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("handler error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
