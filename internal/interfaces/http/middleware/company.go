package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

const (
	// CompanyIDHeader names the company when no token is presented
	CompanyIDHeader = "X-Company-ID"
	// CompanyIDKey holds the resolved company uuid.UUID
	CompanyIDKey = "company_id"
)

// RequireCompany resolves the calling company from the JWT claims, falling
// back to the X-Company-ID header, and aborts with 401 when neither is set.
// Claims always win over the header.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := GetJWTCompanyID(c)
		fromClaims := raw != ""
		if !fromClaims {
			raw = c.GetHeader(CompanyIDHeader)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Company context required", GetRequestID(c)))
			return
		}

		companyID, err := uuid.Parse(raw)
		if err != nil || companyID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidInput, "Company ID must be a UUID", GetRequestID(c)))
			return
		}

		c.Set(CompanyIDKey, companyID)
		if !fromClaims {
			ctx := c.Request.Context()
			ctx, _ = logger.WithCompanyID(ctx, logger.FromContext(ctx), companyID.String())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// GetCompanyID returns the company resolved by RequireCompany
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CompanyIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
