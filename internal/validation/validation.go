// Package validation provides input validation middleware for the Kinetiq API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 10000

var (
	// identifierRegex validates user and session identifiers
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,128}$`)
	// hexRegex validates hex strings (for signature digests, etc)
	hexRegex = regexp.MustCompile(`^[a-fA-F0-9]+$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidIdentifier checks if a string is a well-formed user or session id
func IsValidIdentifier(id string) bool {
	return identifierRegex.MatchString(id)
}

// IsValidHex checks if a string is valid hex
func IsValidHex(s string) bool {
	return hexRegex.MatchString(s)
}

// IsValidPlatform checks if a string is a known platform tag
func IsValidPlatform(p string) bool {
	switch p {
	case "mobile", "web", "desktop":
		return true
	}
	return false
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidIdentifier checks if a field is a well-formed identifier
func ValidIdentifier(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidIdentifier(value) {
			return &ValidationError{Field: field, Message: "must be 1-128 chars of [a-zA-Z0-9_.:-]"}
		}
		return nil
	}
}

// ValidPlatform checks if a field is a known platform tag
func ValidPlatform(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		if !IsValidPlatform(value) {
			return &ValidationError{Field: field, Message: "must be one of mobile, web, desktop"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// UserIDParamMiddleware validates the :userId URL parameter on routes that use it.
// Apply to route groups that include :userId params to reject malformed ids early.
func UserIDParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("userId")
		if id != "" && !IsValidIdentifier(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_user_id",
				"message": "userId must be 1-128 chars of [a-zA-Z0-9_.:-]",
			})
			return
		}
		c.Next()
	}
}

// SessionIDParamMiddleware validates the :sessionId URL parameter.
func SessionIDParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("sessionId")
		if id != "" && !IsValidIdentifier(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_session_id",
				"message": "sessionId must be 1-128 chars of [a-zA-Z0-9_.:-]",
			})
			return
		}
		c.Next()
	}
}
