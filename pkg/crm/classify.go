package crm

import (
	"fmt"
	"net/http"
)

// Category groups CRM failures by how they should be handled.
type Category string

const (
	CategoryRateLimit      Category = "RATE_LIMIT"
	CategoryServerError    Category = "SERVER_ERROR"
	CategoryClientError    Category = "CLIENT_ERROR"
	CategoryNetworkError   Category = "NETWORK_ERROR"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryValidation     Category = "VALIDATION"
)

// Classification is the retry and alert policy for one failed call.
// It is derived from the response alone and never cached.
type Classification struct {
	StatusCode  int      `json:"status_code"`
	Category    Category `json:"category"`
	Retryable   bool     `json:"retryable"`
	ShouldAlert bool     `json:"should_alert"`
	Message     string   `json:"message"`
}

// Classify maps an HTTP status code to a Classification. It is total:
// every code, including ones the CRM never returns, gets a category.
func Classify(statusCode int) Classification {
	c := Classification{StatusCode: statusCode}

	switch statusCode {
	case http.StatusBadRequest:
		c.Category = CategoryValidation
		c.Message = "bad request: invalid data sent to CRM"
	case http.StatusUnauthorized:
		c.Category = CategoryAuthentication
		c.ShouldAlert = true
		c.Message = "unauthorized: invalid or expired CRM token"
	case http.StatusForbidden:
		c.Category = CategoryAuthentication
		c.ShouldAlert = true
		c.Message = "forbidden: insufficient permissions"
	case http.StatusNotFound:
		c.Category = CategoryClientError
		c.Message = "not found: resource does not exist"
	case http.StatusTooManyRequests:
		c.Category = CategoryRateLimit
		c.Retryable = true
		c.Message = "rate limited: too many requests"
	case http.StatusInternalServerError:
		c.Category = CategoryServerError
		c.Retryable = true
		c.ShouldAlert = true
		c.Message = "internal server error: CRM service issue"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.Category = CategoryServerError
		c.Retryable = true
		c.Message = "service unavailable: CRM temporary issue"
	default:
		if statusCode >= 500 {
			c.Category = CategoryServerError
			c.Retryable = true
			c.ShouldAlert = true
			c.Message = fmt.Sprintf("server error (%d)", statusCode)
		} else {
			c.Category = CategoryClientError
			c.Message = fmt.Sprintf("client error (%d)", statusCode)
		}
	}

	return c
}

// ClassifyNetworkError classifies a failure that produced no response.
// Network errors are retried like server errors and are not alerted.
func ClassifyNetworkError(err error) Classification {
	msg := "network error"
	if err != nil {
		msg = "network error: " + err.Error()
	}
	return Classification{
		Category:  CategoryNetworkError,
		Retryable: true,
		Message:   msg,
	}
}
