package scanning

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a recognizer failure
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindRateLimited
	KindQuotaExceeded
	KindBillingInactive
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindBillingInactive:
		return "billing_inactive"
	default:
		return "unknown"
	}
}

// ProviderError is a failure reported by the recognizer service
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UserMessage returns a message that can be shown to the person who uploaded the receipt
func (e *ProviderError) UserMessage() string {
	name := providerTitle(e.Provider)
	switch e.Kind {
	case KindBillingInactive:
		return name + " account billing is not active. Please add a payment method to your account."
	case KindRateLimited:
		return name + " API rate limit exceeded. Please try again in a few moments."
	case KindAuth:
		return name + " API key is invalid. Please check your API key."
	case KindQuotaExceeded:
		return name + " API quota exceeded. Please check your account usage."
	default:
		return fmt.Sprintf("%s API error: %v", name, e.Err)
	}
}

func providerTitle(p string) string {
	switch p {
	case "openai":
		return "OpenAI"
	case "gemini":
		return "Gemini"
	case "ollama":
		return "Ollama"
	}
	return p
}

// kindFromStatus maps an HTTP status code to an error kind
func kindFromStatus(code int) ErrorKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusPaymentRequired:
		return KindBillingInactive
	}
	return KindUnknown
}

// classifyOpenAIError reads the structured error payload returned by the OpenAI API
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := strings.ToLower(fmt.Sprint(apiErr.Code))
		kind := kindFromStatus(apiErr.HTTPStatusCode)
		switch {
		case code == "billing_not_active" || apiErr.Type == "billing_not_active":
			kind = KindBillingInactive
		case code == "insufficient_quota" || apiErr.Type == "insufficient_quota":
			kind = KindQuotaExceeded
		case code == "invalid_api_key":
			kind = KindAuth
		case code == "rate_limit_exceeded":
			kind = KindRateLimited
		}
		return &ProviderError{Kind: kind, Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Kind: kindFromStatus(reqErr.HTTPStatusCode), Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &ProviderError{Kind: KindUnknown, Provider: "openai", Err: err}
}

// classifyGeminiError reads googleapi and gRPC status errors from the Gemini client
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		kind := kindFromStatus(apiErr.Code)
		for _, item := range apiErr.Errors {
			if strings.Contains(strings.ToLower(item.Reason), "quota") {
				kind = KindQuotaExceeded
			}
		}
		return &ProviderError{Kind: kind, Provider: "gemini", StatusCode: apiErr.Code, Err: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		kind := KindUnknown
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			kind = KindAuth
		case codes.ResourceExhausted:
			kind = KindRateLimited
			if strings.Contains(strings.ToLower(st.Message()), "quota") {
				kind = KindQuotaExceeded
			}
		}
		return &ProviderError{Kind: kind, Provider: "gemini", Err: err}
	}

	return &ProviderError{Kind: KindUnknown, Provider: "gemini", Err: err}
}
