package scanning

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ = Describe("classifyOpenAIError", func() {
	var (
		input error
		perr  *ProviderError
	)

	JustBeforeEach(func() {
		err := classifyOpenAIError(input)
		Expect(errors.As(err, &perr)).To(BeTrue())
	})

	When("billing is not active", func() {
		BeforeEach(func() {
			input = &openai.APIError{Code: "billing_not_active", Type: "billing_not_active", HTTPStatusCode: http.StatusTooManyRequests}
		})

		It("should report inactive billing", func() {
			Expect(perr.Kind).To(Equal(KindBillingInactive))
			Expect(perr.UserMessage()).To(ContainSubstring("billing is not active"))
		})
	})

	When("the quota is used up", func() {
		BeforeEach(func() {
			input = &openai.APIError{Code: "insufficient_quota", Type: "insufficient_quota", HTTPStatusCode: http.StatusTooManyRequests}
		})

		It("should report the quota rather than a rate limit", func() {
			Expect(perr.Kind).To(Equal(KindQuotaExceeded))
			Expect(perr.UserMessage()).To(ContainSubstring("quota exceeded"))
		})
	})

	When("the request is rate limited", func() {
		BeforeEach(func() {
			input = &openai.APIError{Code: "rate_limit_exceeded", HTTPStatusCode: http.StatusTooManyRequests}
		})

		It("should report a rate limit", func() {
			Expect(perr.Kind).To(Equal(KindRateLimited))
			Expect(perr.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(perr.UserMessage()).To(Equal("OpenAI API rate limit exceeded. Please try again in a few moments."))
		})
	})

	When("the key is invalid", func() {
		BeforeEach(func() {
			input = &openai.APIError{Code: "invalid_api_key", HTTPStatusCode: http.StatusUnauthorized}
		})

		It("should report an auth failure", func() {
			Expect(perr.Kind).To(Equal(KindAuth))
		})
	})

	When("the request itself failed with a status", func() {
		BeforeEach(func() {
			input = &openai.RequestError{HTTPStatusCode: http.StatusUnauthorized, Err: errors.New("unauthorized")}
		})

		It("should classify by status code", func() {
			Expect(perr.Kind).To(Equal(KindAuth))
		})
	})

	When("the error is unrecognised", func() {
		BeforeEach(func() {
			input = errors.New("connection reset")
		})

		It("should keep the original error", func() {
			Expect(perr.Kind).To(Equal(KindUnknown))
			Expect(perr).To(MatchError(ContainSubstring("connection reset")))
			Expect(perr.UserMessage()).To(HavePrefix("OpenAI API error:"))
		})
	})
})

var _ = Describe("classifyGeminiError", func() {
	It("should read googleapi errors", func() {
		err := classifyGeminiError(&googleapi.Error{Code: http.StatusForbidden})
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Kind).To(Equal(KindAuth))
		Expect(perr.Provider).To(Equal("gemini"))
	})

	It("should read quota reasons", func() {
		err := classifyGeminiError(&googleapi.Error{Code: http.StatusTooManyRequests, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}})
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Kind).To(Equal(KindQuotaExceeded))
	})

	It("should read gRPC status codes", func() {
		err := classifyGeminiError(status.Error(codes.ResourceExhausted, "slow down"))
		var perr *ProviderError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Kind).To(Equal(KindRateLimited))
	})
})
