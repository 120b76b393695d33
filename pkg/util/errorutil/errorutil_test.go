package errorutil_test

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

var _ = Describe("DomainError", func() {
	It("matches sentinels by code through wrapping", func() {
		err := fmt.Errorf("create: %w", apperrors.NewDuplicateTicket("u1", "billing"))
		Expect(errors.Is(err, apperrors.ErrDuplicateTicket)).To(BeTrue())
		Expect(errors.Is(err, apperrors.ErrDuplicateApplication)).To(BeFalse())
	})

	It("unwraps to the underlying cause", func() {
		cause := errors.New("unknown role")
		err := apperrors.NewRoleNotFound("r1", cause)
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("unknown role"))
	})

	DescribeTable("operator flag",
		func(err error, operator bool) {
			Expect(apperrors.IsOperatorError(err)).To(Equal(operator))
		},
		Entry("role not found", apperrors.NewRoleNotFound("r", nil), true),
		Entry("archive missing", apperrors.NewTranscriptArchiveMissing("c", nil), true),
		Entry("category not found", apperrors.NewCategoryNotFound("c", nil), true),
		Entry("duplicate ticket", apperrors.NewDuplicateTicket("u", "c"), false),
		Entry("channel not found", apperrors.NewChannelNotFound("c", nil), false),
		Entry("plain error", errors.New("x"), false),
	)

	It("hides internal detail from the user message", func() {
		de := apperrors.ToDomainError(apperrors.NewCategoryNotFound("cat-42", nil))
		Expect(de.Message).To(ContainSubstring("cat-42"))
		Expect(de.UserMessage).NotTo(ContainSubstring("cat-42"))
		Expect(de.HTTPStatus).To(Equal(http.StatusInternalServerError))
	})

	It("wraps unknown errors as internal", func() {
		de := apperrors.ToDomainError(errors.New("socket closed"))
		Expect(de.Code).To(Equal(apperrors.CodeInternal))
		Expect(de.HTTPStatus).To(Equal(http.StatusInternalServerError))
		Expect(apperrors.ToDomainError(nil)).To(BeNil())
	})
})
