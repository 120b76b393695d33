package domain_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/domain"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

var _ = Describe("TicketIntake", func() {
	catalog := domain.DefaultPriorityCatalog()

	valid := func() domain.TicketIntake {
		return domain.TicketIntake{Category: "billing", Priority: "high", Description: "My invoice is wrong"}
	}

	It("accepts a well-formed intake after normalizing", func() {
		in := valid().Normalize()
		Expect(in.Priority).To(Equal("HIGH"))
		Expect(in.Validate(catalog)).To(Succeed())
	})

	It("trims surrounding whitespace", func() {
		in := domain.TicketIntake{Category: "  billing ", Priority: " low", Description: "   ten chars!   "}.Normalize()
		Expect(in.Category).To(Equal("billing"))
		Expect(in.Description).To(Equal("ten chars!"))
	})

	DescribeTable("rejects invalid fields",
		func(mutate func(*domain.TicketIntake), field string) {
			in := valid()
			mutate(&in)
			err := in.Normalize().Validate(catalog)
			Expect(err).To(MatchError(apperrors.ErrValidation))
			Expect(apperrors.ToDomainError(err).Details).To(HaveKey(field))
		},
		Entry("missing category", func(in *domain.TicketIntake) { in.Category = " " }, "category"),
		Entry("unknown priority", func(in *domain.TicketIntake) { in.Priority = "CRITICAL" }, "priority"),
		Entry("short description", func(in *domain.TicketIntake) { in.Description = "too short" }, "description"),
		Entry("long description", func(in *domain.TicketIntake) { in.Description = strings.Repeat("x", 1001) }, "description"),
	)

	It("counts description length in characters", func() {
		in := valid()
		in.Description = strings.Repeat("é", 10)
		Expect(in.Validate(catalog)).To(Succeed())
	})
})

var _ = Describe("ApplicationIntake", func() {
	It("requires every field", func() {
		err := domain.ApplicationIntake{Name: "Sam", Age: "21"}.Normalize().Validate()
		Expect(err).To(MatchError(apperrors.ErrValidation))
		Expect(apperrors.ToDomainError(err).Details).To(HaveLen(3))
	})

	It("accepts a complete form", func() {
		in := domain.ApplicationIntake{
			Name:         "Sam",
			Age:          "21",
			Experience:   "Moderated two communities",
			Motivation:   "I like helping",
			Availability: "Evenings",
		}
		Expect(in.Normalize().Validate()).To(Succeed())
	})
})

var _ = Describe("TicketStatus", func() {
	It("counts only OPEN and CLAIMED as active", func() {
		Expect(domain.TicketStatusOpen.Active()).To(BeTrue())
		Expect(domain.TicketStatusClaimed.Active()).To(BeTrue())
		Expect(domain.TicketStatusClosing.Active()).To(BeFalse())
		Expect(domain.TicketStatusClosed.Active()).To(BeFalse())
	})
})
