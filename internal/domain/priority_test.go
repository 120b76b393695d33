package domain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

var _ = Describe("PriorityCatalog", func() {
	var catalog *domain.PriorityCatalog

	BeforeEach(func() {
		catalog = domain.DefaultPriorityCatalog()
	})

	DescribeTable("default SLA table",
		func(name string, color, hours int) {
			p, ok := catalog.Get(name)
			Expect(ok).To(BeTrue())
			Expect(p.Color).To(Equal(color))
			Expect(p.MaxResponseTime).To(Equal(hours))
		},
		Entry("low", "LOW", 0x00ff00, 24),
		Entry("medium", "MEDIUM", 0xffff00, 12),
		Entry("high", "HIGH", 0xff9900, 6),
		Entry("urgent", "URGENT", 0xff0000, 1),
	)

	It("yields the exact URGENT profile", func() {
		p, ok := catalog.Get("URGENT")
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(domain.PriorityProfile{Level: domain.TicketPriorityUrgent, Color: 0xff0000, MaxResponseTime: 1}))
	})

	It("resolves names case-insensitively", func() {
		p, ok := catalog.Get(" urgent ")
		Expect(ok).To(BeTrue())
		Expect(p.Level).To(Equal(domain.TicketPriorityUrgent))
	})

	It("rejects unknown priorities", func() {
		_, ok := catalog.Get("CRITICAL")
		Expect(ok).To(BeFalse())
	})

	It("orders levels from least to most urgent", func() {
		Expect(catalog.Levels()).To(Equal([]domain.TicketPriority{
			domain.TicketPriorityLow,
			domain.TicketPriorityMedium,
			domain.TicketPriorityHigh,
			domain.TicketPriorityUrgent,
		}))
	})

	It("applies overrides without touching the original", func() {
		custom := catalog.With([]domain.PriorityProfile{{Level: "high", Color: 0x123456, MaxResponseTime: 4}})

		p, _ := custom.Get("HIGH")
		Expect(p.MaxResponseTime).To(Equal(4))
		Expect(p.Color).To(Equal(0x123456))

		orig, _ := catalog.Get("HIGH")
		Expect(orig.MaxResponseTime).To(Equal(6))
	})
})
