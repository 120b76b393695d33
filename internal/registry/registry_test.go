package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/registry"
)

func ticket(seq int, channelID, requesterID, category string, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{
		Sequence:  seq,
		Requester: domain.User{ID: requesterID, Username: requesterID},
		Category:  category,
		Status:    status,
		Channel:   domain.ChannelRef{ID: channelID, Name: "ticket"},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, seq, 0, time.UTC),
	}
}

var _ = Describe("Registry", func() {
	var (
		ctx context.Context
		reg *registry.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg = registry.New(registry.NewMemoryReservations(), 0)
	})

	Describe("reservations", func() {
		It("grants a key to exactly one concurrent caller", func() {
			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					ok, err := reg.Reserve(ctx, registry.TicketKey("u1", "billing"))
					Expect(err).NotTo(HaveOccurred())
					if ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			Expect(wins).To(Equal(int32(1)))
		})

		It("frees a key on release", func() {
			key := registry.ApplicationKey("u1")
			Expect(reg.Reserve(ctx, key)).To(BeTrue())
			Expect(reg.Held(ctx, key)).To(BeTrue())
			Expect(reg.Release(ctx, key)).To(Succeed())
			Expect(reg.Held(ctx, key)).To(BeFalse())
			Expect(reg.Reserve(ctx, key)).To(BeTrue())
		})

		It("expires keys after the ttl", func() {
			short := registry.New(registry.NewMemoryReservations(), time.Millisecond)
			Expect(short.Reserve(ctx, "k")).To(BeTrue())
			Eventually(func() (bool, error) { return short.Held(ctx, "k") }).Should(BeFalse())
		})

		It("binds a key to the channel it created", func() {
			key := registry.TicketKey("u1", "billing")
			Expect(reg.Reserve(ctx, key)).To(BeTrue())

			owner, held, err := reg.Owner(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(held).To(BeTrue())
			Expect(owner).To(BeEmpty())

			Expect(reg.Bind(ctx, key, "c1")).To(Succeed())
			owner, _, _ = reg.Owner(ctx, key)
			Expect(owner).To(Equal("c1"))

			Expect(reg.ReleaseOwned(ctx, key, "c2")).To(BeFalse())
			Expect(reg.Held(ctx, key)).To(BeTrue())
			Expect(reg.ReleaseOwned(ctx, key, "c1")).To(BeTrue())
			Expect(reg.Held(ctx, key)).To(BeFalse())
		})

		It("does not bind a free key", func() {
			Expect(reg.Bind(ctx, "k", "c1")).To(Succeed())
			_, held, err := reg.Owner(ctx, "k")
			Expect(err).NotTo(HaveOccurred())
			Expect(held).To(BeFalse())
		})

		It("keys tickets case-insensitively by category", func() {
			Expect(registry.TicketKey("u1", " Billing ")).To(Equal(registry.TicketKey("u1", "billing")))
		})
	})

	Describe("tickets", func() {
		It("returns copies that do not alias the stored ticket", func() {
			reg.PutTicket(ticket(1, "c1", "u1", "billing", domain.TicketStatusOpen))
			t, ok := reg.Ticket("c1")
			Expect(ok).To(BeTrue())
			t.Status = domain.TicketStatusClosed

			again, _ := reg.Ticket("c1")
			Expect(again.Status).To(Equal(domain.TicketStatusOpen))
		})

		It("adopts a ticket only when its channel is untracked", func() {
			reg.PutTicket(ticket(1, "c1", "u1", "billing", domain.TicketStatusClaimed))
			kept := reg.AdoptTicket(ticket(1, "c1", "u1", "billing", domain.TicketStatusOpen))
			Expect(kept.Status).To(Equal(domain.TicketStatusClaimed))

			adopted := reg.AdoptTicket(ticket(2, "c2", "u2", "billing", domain.TicketStatusOpen))
			Expect(adopted.Sequence).To(Equal(2))
			Expect(reg.HasActiveTicket("u2", "billing")).To(BeTrue())
		})

		It("leaves the ticket untouched when the update fails", func() {
			reg.PutTicket(ticket(1, "c1", "u1", "billing", domain.TicketStatusOpen))
			boom := errors.New("boom")
			_, err := reg.UpdateTicket("c1", func(t *domain.Ticket) error {
				t.Status = domain.TicketStatusClosing
				return boom
			})
			Expect(err).To(MatchError(boom))
			t, _ := reg.Ticket("c1")
			Expect(t.Status).To(Equal(domain.TicketStatusOpen))
		})

		It("reports untracked channels", func() {
			_, err := reg.UpdateTicket("missing", func(*domain.Ticket) error { return nil })
			Expect(err).To(MatchError(registry.ErrNotTracked))
		})

		It("lists only active tickets in sequence order", func() {
			reg.PutTicket(ticket(3, "c3", "u3", "a", domain.TicketStatusClaimed))
			reg.PutTicket(ticket(1, "c1", "u1", "a", domain.TicketStatusOpen))
			reg.PutTicket(ticket(2, "c2", "u2", "a", domain.TicketStatusClosing))

			active := reg.ActiveTickets()
			Expect(active).To(HaveLen(2))
			Expect(active[0].Channel.ID).To(Equal("c1"))
			Expect(active[1].Channel.ID).To(Equal("c3"))
		})

		It("detects an active ticket per requester and category", func() {
			reg.PutTicket(ticket(1, "c1", "u1", "Billing", domain.TicketStatusOpen))
			reg.PutTicket(ticket(2, "c2", "u1", "tech", domain.TicketStatusClosing))

			Expect(reg.HasActiveTicket("u1", "billing")).To(BeTrue())
			Expect(reg.HasActiveTicket("u1", "tech")).To(BeFalse())
			Expect(reg.HasActiveTicket("u2", "billing")).To(BeFalse())
		})
	})

	Describe("applications", func() {
		It("lists pending applications oldest first", func() {
			now := time.Now()
			reg.PutApplication(domain.Application{Channel: domain.ChannelRef{ID: "a2"}, Status: domain.ApplicationStatusPending, SubmittedAt: now})
			reg.PutApplication(domain.Application{Channel: domain.ChannelRef{ID: "a1"}, Status: domain.ApplicationStatusPending, SubmittedAt: now.Add(-time.Hour)})
			reg.PutApplication(domain.Application{Channel: domain.ChannelRef{ID: "a3"}, Status: domain.ApplicationStatusAccepted, SubmittedAt: now})

			pending := reg.PendingApplications()
			Expect(pending).To(HaveLen(2))
			Expect(pending[0].Channel.ID).To(Equal("a1"))

			reg.RemoveApplication("a1")
			_, ok := reg.Application("a1")
			Expect(ok).To(BeFalse())
		})
	})
})
