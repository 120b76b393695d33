package stats_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/ticket-bot/internal/stats"
)

var _ = Describe("Store", func() {
	var store *stats.Store

	BeforeEach(func() {
		store = stats.NewStore()
	})

	It("starts at zero with no average", func() {
		Expect(store.Snapshot()).To(Equal(stats.Snapshot{}))
	})

	It("averages response times over first claims", func() {
		store.TicketOpened()
		store.TicketOpened()
		store.TicketClaimed(10 * time.Minute)
		store.TicketClaimed(20 * time.Minute)

		snap := store.Snapshot()
		Expect(snap.TotalTickets).To(Equal(int64(2)))
		Expect(snap.ClaimedTickets).To(Equal(int64(2)))
		Expect(snap.AverageResponseTime).To(Equal(15 * time.Minute))
	})

	It("moves closed tickets out of the open count", func() {
		store.TicketOpened()
		store.TicketOpened()
		store.TicketClosed()

		snap := store.Snapshot()
		Expect(snap.OpenTickets).To(Equal(int64(1)))
		Expect(snap.ClosedTickets).To(Equal(int64(1)))
		Expect(snap.TotalTickets).To(Equal(int64(2)))
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				store.TicketOpened()
				store.TicketClaimed(time.Second)
			}()
		}
		wg.Wait()
		snap := store.Snapshot()
		Expect(snap.TotalTickets).To(Equal(int64(50)))
		Expect(snap.AverageResponseTime).To(Equal(time.Second))
	})
})

var _ = Describe("Collector", func() {
	It("exports the snapshot", func() {
		store := stats.NewStore()
		store.TicketOpened()
		store.TicketClaimed(90 * time.Second)

		reg := prometheus.NewPedanticRegistry()
		reg.MustRegister(stats.NewCollector(store))
		families, err := reg.Gather()
		Expect(err).NotTo(HaveOccurred())

		values := map[string]float64{}
		for _, mf := range families {
			m := mf.GetMetric()[0]
			if g := m.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			} else {
				values[mf.GetName()] = m.GetCounter().GetValue()
			}
		}
		Expect(values).To(HaveKeyWithValue("ticketbot_tickets_total", 1.0))
		Expect(values).To(HaveKeyWithValue("ticketbot_tickets_open", 1.0))
		Expect(values).To(HaveKeyWithValue("ticketbot_tickets_claimed_total", 1.0))
		Expect(values).To(HaveKeyWithValue("ticketbot_ticket_response_seconds_avg", 90.0))
	})
})
