package registry_test

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-bot/internal/registry"
)

var _ = Describe("Redis reservations", func() {
	var (
		ctx    context.Context
		client *redis.Client
		res    registry.Reservations
	)

	BeforeEach(func() {
		addr := os.Getenv("REDIS_TEST_ADDR")
		if addr == "" {
			Skip("REDIS_TEST_ADDR not set")
		}
		ctx = context.Background()
		client = redis.NewClient(&redis.Options{Addr: addr})
		DeferCleanup(client.Close)
		res = registry.NewRedisReservations(client, "ticketbot-test:"+uuid.NewString()+":")
	})

	It("behaves as a set-if-absent", func() {
		Expect(res.Reserve(ctx, "k", time.Minute)).To(BeTrue())
		Expect(res.Reserve(ctx, "k", time.Minute)).To(BeFalse())
		Expect(res.Held(ctx, "k")).To(BeTrue())
		Expect(res.Release(ctx, "k")).To(Succeed())
		Expect(res.Held(ctx, "k")).To(BeFalse())
	})

	It("releases only the bound owner", func() {
		Expect(res.Reserve(ctx, "k", 0)).To(BeTrue())
		Expect(res.Bind(ctx, "k", "c1")).To(Succeed())
		owner, held, err := res.Owner(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(held).To(BeTrue())
		Expect(owner).To(Equal("c1"))
		Expect(res.ReleaseOwned(ctx, "k", "c2")).To(BeFalse())
		Expect(res.ReleaseOwned(ctx, "k", "c1")).To(BeTrue())
		Expect(res.Held(ctx, "k")).To(BeFalse())
	})
})
