package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/config"
)

func setenv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

var _ = Describe("Load", func() {
	It("applies defaults", func() {
		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Tickets.ClaimPolicy).To(Equal(config.ClaimPolicyFirstWins))
		Expect(cfg.Tickets.CloseGrace()).To(Equal(5 * time.Second))
		Expect(cfg.Inactivity.Threshold()).To(Equal(24 * time.Hour))
		Expect(cfg.Inactivity.AutoClose).To(BeFalse())
		Expect(cfg.Applications.Dedup).To(BeTrue())
		Expect(cfg.Platform.Mode).To(Equal(config.PlatformMemory))
		Expect(cfg.Registry.ReservationTTL()).To(BeZero())
	})

	It("reads overrides from the environment", func() {
		setenv("TICKET_CLAIM_POLICY", "allow_reclaim")
		setenv("INACTIVITY_AUTO_CLOSE", "true")
		setenv("INACTIVITY_GRACE_HOURS", "6")
		setenv("SUPPORT_TIER1_ROLE_ID", "tier1")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Tickets.ClaimPolicy).To(Equal(config.ClaimPolicyAllowReclaim))
		Expect(cfg.Inactivity.AutoClose).To(BeTrue())
		Expect(cfg.Inactivity.Grace()).To(Equal(6 * time.Hour))
		Expect(cfg.Guild.SupportTiers).To(HaveKeyWithValue("TIER1", "tier1"))
	})

	DescribeTable("rejects invalid settings",
		func(key, value string) {
			setenv(key, value)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		},
		Entry("claim policy", "TICKET_CLAIM_POLICY", "last_wins"),
		Entry("platform mode", "PLATFORM_MODE", "irc"),
		Entry("bridge without url", "PLATFORM_MODE", "bridge"),
		Entry("registry backend", "REGISTRY_BACKEND", "etcd"),
		Entry("sweep interval", "INACTIVITY_SWEEP_INTERVAL_MINUTES", "0"),
		Entry("redis db", "REDIS_DB", "zero"),
	)

	It("merges the catalog file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bot.yaml")
		Expect(os.WriteFile(path, []byte(`
priorities:
  high: {color: 0x123456, max_response_hours: 4}
support_tiers:
  admin: "admins"
`), 0o600)).To(Succeed())
		setenv("BOT_CONFIG_FILE", path)

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Guild.SupportTiers).To(HaveKeyWithValue("ADMIN", "admins"))

		high, ok := cfg.Catalog.PriorityCatalog().Get("HIGH")
		Expect(ok).To(BeTrue())
		Expect(high.MaxResponseTime).To(Equal(4))
		Expect(high.Color).To(Equal(0x123456))

		urgent, _ := cfg.Catalog.PriorityCatalog().Get("URGENT")
		Expect(urgent.MaxResponseTime).To(Equal(1))
	})

	It("rejects a catalog file with a non-positive response time", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bot.yaml")
		Expect(os.WriteFile(path, []byte("priorities:\n  LOW: {max_response_hours: 0}\n"), 0o600)).To(Succeed())
		setenv("BOT_CONFIG_FILE", path)

		_, err := config.Load()
		Expect(err).To(MatchError(ContainSubstring("max_response_hours")))
	})
})
