package main

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/ticket-bot/internal/auth"
)

var _ = Describe("parseFlags", func() {
	It("defaults to the glue with every scope", func() {
		opts, err := parseFlags(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.service).To(Equal("dispatch-glue"))
		Expect(opts.scopes).To(Equal(auth.AllScopes))
		Expect(opts.ttlMinutes).To(BeZero())
	})

	It("reads the long flags", func() {
		opts, err := parseFlags([]string{"--service", "dashboard", "--scopes", "stats, tickets", "--ttl-minutes", "15"})
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.service).To(Equal("dashboard"))
		Expect(opts.scopes).To(Equal([]auth.Scope{auth.ScopeStats, auth.ScopeTickets}))
		Expect(opts.ttlMinutes).To(Equal(15))
	})

	It("accepts the short service flag", func() {
		opts, err := parseFlags([]string{"-s", "relay"})
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.service).To(Equal("relay"))
	})

	It("rejects unknown flags", func() {
		_, err := parseFlags([]string{"--bogus"})
		Expect(err).To(HaveOccurred())
	})
})
