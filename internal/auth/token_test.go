package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TokenManager", func() {
	var tm *TokenManager

	BeforeEach(func() {
		tm = NewTokenManager("secret", 30)
	})

	It("round-trips service and scopes", func() {
		token, expiresAt, err := tm.GenerateToken("glue", []Scope{ScopeTickets, ScopeStats})
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(BeTemporally("~", time.Now().Add(30*time.Minute), 5*time.Second))

		claims, err := tm.ParseToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Service).To(Equal("glue"))
		Expect(claims.Subject).To(Equal("glue"))
		Expect(claims.HasScope(ScopeTickets)).To(BeTrue())
		Expect(claims.HasScope(ScopeApplications)).To(BeFalse())
	})

	It("requires a service name", func() {
		_, _, err := tm.GenerateToken("", AllScopes)
		Expect(err).To(HaveOccurred())
	})

	It("rejects tokens signed with another secret", func() {
		token, _, err := NewTokenManager("other", 30).GenerateToken("glue", AllScopes)
		Expect(err).NotTo(HaveOccurred())
		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})

	It("rejects expired tokens", func() {
		tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := tm.GenerateToken("glue", AllScopes)
		Expect(err).NotTo(HaveOccurred())

		_, err = NewTokenManager("secret", 30).ParseToken(token)
		Expect(err).To(MatchError(jwt.ErrTokenExpired))
	})

	It("rejects other signing methods", func() {
		claims := &Claims{Service: "glue", Scopes: AllScopes}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		Expect(err).NotTo(HaveOccurred())
		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})
})
