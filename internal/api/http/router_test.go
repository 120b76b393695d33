package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/platform/memory"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/stats"
)

// immediateScheduler runs tasks synchronously.
type immediateScheduler struct{}

func (immediateScheduler) After(_ time.Duration, _ string, fn func(ctx context.Context)) {
	fn(context.Background())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

var _ = Describe("Intent API", func() {
	var (
		app    *fiber.App
		guild  *memory.Guild
		tokens *auth.TokenManager
		token  string
	)

	build := func(guildCfg config.GuildConfig) {
		guild = memory.NewGuild("guild")
		guild.AddChannel("tickets", "Tickets", "")
		guild.AddChannel("apps", "Applications", "")
		guild.AddChannel("archive", "transcripts", "")
		guild.AddRole("support", "Support")
		guild.AddRole("staff", "Staff")
		guild.AddMember(domain.User{ID: "u-sam", Username: "sam"})

		logger := zap.NewNop()
		dispatcher := events.NewInMemoryDispatcher(logger)
		reg := registry.New(nil, 0)
		tickets := service.NewTicketService(service.TicketDependencies{
			Guild:      guild,
			Registry:   reg,
			Stats:      stats.NewStore(),
			Scheduler:  immediateScheduler{},
			Dispatcher: dispatcher,
			GuildCfg:   guildCfg,
			TicketCfg:  config.TicketConfig{ClaimPolicy: config.ClaimPolicyFirstWins},
		})
		apps := service.NewApplicationService(service.ApplicationDependencies{
			Guild:      guild,
			Registry:   reg,
			Dispatcher: dispatcher,
			GuildCfg:   guildCfg,
			AppCfg:     config.ApplicationConfig{Dedup: true},
		})

		tokens = auth.NewTokenManager("test-secret", 60)
		var err error
		token, _, err = tokens.GenerateToken("glue", auth.AllScopes)
		Expect(err).NotTo(HaveOccurred())

		app = fiber.New()
		httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(prometheus.NewRegistry()), time.Second)
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler("ticket-bot", "test", nil),
			Tickets:        handlers.NewTicketsHandler(tickets),
			Applications:   handlers.NewApplicationsHandler(apps),
			AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
		})
	}

	defaultGuild := config.GuildConfig{
		ID:                    "guild",
		TicketCategoryID:      "tickets",
		ApplicationCategoryID: "apps",
		TranscriptChannelID:   "archive",
		SupportRoleID:         "support",
		StaffRoleID:           "staff",
	}

	do := func(method, path string, body any, bearer string) (int, envelope) {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if bearer != "" {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
		}
		resp, err := app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var env envelope
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		if len(raw) > 0 {
			Expect(json.Unmarshal(raw, &env)).To(Succeed())
		}
		return resp.StatusCode, env
	}

	createBody := map[string]any{
		"requester":   map[string]string{"id": "u-sam", "username": "sam"},
		"category":    "Bug",
		"priority":    "high",
		"description": "The app crashes on start",
	}
	actor := map[string]any{"actor": map[string]string{"id": "u-staff", "username": "mod", "tag": "Mod#1"}}

	BeforeEach(func() {
		build(defaultGuild)
	})

	It("serves the health endpoints without a token", func() {
		status, _ := do(http.MethodGet, "/health/live", nil, "")
		Expect(status).To(Equal(http.StatusOK))
		status, _ = do(http.MethodGet, "/health/ready", nil, "")
		Expect(status).To(Equal(http.StatusOK))
	})

	It("requires a bearer token", func() {
		status, env := do(http.MethodGet, "/v1/tickets", nil, "")
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(env.Error.Code).To(Equal("UNAUTHORIZED"))

		status, _ = do(http.MethodGet, "/v1/tickets", nil, "not-a-jwt")
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	It("enforces token scopes", func() {
		statsOnly, _, err := tokens.GenerateToken("dashboard", []auth.Scope{auth.ScopeStats})
		Expect(err).NotTo(HaveOccurred())

		status, env := do(http.MethodPost, "/v1/tickets", createBody, statsOnly)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(env.Error.Code).To(Equal("UNAUTHORIZED"))

		status, _ = do(http.MethodGet, "/v1/stats", nil, statsOnly)
		Expect(status).To(Equal(http.StatusOK))
	})

	It("runs a ticket through its lifecycle", func() {
		status, env := do(http.MethodPost, "/v1/tickets", createBody, token)
		Expect(status).To(Equal(http.StatusCreated))
		var created struct {
			ChannelID   string `json:"channel_id"`
			ChannelName string `json:"channel_name"`
			Status      string `json:"status"`
			MaxHours    int    `json:"max_response_hours"`
		}
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())
		Expect(created.ChannelName).To(Equal("ticket-1-sam"))
		Expect(created.Status).To(Equal("OPEN"))
		Expect(created.MaxHours).To(Equal(6))

		status, env = do(http.MethodPost, "/v1/tickets", createBody, token)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(env.Error.Code).To(Equal("DUPLICATE_TICKET"))
		Expect(env.Error.Message).To(Equal("You already have an active ticket in this category."))

		status, _ = do(http.MethodGet, "/v1/tickets", nil, token)
		Expect(status).To(Equal(http.StatusOK))

		status, env = do(http.MethodPost, "/v1/tickets/"+created.ChannelID+"/claim", actor, token)
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(ContainSubstring(`"topic":"Claimed by: Mod#1"`))

		status, env = do(http.MethodPost, "/v1/tickets/"+created.ChannelID+"/transcript", nil, token)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(string(env.Data)).To(ContainSubstring("transcript-ticket-1-sam.txt"))

		status, _ = do(http.MethodPost, "/v1/tickets/"+created.ChannelID+"/close", actor, token)
		Expect(status).To(Equal(http.StatusAccepted))
		Expect(guild.HasChannel(created.ChannelID)).To(BeFalse())

		status, env = do(http.MethodPost, "/v1/tickets/"+created.ChannelID+"/close", actor, token)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(env.Error.Code).To(Equal("CHANNEL_NOT_FOUND"))

		status, env = do(http.MethodGet, "/v1/stats", nil, token)
		Expect(status).To(Equal(http.StatusOK))
		var snap struct {
			Total   int64 `json:"totalTickets"`
			Closed  int64 `json:"closedTickets"`
			Claimed int64 `json:"claimedTickets"`
		}
		Expect(json.Unmarshal(env.Data, &snap)).To(Succeed())
		Expect(snap.Total).To(Equal(int64(1)))
		Expect(snap.Closed).To(Equal(int64(1)))
		Expect(snap.Claimed).To(Equal(int64(1)))
	})

	It("reports validation failures with details", func() {
		body := map[string]any{
			"requester":   map[string]string{"id": "u-sam", "username": "sam"},
			"category":    "Bug",
			"priority":    "someday",
			"description": "short",
		}
		status, env := do(http.MethodPost, "/v1/tickets", body, token)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
		Expect(env.Error.Details).To(HaveKey("priority"))
		Expect(env.Error.Details).To(HaveKey("description"))
	})

	It("hides misconfiguration details from callers", func() {
		broken := defaultGuild
		broken.TicketCategoryID = "deleted-category"
		build(broken)

		status, env := do(http.MethodPost, "/v1/tickets", createBody, token)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(env.Error.Code).To(Equal("CATEGORY_NOT_FOUND"))
		Expect(env.Error.Message).NotTo(ContainSubstring("deleted-category"))
		Expect(env.Error.Details).To(BeEmpty())
	})

	It("handles staff applications", func() {
		body := map[string]any{
			"applicant":    map[string]string{"id": "u-sam", "username": "sam"},
			"name":         "Sam",
			"age":          "22",
			"experience":   "Lots",
			"motivation":   "Helping",
			"availability": "Evenings",
		}
		status, env := do(http.MethodPost, "/v1/applications", body, token)
		Expect(status).To(Equal(http.StatusCreated))
		var created struct {
			ChannelID string `json:"channel_id"`
		}
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())

		status, _ = do(http.MethodPost, "/v1/applications", body, token)
		Expect(status).To(Equal(http.StatusConflict))

		decision := map[string]any{"decider": map[string]string{"id": "u-staff", "username": "mod"}, "reason": "Welcome"}
		status, env = do(http.MethodPost, "/v1/applications/"+created.ChannelID+"/accept", decision, token)
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(ContainSubstring(`"status":"ACCEPTED"`))

		status, env = do(http.MethodPost, "/v1/applications/"+created.ChannelID+"/reject", decision, token)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(env.Error.Code).To(Equal("CHANNEL_NOT_FOUND"))
	})

	It("rejects intents without an actor", func() {
		status, env := do(http.MethodPost, "/v1/tickets/whatever/claim", map[string]any{}, token)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
	})

	It("answers unknown routes with NOT_FOUND", func() {
		status, env := do(http.MethodGet, "/nope", nil, "")
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(env.Error.Code).To(Equal("NOT_FOUND"))
	})
})
