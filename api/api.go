package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mitrahub/mitra"
	"github.com/mitrahub/mitra/api/middleware"
	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/internal/apierror"
)

type Api struct {
	mitra  *mitra.Mitra
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	auth := router.Group("/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)

	admin := router.Group("/")
	admin.Use(middleware.NewAuthMiddleware(a.mitra).Authenticate())

	admin.POST("/auth/logout", a.Logout)
	admin.PUT("/auth/password", a.ChangePassword)
	admin.GET("/auth/session", a.CurrentSession)

	admin.GET("/dashboard/stats", a.GetDashboardStats)
	admin.GET("/dashboard/activity", a.GetRecentActivity)

	admin.GET("/partners", a.GetAllPartners)
	admin.GET("/partners/unverified", a.GetUnverifiedPartners)
	admin.GET("/partners/verified", a.GetVerifiedPartners)
	admin.GET("/partners/search", a.SearchPartners)
	admin.GET("/partners/:id", a.GetPartner)
	admin.PUT("/partners/:id/verify", a.VerifyPartner)
	admin.DELETE("/partners/:id", a.DeletePartner)
	admin.POST("/partners/:id/credit", a.ManualCredit)
	admin.GET("/partners/:id/credits", a.GetPartnerCredits)

	admin.GET("/topups", a.GetAllTopUps)
	admin.GET("/topups/pending", a.GetPendingTopUps)
	admin.GET("/topups/:id", a.GetTopUp)
	admin.PUT("/topups/:id/approve", a.ApproveTopUp)
	admin.PUT("/topups/:id/reject", a.RejectTopUp)

	admin.GET("/chats", a.GetChatMessages)
	admin.POST("/chats", a.SendChatMessage)

	admin.GET("/invoices", a.GetInvoices)

	return a.router
}

func NewAPI(m *mitra.Mitra) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.EnableTelemetry {
		r.Use(otelgin.Middleware(conf.Telemetry.ServiceName))
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{mitra: m, router: r}
}

// respondError writes err as {"error", "code"} with the status its kind maps to.
// Unclassified failures are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	message := apierror.Message(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message, "code": apierror.CodeOf(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apierror.ErrInvalidInput})
}

// actor is the username recorded against settlements made in this request.
func actor(c *gin.Context) string {
	if session, ok := middleware.CurrentSession(c); ok {
		return session.Username
	}
	return ""
}
