// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"citypass/internal/http/handlers"
	"citypass/internal/http/middleware"
	"citypass/internal/infra"
	"citypass/internal/modules/card"
	"citypass/internal/modules/routes"
	"citypass/internal/modules/tap"
)

type RouterDeps struct {
	Tap      *tap.Service
	Cards    *card.Service
	Routes   *routes.Service
	Verifier infra.TokenVerifier
	Log      *logrus.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.Verifier))

	tapHandler := handlers.NewTapHandler(deps.Tap)
	api.POST("/taps", tapHandler.Tap)
	api.GET("/taps/history", tapHandler.History)
	api.GET("/taps/:id", tapHandler.Get)

	cardHandler := handlers.NewCardHandler(deps.Cards)
	api.POST("/cards", cardHandler.Register)
	api.GET("/cards", cardHandler.ListByUser)
	api.GET("/cards/:id", cardHandler.Get)
	api.POST("/cards/:id/topup", cardHandler.TopUp)

	routeHandler := handlers.NewRouteHandler(deps.Routes)
	api.GET("/routes", routeHandler.Search)
	api.GET("/stations", routeHandler.Stations)

	return r
}
