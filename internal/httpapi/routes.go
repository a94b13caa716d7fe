package httpapi

import "github.com/gin-gonic/gin"

// Register mounts the REST routes on the given group. Operator routes
// use basic auth, integration routes use the provisioned API key.
func (a *API) Register(r *gin.RouterGroup, username, password string) {
	r.GET("/health", a.Health)
	r.GET("/qr", a.QR)

	basic := r.Group("", RequireBasicAuth(username, password))
	{
		basic.GET("/config", a.Config)
		basic.GET("/webhook", a.GetWebhook)
		basic.POST("/webhook", a.SetWebhook)
		basic.DELETE("/webhook", a.DeleteWebhook)
	}

	keyed := r.Group("", RequireAPIKey(a.db, a.logger))
	{
		keyed.GET("/status", a.Status)
		keyed.POST("/logout", a.Logout)
		keyed.GET("/inbox", a.Inbox)
		keyed.POST("/messages/:id/reply", a.Reply)
		keyed.PATCH("/messages/:id/status", a.SetStatus)
	}
}
