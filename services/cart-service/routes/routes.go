package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/controllers"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/middleware"
)

// RegisterCartRoutes mounts the cart API; every route needs an authenticated user.
func RegisterCartRoutes(r *gin.Engine, controller *controllers.CartController, validator *auth.TokenValidator, trustGateway bool) {
	api := r.Group("/api/v1/cart")
	api.Use(middleware.AuthMiddleware(validator, trustGateway))
	{
		api.GET("", controller.GetCart)
		api.POST("/add/:productId", controller.AddItem)
		api.DELETE("/remove/:productId", controller.RemoveItem)
		api.DELETE("/clear", controller.ClearCart)
		api.POST("/checkout", controller.Checkout)
	}
}
