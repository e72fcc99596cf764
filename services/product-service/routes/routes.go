package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/middleware"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/controllers"
)

// RegisterRoutes mounts the product API. Reads are public; every mutation
// requires an admin token.
func RegisterRoutes(r *gin.Engine, pc *controllers.ProductController, bh *controllers.BulkImportHandler, validator *auth.TokenValidator, trustGateway bool) {
	productRoutes := r.Group("/api/v1/products")
	{
		productRoutes.GET("", pc.GetProducts)
		productRoutes.GET("/all", pc.GetAllProducts)
		productRoutes.GET("/categories", pc.GetCategories)
		productRoutes.GET("/:id", pc.GetProduct)
	}

	admin := productRoutes.Group("")
	admin.Use(middleware.AuthMiddleware(validator, trustGateway), middleware.RequireRole("admin"))
	{
		admin.POST("", pc.CreateProduct)
		admin.PUT("/:id", pc.UpdateProduct)
		admin.DELETE("/:id", pc.DeleteProduct)
		admin.PATCH("/:id/stock", pc.AddStock)
		admin.POST("/bulk", bh.CreateBulkProducts)
		admin.POST("/bulk/validate", bh.ValidateBulkImport)
	}
}
