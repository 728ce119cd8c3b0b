package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/handlers"
	authmw "github.com/Skotchmaster/bazaar/internal/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	JWTSecret       []byte
	AuthHandler     *handlers.AuthHandler
	SellerHandler   *handlers.SellerHandler
	ProductHandler  *handlers.ProductHandler
	CategoryHandler *handlers.CategoryHandler
	BasketHandler   *handlers.BasketHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/password-reset", d.AuthHandler.PasswordReset)
	v1.POST("/password-reset-confirm", d.AuthHandler.PasswordResetConfirm)

	priv := v1.Group("", authmw.JWT(d.JWTSecret))
	priv.POST("/logout", d.AuthHandler.LogOut)
	priv.POST("/register/seller", d.SellerHandler.Register)

	v1.GET("/products", d.ProductHandler.List)
	v1.GET("/products/search", d.ProductHandler.Search)
	v1.GET("/products/categories", d.CategoryHandler.List)
	v1.GET("/products/categories/:slug", d.CategoryHandler.Get)
	v1.GET("/products/sellers", d.SellerHandler.List)
	v1.GET("/products/sellers/:id", d.SellerHandler.Get)
	v1.GET("/products/:slug", d.ProductHandler.Get)

	priv.POST("/products", d.ProductHandler.Create)
	priv.PUT("/products/:slug", d.ProductHandler.Update)
	priv.DELETE("/products/:slug", d.ProductHandler.Delete)
	priv.POST("/products/categories", d.CategoryHandler.Create)
	priv.PUT("/products/categories/:slug", d.CategoryHandler.Update)
	priv.DELETE("/products/categories/:slug", d.CategoryHandler.Delete)
	priv.PATCH("/products/sellers/:id/verify", d.SellerHandler.Verify)

	basket := v1.Group("/basket", authmw.JWT(d.JWTSecret))
	basket.GET("", d.BasketHandler.Get)
	basket.GET("/items", d.BasketHandler.ListItems)
	basket.POST("/items", d.BasketHandler.AddItem)
	basket.PUT("/items/:id", d.BasketHandler.UpdateItem)
	basket.DELETE("/items/:id", d.BasketHandler.RemoveItem)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Handler)
	}
}
