// internal/handlers/product_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/franchisehub/supply-backend/internal/database"
	"github.com/franchisehub/supply-backend/internal/middleware"
	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type ProductHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *ProductHandlerTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_DSN not set, skipping database tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))
	s.db = db

	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")

	inventory := services.NewInventoryService(db)
	handler := NewProductHandler(services.NewProductService(db, inventory))

	s.router = gin.New()
	s.router.GET("/products", middleware.OptionalAuth(), handler.GetProducts)
}

func (s *ProductHandlerTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE product_variants, products CASCADE").Error)

	active := &models.Product{Name: "Napkins", SKU: "NAP-1", BasePrice: 1, IsActive: true}
	inactive := &models.Product{Name: "Retired Cups", SKU: "CUP-1", BasePrice: 1, IsActive: false}
	s.Require().NoError(s.db.Create(active).Error)
	s.Require().NoError(s.db.Create(inactive).Error)
}

func (s *ProductHandlerTestSuite) listProducts(token string) []map[string]interface{} {
	req, _ := http.NewRequest("GET", "/products", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var envelope struct {
		Success bool                     `json:"success"`
		Data    []map[string]interface{} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &envelope))
	s.Require().True(envelope.Success)
	return envelope.Data
}

func (s *ProductHandlerTestSuite) TestAnonymousSeesOnlyActiveProducts() {
	products := s.listProducts("")
	s.Require().Len(products, 1)
	s.Equal("NAP-1", products[0]["sku"])
}

func (s *ProductHandlerTestSuite) TestFranchiseeSeesOnlyActiveProducts() {
	token, err := utils.GenerateJWT(uuid.New(), "joes_pizza", string(models.UserRoleFranchisee), 1)
	s.Require().NoError(err)

	products := s.listProducts(token)
	s.Require().Len(products, 1)
	s.Equal("NAP-1", products[0]["sku"])
}

// Staff browsing the catalog with a bearer token must see deactivated
// products too; the role flows in through OptionalAuth on the public route.
func (s *ProductHandlerTestSuite) TestStaffSeesInactiveProducts() {
	token, err := utils.GenerateJWT(uuid.New(), "wh_user", string(models.UserRoleWarehouse), 1)
	s.Require().NoError(err)

	products := s.listProducts(token)
	s.Len(products, 2)
}

func TestProductHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ProductHandlerTestSuite))
}
