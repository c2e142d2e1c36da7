package handlers

import (
	"time"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

type AllowanceRequest struct {
	Label             string `json:"label" validate:"required"`
	ServiceType       string `json:"service_type" validate:"required,oneof=PRIVATE GROUP COURSE"`
	TeacherTierFloor  int    `json:"teacher_tier_floor" validate:"gte=0"`
	Credits           int    `json:"credits" validate:"required,gt=0"`
	CreditUnitMinutes int    `json:"credit_unit_minutes" validate:"required,oneof=15 30 45 60"`
}

type ProductRequest struct {
	Name         string             `json:"name" validate:"required"`
	Description  *string            `json:"description,omitempty"`
	Price        float64            `json:"price" validate:"required,gt=0"`
	Currency     string             `json:"currency,omitempty"`
	ValidityDays *int               `json:"validity_days,omitempty"`
	Allowances   []AllowanceRequest `json:"allowances" validate:"required,min=1,dive"`
}

func CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	seen := map[string]bool{}
	for _, a := range req.Allowances {
		if seen[a.ServiceType] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A product can carry at most one allowance per service type"})
		}
		seen[a.ServiceType] = true
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	product := models.PackageProduct{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     currency,
		ValidityDays: req.ValidityDays,
	}
	for _, a := range req.Allowances {
		product.Allowances = append(product.Allowances, models.PackageAllowance{
			Label:             a.Label,
			ServiceType:       models.ServiceType(a.ServiceType),
			TeacherTierFloor:  a.TeacherTierFloor,
			Credits:           a.Credits,
			CreditUnitMinutes: a.CreditUnitMinutes,
		})
	}

	if err := database.DB.Create(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create product"})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func ToggleProductStatus(c *fiber.Ctx) error {
	productID := c.Params("productId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	result := database.DB.Model(&models.PackageProduct{}).
		Where("id = ? AND deleted_at IS NULL", productID).
		Update("is_active", req.IsActive)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update product status"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	return c.JSON(fiber.Map{"message": "Product status updated successfully."})
}

func ListActiveProducts(c *fiber.Ctx) error {
	var products []models.PackageProduct
	database.DB.Preload("Allowances", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("is_active = ? AND deleted_at IS NULL", true).Find(&products)
	return c.JSON(products)
}

func AdminListProducts(c *fiber.Ctx) error {
	// Admin view keeps tombstoned and deactivated products visible; the
	// tombstone is a plain nullable column, so not filtering on deleted_at
	// is all it takes.
	var products []models.PackageProduct
	database.DB.Preload("Allowances").Find(&products)
	return c.JSON(products)
}

type PurchasePackageRequest struct {
	SourcePaymentID *string `json:"source_payment_id,omitempty"`
}

// PurchasePackage mints a StudentPackage from an active product. Payment
// itself is settled upstream; this endpoint records the resulting bundle and
// its expiry window.
func PurchasePackage(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID format"})
	}

	var req PurchasePackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var product models.PackageProduct
	if err := database.DB.First(&product, "id = ? AND is_active = ? AND deleted_at IS NULL", productID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Active product not found"})
	}

	now := time.Now()
	pkg := models.StudentPackage{
		StudentID:       studentID,
		ProductID:       product.ID,
		PackageName:     product.Name,
		PurchasedAt:     now,
		SourcePaymentID: req.SourcePaymentID,
	}
	if product.ValidityDays != nil {
		expiresAt := now.AddDate(0, 0, *product.ValidityDays)
		pkg.ExpiresAt = &expiresAt
	}

	if err := database.DB.Create(&pkg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create package"})
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

type AllowanceBalanceResponse struct {
	Allowance models.PackageAllowance `json:"allowance"`
	Remaining int                     `json:"remaining"`
}

type PackageBalanceResponse struct {
	Package    models.StudentPackage      `json:"package"`
	Allowances []AllowanceBalanceResponse `json:"allowances"`
	Balance    int                        `json:"balance"`
}

// GetMyPackages lists the student's spendable packages with their derived
// balances. Exhausted and expired packages are filtered out here; the admin
// listing below keeps them.
func GetMyPackages(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	pkgs, err := loadPackagesWithUses(database.DB.Where("student_id = ? AND deleted_at IS NULL", studentID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load packages"})
	}

	available := services.FilterAvailablePackages(pkgs, time.Now())
	return c.JSON(balancesResponse(available))
}

// AdminListStudentPackages is the historical view: exhausted, expired and
// tombstoned packages included, since deleted_at is never filtered here.
func AdminListStudentPackages(c *fiber.Ctx) error {
	query := database.DB
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	pkgs, err := loadPackagesWithUses(query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load packages"})
	}
	return c.JSON(balancesResponse(pkgs))
}

func loadPackagesWithUses(query *gorm.DB) ([]models.StudentPackage, error) {
	var pkgs []models.StudentPackage
	err := query.
		Preload("Product.Allowances", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Uses").
		Order("purchased_at DESC").
		Find(&pkgs).Error
	return pkgs, err
}

func balancesResponse(pkgs []models.StudentPackage) []PackageBalanceResponse {
	out := make([]PackageBalanceResponse, 0, len(pkgs))
	for _, pkg := range pkgs {
		resp := PackageBalanceResponse{Package: pkg, Balance: services.PackageBalance(pkg)}
		for _, a := range pkg.Product.Allowances {
			resp.Allowances = append(resp.Allowances, AllowanceBalanceResponse{
				Allowance: a,
				Remaining: services.RemainingCreditsByServiceType(a, pkg.Uses),
			})
		}
		out = append(out, resp)
	}
	return out
}
