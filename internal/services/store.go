package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrSlugTaken      = errors.New("store slug already in use")
	ErrNotStoreOwner  = errors.New("not the store owner")
	ErrInvalidHours   = errors.New("invalid opening hours")
	ErrStoreNotLive   = errors.New("store is not approved")
	ErrUnknownStatus  = errors.New("unknown store status")
	slugAllowedChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashCollapser = regexp.MustCompile(`-{2,}`)
)

type StoreService struct {
	db       *gorm.DB
	holidays *HolidayService
}

func NewStoreService(db *gorm.DB, holidays *HolidayService) *StoreService {
	return &StoreService{db: db, holidays: holidays}
}

type StoreInput struct {
	Name             string `json:"name" binding:"required,max=200"`
	Description      string `json:"description" binding:"max=5000"`
	Address          string `json:"address" binding:"max=300"`
	City             string `json:"city" binding:"max=100"`
	Phone            string `json:"phone" binding:"max=40"`
	Cuisine          string `json:"cuisine" binding:"max=60"`
	Capacity         int    `json:"capacity" binding:"min=1,max=1000"`
	OpeningHour      int    `json:"opening_hour" binding:"min=0,max=23"`
	ClosingHour      int    `json:"closing_hour" binding:"min=1,max=24"`
	ClosedOnHolidays bool   `json:"closed_on_holidays"`
	HolidayRegion    string `json:"holiday_region"`
}

// Slugify turns a store name into a URL slug. Collisions get a numeric suffix.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugAllowedChars.ReplaceAllString(slug, "")
	slug = slugDashCollapser.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "store"
	}
	return slug
}

// Create registers a new store for the owner. New stores start pending and
// stay invisible to diners until an admin approves them.
func (s *StoreService) Create(ownerID uint, input *StoreInput) (*models.Store, error) {
	if input.ClosingHour <= input.OpeningHour {
		return nil, ErrInvalidHours
	}
	region := input.HolidayRegion
	if region == "" {
		region = "US"
	}

	slug := Slugify(input.Name)
	base := slug
	for i := 2; ; i++ {
		var count int64
		if err := s.db.Model(&models.Store{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	store := models.Store{
		Slug:             slug,
		Name:             input.Name,
		Description:      input.Description,
		Address:          input.Address,
		City:             input.City,
		Phone:            input.Phone,
		Cuisine:          input.Cuisine,
		Capacity:         input.Capacity,
		OpeningHour:      input.OpeningHour,
		ClosingHour:      input.ClosingHour,
		ClosedOnHolidays: input.ClosedOnHolidays,
		HolidayRegion:    region,
		Status:           models.StorePending,
		OwnerID:          ownerID,
	}
	if err := s.db.Create(&store).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("store_id", store.ID).Uint("owner_id", ownerID).Msg("store submitted for approval")
	return &store, nil
}

// Update edits a store. Only the owner may edit, and edits to an approved
// store do not reset its approval.
func (s *StoreService) Update(storeID, ownerID uint, input *StoreInput) (*models.Store, error) {
	store, err := s.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != ownerID {
		return nil, ErrNotStoreOwner
	}
	if input.ClosingHour <= input.OpeningHour {
		return nil, ErrInvalidHours
	}

	updates := map[string]interface{}{
		"name":               input.Name,
		"description":        input.Description,
		"address":            input.Address,
		"city":               input.City,
		"phone":              input.Phone,
		"cuisine":            input.Cuisine,
		"capacity":           input.Capacity,
		"opening_hour":       input.OpeningHour,
		"closing_hour":       input.ClosingHour,
		"closed_on_holidays": input.ClosedOnHolidays,
	}
	if input.HolidayRegion != "" {
		updates["holiday_region"] = input.HolidayRegion
	}
	if err := s.db.Model(store).Updates(updates).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (s *StoreService) GetByID(id uint) (*models.Store, error) {
	var store models.Store
	if err := s.db.First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoreService) GetBySlug(slug string) (*models.Store, error) {
	var store models.Store
	if err := s.db.Where("slug = ?", slug).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &store, nil
}

type StoreListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	City     string `form:"city"`
	Cuisine  string `form:"cuisine"`
	Search   string `form:"search"`
	Status   string `form:"status"` // admin listings only
}

type StoreListResponse struct {
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Items    []models.Store `json:"items"`
}

// ListPublic returns approved stores only, filtered and paginated.
func (s *StoreService) ListPublic(req *StoreListRequest) (*StoreListResponse, error) {
	return s.list(req, models.StoreApproved)
}

// ListAll returns stores in any status, for the admin approval queue.
func (s *StoreService) ListAll(req *StoreListRequest) (*StoreListResponse, error) {
	return s.list(req, req.Status)
}

func (s *StoreService) list(req *StoreListRequest, status string) (*StoreListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Store{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if req.City != "" {
		query = query.Where("city = ?", req.City)
	}
	if req.Cuisine != "" {
		query = query.Where("cuisine = ?", req.Cuisine)
	}
	if req.Search != "" {
		query = query.Where("name LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var stores []models.Store
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}

	return &StoreListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    stores,
	}, nil
}

// ListByOwner returns every store the owner has registered, any status.
func (s *StoreService) ListByOwner(ownerID uint) ([]models.Store, error) {
	var stores []models.Store
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// SetStatus moves a store through the approval workflow. Admin only; the
// route is additionally gated on recent reauthentication.
func (s *StoreService) SetStatus(storeID uint, status string, adminID uint) (*models.Store, error) {
	switch status {
	case models.StorePending, models.StoreApproved, models.StoreRejected:
	default:
		return nil, ErrUnknownStatus
	}

	store, err := s.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(store).Update("status", status).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("store_id", storeID).
		Uint("admin_id", adminID).
		Str("status", status).
		Msg("store status changed")
	LogInfo("store", "set_status", fmt.Sprintf("store %d set to %s", storeID, status), &adminID, "", "", nil)
	return store, nil
}

// Delete removes a store and is restricted to its owner or an admin.
func (s *StoreService) Delete(storeID, actorID uint, isAdmin bool) error {
	store, err := s.GetByID(storeID)
	if err != nil {
		return err
	}
	if !isAdmin && store.OwnerID != actorID {
		return ErrNotStoreOwner
	}
	return s.db.Delete(store).Error
}
