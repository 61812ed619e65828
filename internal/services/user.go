package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// UserService covers admin user management. Role and activation changes bump
// the token version so tokens minted under the old privileges die.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

type UserListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Role     string `form:"role"`
	Search   string `form:"search"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

// SetRole changes a user's role and invalidates their outstanding tokens.
func (s *UserService) SetRole(userID uint, role string, adminID uint) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(user).Updates(map[string]interface{}{
		"role":          role,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return nil, err
	}

	logger.Security().
		Uint("user_id", userID).
		Uint("admin_id", adminID).
		Str("role", role).
		Msg("user role changed, tokens invalidated")
	return user, nil
}

// SetActive enables or disables an account. Disabling also invalidates
// outstanding tokens; a disabled account must not keep a live session.
func (s *UserService) SetActive(userID uint, active bool, adminID uint) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_active": active}
	if !active {
		updates["token_version"] = gorm.Expr("token_version + ?", 1)
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}

	logger.Security().
		Uint("user_id", userID).
		Uint("admin_id", adminID).
		Bool("active", active).
		Msg("user activation changed")
	return user, nil
}

// UpdateProfile lets a user change their own display name.
func (s *UserService) UpdateProfile(userID uint, name string) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("name", name).Error; err != nil {
		return nil, err
	}
	user.Name = name
	return user, nil
}
