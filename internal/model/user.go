package model

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Model
	Username             string     `json:"username" gorm:"column:username;type:varchar(30);uniqueIndex;not null"`
	Email                string     `json:"email" gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Password             string     `json:"-" gorm:"column:password;type:varchar(255);not null"`
	FullName             string     `json:"fullName" gorm:"column:full_name;type:varchar(100)"`
	Phone                string     `json:"phone" gorm:"column:phone;type:varchar(20)"`
	Address              string     `json:"address" gorm:"column:address;type:varchar(255)"`
	Role                 string     `json:"role" gorm:"column:role;type:varchar(20);not null"`
	IsActive             bool       `json:"isActive" gorm:"column:is_active;not null;index"`
	ResetPasswordToken   *string    `json:"-" gorm:"column:reset_password_token;type:varchar(64);index"`
	ResetPasswordExpires *time.Time `json:"-" gorm:"column:reset_password_expires"`
}

func NewUser(config *cfg.Config, logger log.Logger, db *db.Mysql) (*User, error) {
	user := &User{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return user, nil
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) Create(ctx context.Context, newUser *User) error {
	db, err := u.conn(ctx)
	if err != nil {
		u.Logger.Error(ctx, "Failed to get database connection: %v", err)
		return err
	}

	newUser.Username = TruncateString(newUser.Username, 30)
	newUser.FullName = TruncateString(newUser.FullName, 100)
	if newUser.Role == "" {
		newUser.Role = RoleUser
	}

	if err := db.Create(newUser).Error; err != nil {
		u.Logger.Error(ctx, "Failed to create user: %v", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.Logger.Info(ctx, "Successfully created user with ID=%d", newUser.ID)
	return nil
}

func (u *User) Save(ctx context.Context, user *User) error {
	db, err := u.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.ID, err)
	}
	return nil
}

func (u *User) FindByID(ctx context.Context, id uint) (*User, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindActiveByLogin tìm user đang hoạt động theo email hoặc username
func (u *User) FindActiveByLogin(ctx context.Context, login string) (*User, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	err = db.Where("(email = ? OR username = ?) AND is_active = ?", login, login, true).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *User) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *User) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Model(&User{}).Where("email = ? OR username = ?", email, username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
	return count > 0, nil
}

// FindByResetToken trả về user có token đặt lại mật khẩu còn hiệu lực tại thời điểm now
func (u *User) FindByResetToken(ctx context.Context, token string, now time.Time) (*User, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	err = db.Where("reset_password_token = ? AND reset_password_expires > ?", token, now).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *User) List(ctx context.Context, offset, limit int) ([]User, int64, error) {
	db, err := u.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := db.Model(&User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []User
	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
