package qc

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type UserRepo interface {
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.User, error)
	// Ensure returns the user, creating a current user when missing.
	Ensure(dbc dbctx.Context, username string, now time.Time) (*types.User, error)
	SetCurrent(dbc dbctx.Context, username string, current bool, now time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	if username == "" {
		return nil, nil
	}
	var row types.User
	if err := dbc.DB(r.db).Where("username = ?", username).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id_user IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) Ensure(dbc dbctx.Context, username string, now time.Time) (*types.User, error) {
	row := &types.User{Username: username, IsCurrent: true, DateCreated: now, DateUpdated: now}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUsername(dbc, username)
}

func (r *userRepo) SetCurrent(dbc dbctx.Context, username string, current bool, now time.Time) error {
	return dbc.DB(r.db).
		Model(&types.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{"iscurrent": current, "date_updated": now}).Error
}
