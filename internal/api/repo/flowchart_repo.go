package repo

import (
	"blueprint"
	"blueprint/internal/api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FlowchartRepository struct {
	Db *gorm.DB
}

func NewFlowchartRepository() *FlowchartRepository {
	return &FlowchartRepository{Db: blueprint.DB}
}

func (slf *FlowchartRepository) FindByID(id uint) (models.Flowchart, error) {
	var flowchart models.Flowchart
	err := slf.Db.Preload("SharedWith").First(&flowchart, id).Error
	return flowchart, err
}

func (slf *FlowchartRepository) Create(flowchart *models.Flowchart) error {
	return slf.Db.Create(flowchart).Error
}

func (slf *FlowchartRepository) Delete(id uint) error {
	return slf.Db.Delete(&models.Flowchart{}, id).Error
}

// ListAccessible returns flowcharts the user owns, was granted access to,
// or that are public.
func (slf *FlowchartRepository) ListAccessible(userID uint) ([]models.Flowchart, error) {
	var flowcharts []models.Flowchart
	err := slf.Db.
		Distinct("flowchart.*").
		Joins("LEFT JOIN flowchart_user_access fua ON fua.flowchart_id = flowchart.id").
		Where("flowchart.creator_id = ? OR fua.user_id = ? OR flowchart.visibility = ?",
			userID, userID, models.FlowchartVisibilityPublic).
		Order("flowchart.updated_at DESC").
		Find(&flowcharts).Error
	return flowcharts, err
}

// UpdateMeta patches name, description and visibility without touching the
// document or its version.
func (slf *FlowchartRepository) UpdateMeta(id uint, patch map[string]any) error {
	return slf.Db.Model(&models.Flowchart{}).Where("id = ?", id).Updates(patch).Error
}

// CommitVersion writes a new document atomically, guarded by the version the
// caller mutated from. Returns false when someone else committed in between.
func (slf *FlowchartRepository) CommitVersion(id uint, baseVersion int, data models.FlowchartData) (bool, error) {
	result := slf.Db.Model(&models.Flowchart{}).
		Where("id = ? AND version = ?", id, baseVersion).
		Updates(map[string]any{
			"data":    data,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AccessRole resolves what the user may do with the flowchart. The creator is
// always owner; an explicit grant wins over public visibility.
func (slf *FlowchartRepository) AccessRole(flowchartID uint, userID uint) (models.OwningFlowchart, bool, error) {
	var flowchart models.Flowchart
	if err := slf.Db.Select("id", "creator_id", "visibility").First(&flowchart, flowchartID).Error; err != nil {
		return "", false, err
	}
	if flowchart.CreatorID == userID {
		return models.Owner, true, nil
	}

	var access models.FlowchartUserAccess
	err := slf.Db.Where("flowchart_id = ? AND user_id = ?", flowchartID, userID).First(&access).Error
	if err == nil {
		return access.Role, true, nil
	}
	if err != gorm.ErrRecordNotFound {
		return "", false, err
	}

	if flowchart.Visibility == models.FlowchartVisibilityPublic {
		return models.Viewer, true, nil
	}
	return "", false, nil
}

// Share grants or updates a user's role on a flowchart.
func (slf *FlowchartRepository) Share(flowchartID uint, userID uint, role models.OwningFlowchart) error {
	access := models.FlowchartUserAccess{
		FlowchartID: flowchartID,
		UserID:      userID,
		Role:        role,
	}
	return slf.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flowchart_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&access).Error
}

func (slf *FlowchartRepository) Unshare(flowchartID uint, userID uint) error {
	return slf.Db.
		Where("flowchart_id = ? AND user_id = ?", flowchartID, userID).
		Delete(&models.FlowchartUserAccess{}).Error
}
