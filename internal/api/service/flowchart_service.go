package service

import (
	"blueprint"
	"blueprint/internal/api/handler/mapper"
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
	"blueprint/internal/api/repo"
	"blueprint/internal/graph"
	"blueprint/pkg"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrFlowchartNotFound = errors.New("flowchart not found")
	ErrAccessDenied      = errors.New("access denied")
)

const flowchartCacheTTL = 10 * time.Minute

func flowchartCacheKey(id uint) string {
	return fmt.Sprintf("flowchart:%d", id)
}

type FlowchartService struct {
	flowchartRepo   *repo.FlowchartRepository
	userRepo        *repo.UserRepository
	config          blueprint.AppConfig
	logger          zerolog.Logger
	flowchartMapper mapper.FlowchartMapper
}

func NewFlowchartService() *FlowchartService {
	return &FlowchartService{
		flowchartRepo: repo.NewFlowchartRepository(),
		userRepo:      repo.NewUserRepository(),
		config:        blueprint.GetConfig(),
		logger:        blueprint.Logger,
	}
}

func (slf *FlowchartService) Create(userID uint, dto request.CreateFlowchartDTO) (response.FlowchartResponseDTO, error) {
	visibility := models.FlowchartVisibilityPrivate
	if dto.Visibility != "" {
		visibility = models.FlowchartVisibility(dto.Visibility)
	}

	flowchart := models.Flowchart{
		Name:        dto.Name,
		Description: dto.Description,
		CreatorID:   userID,
		Visibility:  visibility,
		Version:     1,
		Data:        models.FlowchartData{Document: *graph.NewDocument()},
	}

	if err := slf.flowchartRepo.Create(&flowchart); err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error creating flowchart")
		return response.FlowchartResponseDTO{}, err
	}

	slf.logger.Info().Uint("flowchartId", flowchart.ID).Uint("userId", userID).Msg("Flowchart created")
	return slf.flowchartMapper.EntityToResponse(flowchart), nil
}

func (slf *FlowchartService) GetByID(flowchartID uint, userID uint) (response.FlowchartResponseDTO, error) {
	if _, err := slf.requireRole(flowchartID, userID, models.Viewer); err != nil {
		return response.FlowchartResponseDTO{}, err
	}

	var cached response.FlowchartResponseDTO
	if err := pkg.RedisGet(flowchartCacheKey(flowchartID), &cached); err == nil {
		return cached, nil
	} else if !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Uint("flowchartId", flowchartID).Msg("Cache read failed")
	}

	flowchart, err := slf.flowchartRepo.FindByID(flowchartID)
	if err != nil {
		return response.FlowchartResponseDTO{}, slf.wrapNotFound(err, flowchartID)
	}

	dto := slf.flowchartMapper.EntityToResponse(flowchart)
	if err := pkg.RedisSet(flowchartCacheKey(flowchartID), dto, flowchartCacheTTL); err != nil {
		slf.logger.Warn().Err(err).Uint("flowchartId", flowchartID).Msg("Cache write failed")
	}
	return dto, nil
}

func (slf *FlowchartService) List(userID uint) ([]response.FlowchartSummaryDTO, error) {
	flowcharts, err := slf.flowchartRepo.ListAccessible(userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error listing flowcharts")
		return nil, err
	}
	return slf.flowchartMapper.EntitiesToSummaries(flowcharts), nil
}

func (slf *FlowchartService) UpdateMeta(flowchartID uint, userID uint, dto request.UpdateFlowchartDTO) (response.FlowchartResponseDTO, error) {
	if _, err := slf.requireRole(flowchartID, userID, models.Editor); err != nil {
		return response.FlowchartResponseDTO{}, err
	}

	patch := slf.flowchartMapper.DtoToUpdate(dto)
	if len(patch) > 0 {
		if err := slf.flowchartRepo.UpdateMeta(flowchartID, patch); err != nil {
			slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error updating flowchart")
			return response.FlowchartResponseDTO{}, err
		}
		slf.invalidateCache(flowchartID)
	}

	flowchart, err := slf.flowchartRepo.FindByID(flowchartID)
	if err != nil {
		return response.FlowchartResponseDTO{}, slf.wrapNotFound(err, flowchartID)
	}
	return slf.flowchartMapper.EntityToResponse(flowchart), nil
}

func (slf *FlowchartService) Delete(flowchartID uint, userID uint) error {
	if _, err := slf.requireRole(flowchartID, userID, models.Owner); err != nil {
		return err
	}
	if err := slf.flowchartRepo.Delete(flowchartID); err != nil {
		slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error deleting flowchart")
		return err
	}
	slf.invalidateCache(flowchartID)
	slf.logger.Info().Uint("flowchartId", flowchartID).Uint("userId", userID).Msg("Flowchart deleted")
	return nil
}

// Validate runs the full diagnostic pass on the committed document without
// changing anything.
func (slf *FlowchartService) Validate(flowchartID uint, userID uint) (response.ValidationResponseDTO, error) {
	if _, err := slf.requireRole(flowchartID, userID, models.Viewer); err != nil {
		return response.ValidationResponseDTO{}, err
	}

	flowchart, err := slf.flowchartRepo.FindByID(flowchartID)
	if err != nil {
		return response.ValidationResponseDTO{}, slf.wrapNotFound(err, flowchartID)
	}

	return response.ValidationResponseDTO{
		Version: flowchart.Version,
		Report:  graph.Validate(&flowchart.Data.Document),
	}, nil
}

// Mutate applies a batch of raw operations on top of baseVersion. The whole
// batch commits or none of it does; a concurrent commit surfaces as
// graph.ErrVersionConflict and the client must reload and retry.
func (slf *FlowchartService) Mutate(flowchartID uint, userID uint, baseVersion int, rawOps []json.RawMessage) (*response.MutationResponseDTO, error) {
	if _, err := slf.requireRole(flowchartID, userID, models.Editor); err != nil {
		return nil, err
	}

	flowchart, err := slf.flowchartRepo.FindByID(flowchartID)
	if err != nil {
		return nil, slf.wrapNotFound(err, flowchartID)
	}

	if flowchart.Version != baseVersion {
		return nil, fmt.Errorf("%w: document is at version %d, mutation based on %d",
			graph.ErrVersionConflict, flowchart.Version, baseVersion)
	}

	ops, err := graph.DecodePlan(rawOps)
	if err != nil {
		return nil, err
	}

	newDoc, applied, report, err := graph.Apply(&flowchart.Data.Document, ops)
	if err != nil {
		return nil, err
	}

	committed, err := slf.flowchartRepo.CommitVersion(flowchartID, baseVersion, models.FlowchartData{Document: *newDoc})
	if err != nil {
		slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error committing mutation")
		return nil, err
	}
	if !committed {
		return nil, fmt.Errorf("%w: document changed while the mutation was being applied", graph.ErrVersionConflict)
	}

	flowchart.Version = baseVersion + 1
	flowchart.Data = models.FlowchartData{Document: *newDoc}
	slf.invalidateCache(flowchartID)
	slf.publishUpdated(flowchart, userID, applied)

	slf.logger.Info().
		Uint("flowchartId", flowchartID).
		Uint("userId", userID).
		Int("version", flowchart.Version).
		Int("appliedOps", len(applied)).
		Msg("Mutation committed")

	return &response.MutationResponseDTO{
		Flowchart: slf.flowchartMapper.EntityToResponse(flowchart),
		Applied:   applied,
		Report:    report,
	}, nil
}

func (slf *FlowchartService) Share(flowchartID uint, userID uint, dto request.ShareFlowchartDTO) error {
	if _, err := slf.requireRole(flowchartID, userID, models.Owner); err != nil {
		return err
	}

	target, err := slf.userRepo.FindByEmail(dto.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("no user with this email")
		}
		return err
	}
	if target.ID == userID {
		return errors.New("cannot share a flowchart with its owner")
	}

	if err := slf.flowchartRepo.Share(flowchartID, target.ID, models.OwningFlowchart(dto.Role)); err != nil {
		slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error sharing flowchart")
		return err
	}

	flowchart, err := slf.flowchartRepo.FindByID(flowchartID)
	if err == nil {
		slf.notifyShared(flowchart, target)
	}

	slf.logger.Info().
		Uint("flowchartId", flowchartID).
		Uint("targetUserId", target.ID).
		Str("role", dto.Role).
		Msg("Flowchart shared")
	return nil
}

func (slf *FlowchartService) Unshare(flowchartID uint, userID uint, targetUserID uint) error {
	if _, err := slf.requireRole(flowchartID, userID, models.Owner); err != nil {
		return err
	}
	return slf.flowchartRepo.Unshare(flowchartID, targetUserID)
}

// notifyShared is best-effort: a failed email never fails the share.
func (slf *FlowchartService) notifyShared(flowchart models.Flowchart, target models.User) {
	go func() {
		err := pkg.SendEmail(pkg.EmailMessage{
			To:      []string{target.Email},
			Subject: fmt.Sprintf("Un flowchart a été partagé avec vous : %s", flowchart.Name),
			Body: fmt.Sprintf("Bonjour %s,\n\nLe flowchart \"%s\" vient d'être partagé avec vous.\n",
				target.Prenom, flowchart.Name),
		})
		if err != nil {
			slf.logger.Warn().Err(err).Uint("flowchartId", flowchart.ID).Msg("Share notification email failed")
		}
	}()
}

type flowchartUpdatedEvent struct {
	FlowchartID uint       `json:"flowchartId"`
	Version     int        `json:"version"`
	UpdatedBy   uint       `json:"updatedBy"`
	Applied     []graph.Op `json:"applied"`
}

// publishUpdated pushes the committed batch on the broker so the realtime
// service can fan it out to open editors.
func (slf *FlowchartService) publishUpdated(flowchart models.Flowchart, userID uint, applied []graph.Op) {
	if blueprint.Nats == nil {
		return
	}

	event := flowchartUpdatedEvent{
		FlowchartID: flowchart.ID,
		Version:     flowchart.Version,
		UpdatedBy:   userID,
		Applied:     applied,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error marshaling update event")
		return
	}

	subject := fmt.Sprintf("tenant.%s.flowchart.%d.updated", slf.config.TenantID, flowchart.ID)
	if err := blueprint.Nats.Publish(subject, payload); err != nil {
		slf.logger.Warn().Err(err).Str("subject", subject).Msg("Error publishing update event")
	}
}

func (slf *FlowchartService) invalidateCache(flowchartID uint) {
	if err := pkg.RedisDelete(flowchartCacheKey(flowchartID)); err != nil {
		slf.logger.Warn().Err(err).Uint("flowchartId", flowchartID).Msg("Cache invalidation failed")
	}
}

// requireRole checks the caller holds at least the given role on the
// flowchart. Owner > Editor > Viewer.
func (slf *FlowchartService) requireRole(flowchartID uint, userID uint, minimum models.OwningFlowchart) (models.OwningFlowchart, error) {
	role, ok, err := slf.flowchartRepo.AccessRole(flowchartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrFlowchartNotFound
		}
		return "", err
	}
	if !ok || roleRank(role) < roleRank(minimum) {
		return "", ErrAccessDenied
	}
	return role, nil
}

func roleRank(role models.OwningFlowchart) int {
	switch role {
	case models.Owner:
		return 3
	case models.Editor:
		return 2
	case models.Viewer:
		return 1
	default:
		return 0
	}
}

func (slf *FlowchartService) wrapNotFound(err error, flowchartID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFlowchartNotFound
	}
	slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error loading flowchart")
	return err
}
