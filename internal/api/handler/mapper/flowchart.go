package mapper

import (
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
)

type FlowchartMapper struct{}

func (slf FlowchartMapper) DtoToUpdate(req request.UpdateFlowchartDTO) map[string]any {
	patch := make(map[string]any)
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.Visibility != nil {
		patch["visibility"] = models.FlowchartVisibility(*req.Visibility)
	}
	return patch
}

func (slf FlowchartMapper) EntityToSummary(flowchart models.Flowchart) response.FlowchartSummaryDTO {
	return response.FlowchartSummaryDTO{
		ID:          flowchart.ID,
		Name:        flowchart.Name,
		Description: flowchart.Description,
		Visibility:  string(flowchart.Visibility),
		Version:     flowchart.Version,
		CreatorID:   flowchart.CreatorID,
		UpdatedAt:   flowchart.UpdatedAt,
	}
}

func (slf FlowchartMapper) EntityToResponse(flowchart models.Flowchart) response.FlowchartResponseDTO {
	return response.FlowchartResponseDTO{
		FlowchartSummaryDTO: slf.EntityToSummary(flowchart),
		Data:                flowchart.Data.Document,
	}
}

func (slf FlowchartMapper) EntitiesToSummaries(flowcharts []models.Flowchart) []response.FlowchartSummaryDTO {
	out := make([]response.FlowchartSummaryDTO, 0, len(flowcharts))
	for _, flowchart := range flowcharts {
		out = append(out, slf.EntityToSummary(flowchart))
	}
	return out
}
