package mapper

import (
	"encoding/json"

	"shopnest-be/internal/dto"
	"shopnest-be/internal/entity"
	"shopnest-be/internal/model"

	"gorm.io/datatypes"
)

// ResolutionToModel flattens the aggregate into the persisted row shape.
func ResolutionToModel(e *entity.ResolutionRequest) (*model.ResolutionRequest, error) {
	items, err := json.Marshal(e.OriginalItems)
	if err != nil {
		return nil, err
	}
	evidence, err := json.Marshal(e.Evidence)
	if err != nil {
		return nil, err
	}

	m := &model.ResolutionRequest{
		Id:            e.Id,
		OrderId:       e.OrderId,
		CustomerId:    e.CustomerId,
		Type:          string(e.Type),
		Status:        string(e.Status),
		RequestDate:   e.RequestDate,
		AdminComment:  e.AdminComment,
		OriginalItems: datatypes.JSON(items),
		Evidence:      datatypes.JSON(evidence),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}

	if len(e.ReplacementItems) > 0 {
		repl, err := json.Marshal(e.ReplacementItems)
		if err != nil {
			return nil, err
		}
		m.ReplacementItems = datatypes.JSON(repl)
	}

	if e.Pickup != nil {
		m.PickupPartner = e.Pickup.Partner
		m.PickupAwb = e.Pickup.Awb
		m.PickupScheduledDate = e.Pickup.ScheduledDate
		m.PickupStatus = e.Pickup.Status
		m.PickupEventAt = e.Pickup.EventAt
	}
	if e.Shipment != nil {
		m.ShipmentPartner = e.Shipment.Partner
		m.ShipmentAwb = e.Shipment.Awb
		m.ShipmentStatus = e.Shipment.Status
		m.ShipmentEventAt = e.Shipment.EventAt
	}
	if e.Refund != nil {
		m.RefundMethod = string(e.Refund.Method)
		m.RefundAmount = e.Refund.Amount
		m.RefundTransactionId = e.Refund.TransactionId
		m.RefundCompletedAt = e.Refund.CompletedAt
	}

	return m, nil
}

// ResolutionToEntity rebuilds the aggregate from its row.
func ResolutionToEntity(m *model.ResolutionRequest) (*entity.ResolutionRequest, error) {
	e := &entity.ResolutionRequest{
		Id:           m.Id,
		OrderId:      m.OrderId,
		CustomerId:   m.CustomerId,
		Type:         entity.RequestType(m.Type),
		Status:       entity.Status(m.Status),
		RequestDate:  m.RequestDate,
		AdminComment: m.AdminComment,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}

	if len(m.OriginalItems) > 0 {
		if err := json.Unmarshal(m.OriginalItems, &e.OriginalItems); err != nil {
			return nil, err
		}
	}
	if len(m.ReplacementItems) > 0 {
		if err := json.Unmarshal(m.ReplacementItems, &e.ReplacementItems); err != nil {
			return nil, err
		}
	}
	if len(m.Evidence) > 0 {
		if err := json.Unmarshal(m.Evidence, &e.Evidence); err != nil {
			return nil, err
		}
	}

	if m.PickupAwb != "" || m.PickupPartner != "" || m.PickupStatus != "" {
		e.Pickup = &entity.Pickup{
			Partner:       m.PickupPartner,
			Awb:           m.PickupAwb,
			ScheduledDate: m.PickupScheduledDate,
			Status:        m.PickupStatus,
			EventAt:       m.PickupEventAt,
		}
	}
	if m.ShipmentAwb != "" || m.ShipmentPartner != "" || m.ShipmentStatus != "" {
		e.Shipment = &entity.Shipment{
			Partner: m.ShipmentPartner,
			Awb:     m.ShipmentAwb,
			Status:  m.ShipmentStatus,
			EventAt: m.ShipmentEventAt,
		}
	}
	if m.RefundMethod != "" {
		e.Refund = &entity.RefundInfo{
			Method:        entity.RefundMethod(m.RefundMethod),
			Amount:        m.RefundAmount,
			TransactionId: m.RefundTransactionId,
			CompletedAt:   m.RefundCompletedAt,
		}
	}

	return e, nil
}

func TimelineToEntity(m *model.TimelineEntry) entity.TimelineEntry {
	return entity.TimelineEntry{
		Id:        m.Id,
		RequestId: m.RequestId,
		Seq:       m.Seq,
		Stage:     m.Stage,
		Done:      m.Done,
		CreatedAt: m.CreatedAt,
	}
}

func AuditToEntity(m *model.AuditLog) entity.AuditEntry {
	return entity.AuditEntry{
		Id:        m.Id,
		RequestId: m.RequestId,
		Action:    m.Action,
		Actor:     m.Actor,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}

func AuditToModel(e *entity.AuditEntry) *model.AuditLog {
	return &model.AuditLog{
		Id:        e.Id,
		RequestId: e.RequestId,
		Action:    e.Action,
		Actor:     e.Actor,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}

func StockLevelToEntity(m *model.StockLevel) *entity.StockLevel {
	return &entity.StockLevel{
		Sku:        m.Sku,
		Name:       m.Name,
		Available:  m.Available,
		WrittenOff: m.WrittenOff,
		UpdatedAt:  m.UpdatedAt,
	}
}

func StockAdjustmentToModel(e *entity.StockAdjustment) *model.StockAdjustment {
	return &model.StockAdjustment{
		Id:        e.Id,
		RequestId: e.RequestId,
		Sku:       e.Sku,
		Qty:       e.Qty,
		Action:    string(e.Action),
		CreatedAt: e.CreatedAt,
	}
}

func StockAdjustmentToEntity(m *model.StockAdjustment) entity.StockAdjustment {
	return entity.StockAdjustment{
		Id:        m.Id,
		RequestId: m.RequestId,
		Sku:       m.Sku,
		Qty:       m.Qty,
		Action:    entity.StockAction(m.Action),
		CreatedAt: m.CreatedAt,
	}
}

// ResolutionToResponse builds the API view of a request.
func ResolutionToResponse(e *entity.ResolutionRequest) dto.ResolutionResponse {
	resp := dto.ResolutionResponse{
		Id:           e.Id,
		OrderId:      e.OrderId,
		CustomerId:   e.CustomerId,
		Type:         string(e.Type),
		Status:       string(e.Status),
		RequestDate:  e.RequestDate,
		AdminComment: e.AdminComment,
		Evidence: dto.EvidenceResponse{
			Comment: e.Evidence.Comment,
			Images:  e.Evidence.Images,
			Video:   e.Evidence.Video,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	for _, item := range e.OriginalItems {
		resp.Items = append(resp.Items, dto.ResolutionItemResponse{
			Sku:       item.Sku,
			Name:      item.Name,
			Qty:       item.Qty,
			PaidPrice: item.PaidPrice,
			Reason:    item.Reason,
			Condition: string(item.Condition),
		})
	}
	for _, item := range e.ReplacementItems {
		resp.ReplacementItems = append(resp.ReplacementItems, dto.ReplacementItemResponse{
			Sku:  item.Sku,
			Name: item.Name,
			Qty:  item.Qty,
		})
	}

	if e.Pickup != nil {
		resp.Pickup = &dto.PickupResponse{
			Partner:       e.Pickup.Partner,
			Awb:           e.Pickup.Awb,
			ScheduledDate: e.Pickup.ScheduledDate,
			Status:        e.Pickup.Status,
		}
	}
	if e.Shipment != nil {
		resp.Shipment = &dto.ShipmentResponse{
			Partner: e.Shipment.Partner,
			Awb:     e.Shipment.Awb,
			Status:  e.Shipment.Status,
		}
	}
	if e.Refund != nil {
		resp.Refund = &dto.RefundResponse{
			Method:        string(e.Refund.Method),
			Amount:        e.Refund.Amount,
			TransactionId: e.Refund.TransactionId,
			CompletedAt:   e.Refund.CompletedAt,
		}
	}

	for _, t := range e.Timeline {
		resp.Timeline = append(resp.Timeline, dto.TimelineEntryResponse{
			Seq:       t.Seq,
			Stage:     t.Stage,
			Done:      t.Done,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, a := range e.AuditLog {
		resp.AuditLog = append(resp.AuditLog, dto.AuditEntryResponse{
			Action:    a.Action,
			Actor:     a.Actor,
			Comment:   a.Comment,
			CreatedAt: a.CreatedAt,
		})
	}

	return resp
}

// SubmitRequestToEntity converts a validated submission into a new aggregate.
func SubmitRequestToEntity(req *dto.SubmitResolutionRequest) *entity.ResolutionRequest {
	e := &entity.ResolutionRequest{
		OrderId: req.OrderId,
		Type:    entity.RequestType(req.Type),
		Status:  entity.StatusPending,
		Evidence: entity.Evidence{
			Comment: req.Evidence.Comment,
			Images:  req.Evidence.Images,
			Video:   req.Evidence.Video,
		},
	}
	for _, item := range req.Items {
		e.OriginalItems = append(e.OriginalItems, entity.ResolutionItem{
			Sku:       item.Sku,
			Name:      item.Name,
			Qty:       item.Qty,
			PaidPrice: item.PaidPrice,
			Reason:    item.Reason,
		})
	}
	for _, item := range req.ReplacementItems {
		e.ReplacementItems = append(e.ReplacementItems, entity.ReplacementItem{
			Sku:  item.Sku,
			Name: item.Name,
			Qty:  item.Qty,
		})
	}
	if req.Type == string(entity.RequestTypeReturn) {
		method := entity.RefundMethodOriginal
		if req.RefundMethod != "" {
			method = entity.RefundMethod(req.RefundMethod)
		}
		e.Refund = &entity.RefundInfo{Method: method}
	}
	return e
}
