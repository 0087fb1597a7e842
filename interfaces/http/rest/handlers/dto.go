package handlers

import (
	"infinicraft-backend/application/services"
	"infinicraft-backend/domain/core/entities"
)

// ElementResponse is the wire form of an element; the symbol travels as "emoji"
type ElementResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// CombineRequest is the body of POST /api/elements/combine
type CombineRequest struct {
	Element1ID string `json:"element1_id" validate:"required,max=128"`
	Element2ID string `json:"element2_id" validate:"required,max=128"`
	UserID     string `json:"user_id,omitempty" validate:"max=128"`
}

// CombineResponse mirrors services.CombineResult
type CombineResponse struct {
	Success bool             `json:"success"`
	Result  *ElementResponse `json:"result"`
	Message string           `json:"message"`
	IsNew   bool             `json:"is_new"`
}

// MessageResponse carries a human readable message
type MessageResponse struct {
	Message string `json:"message"`
}

func toElementResponse(e *entities.Element) *ElementResponse {
	if e == nil {
		return nil
	}
	return &ElementResponse{ID: e.ID().String(), Name: e.Name(), Emoji: e.Symbol()}
}

func toElementResponses(elements []*entities.Element) []ElementResponse {
	out := make([]ElementResponse, 0, len(elements))
	for _, e := range elements {
		out = append(out, *toElementResponse(e))
	}
	return out
}

func toCombineResponse(r *services.CombineResult) CombineResponse {
	return CombineResponse{
		Success: r.Success,
		Result:  toElementResponse(r.Result),
		Message: r.Message,
		IsNew:   r.IsNew,
	}
}
