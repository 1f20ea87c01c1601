package models

import (
	"github.com/awareness-network/semindex/pkg/registry"
)

// RegisterAgentRequest is the body of POST /api/v1/agents.
type RegisterAgentRequest struct {
	// Name is the display name; not required to be unique.
	Name string `json:"name" validate:"required,min=1,max=100" example:"Solidity Auditor"`

	// Description describes what the agent does.
	Description string `json:"description" validate:"required,max=1000" example:"Audits EVM contracts"`

	// ModelType names the agent's model.
	ModelType string `json:"modelType" validate:"required,max=100" example:"gpt-4"`

	// Capabilities lists free-form capability tags.
	Capabilities []string `json:"capabilities" validate:"max=50,dive,required,max=100" example:"audit,solidity"`

	// TBAAddress is the agent's token-bound account address.
	TBAAddress string `json:"tbaAddress" validate:"required,max=100" example:"0x0000000000000000000000000000000000000001"`
}

// ToParams converts the request to registry parameters.
func (r *RegisterAgentRequest) ToParams() registry.RegisterParams {
	return registry.RegisterParams{
		Name:         r.Name,
		Description:  r.Description,
		ModelType:    r.ModelType,
		Capabilities: r.Capabilities,
		TBAAddress:   r.TBAAddress,
	}
}

// ActivityRequest is the body of POST /api/v1/agents/{id}/activity.
type ActivityRequest struct {
	Action string `json:"action" validate:"required,oneof=publish consume" example:"publish"`
}

// AgentListResponse wraps a list of agents.
type AgentListResponse struct {
	Agents []*registry.Agent `json:"agents"`
	Count  int               `json:"count"`
}

// NewAgentListResponse builds an AgentListResponse.
func NewAgentListResponse(agents []*registry.Agent) AgentListResponse {
	if agents == nil {
		agents = []*registry.Agent{}
	}
	return AgentListResponse{Agents: agents, Count: len(agents)}
}
