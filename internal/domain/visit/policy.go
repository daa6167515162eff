package visit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TransitionPolicy decides who may move a visit along an edge. The state
// machine checks legality itself; policies only gate actors.
type TransitionPolicy interface {
	CanTransition(role Role, from, to Status) bool
}

// PolicyFunc adapts a function to TransitionPolicy.
type PolicyFunc func(role Role, from, to Status) bool

func (f PolicyFunc) CanTransition(role Role, from, to Status) bool { return f(role, from, to) }

// Edge is one permitted move.
type Edge struct {
	From Status `yaml:"from"`
	To   Status `yaml:"to"`
}

// RoleMatrix lists the edges each role may trigger.
type RoleMatrix map[Role][]Edge

// DefaultRoleMatrix lets the front desk call a patient in, the doctor call
// in and complete, and admin do anything legal.
func DefaultRoleMatrix() RoleMatrix {
	return RoleMatrix{
		RoleReceptionist: {{From: StatusWaiting, To: StatusInConsultation}},
		RoleDoctor: {
			{From: StatusWaiting, To: StatusInConsultation},
			{From: StatusInConsultation, To: StatusCompleted},
		},
		RoleAdmin: {
			{From: StatusWaiting, To: StatusInConsultation},
			{From: StatusInConsultation, To: StatusCompleted},
		},
	}
}

func (m RoleMatrix) CanTransition(role Role, from, to Status) bool {
	for _, e := range m[role] {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

type policyFile struct {
	Roles map[Role][]Edge `yaml:"roles"`
}

// ParseRoleMatrix reads a YAML document of the form
//
//	roles:
//	  doctor:
//	    - {from: in_consultation, to: completed}
//
// Every edge must be a legal transition.
func ParseRoleMatrix(data []byte) (RoleMatrix, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse role policy: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("role policy defines no roles")
	}
	for role, list := range f.Roles {
		for _, e := range list {
			if !CanAdvance(e.From, e.To) {
				return nil, fmt.Errorf("role %s: %s -> %s is not a legal transition", role, e.From, e.To)
			}
		}
	}
	return RoleMatrix(f.Roles), nil
}

// LoadRoleMatrix reads a policy file; an empty path yields the default.
func LoadRoleMatrix(path string) (RoleMatrix, error) {
	if path == "" {
		return DefaultRoleMatrix(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role policy: %w", err)
	}
	return ParseRoleMatrix(data)
}
