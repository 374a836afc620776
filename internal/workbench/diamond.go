package workbench

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/intelbench/internal/model"
)

// AdversaryUpdate carries optional adversary vertex changes
type AdversaryUpdate struct {
	Name                  *string
	Aliases               *string
	Motivation            *string
	AttributionConfidence *string
}

// CapabilityUpdate carries optional capability vertex changes
type CapabilityUpdate struct {
	Malware    *string
	Tools      *string
	Techniques *string
	AttackIDs  *string
}

// InfrastructureUpdate carries optional infrastructure vertex changes
type InfrastructureUpdate struct {
	C2Servers        *string
	Domains          *string
	IPs              *string
	HostingProviders *string
}

// VictimUpdate carries optional victim vertex changes
type VictimUpdate struct {
	Organization *string
	Sector       *string
	Geography    *string
	Impact       *string
}

// MetaUpdate carries optional event meta changes. Enumerated fields are
// checked before anything is written.
type MetaUpdate struct {
	Timestamp         *string
	Phase             *model.KillChainPhase
	Confidence        *model.Confidence
	SourceReliability *model.SourceReliability
	Notes             *string
}

func (u MetaUpdate) validate() error {
	if u.Phase != nil && !u.Phase.Valid() {
		return fmt.Errorf("%w: phase %q", ErrInvalidMeta, *u.Phase)
	}
	if u.Confidence != nil && !u.Confidence.Valid() {
		return fmt.Errorf("%w: confidence %q", ErrInvalidMeta, *u.Confidence)
	}
	if u.SourceReliability != nil && !u.SourceReliability.Valid() {
		return fmt.Errorf("%w: source reliability %q", ErrInvalidMeta, *u.SourceReliability)
	}
	return nil
}

// CreateEvent adds an empty Diamond event with default meta
func (s *Service) CreateEvent(ctx context.Context, projectID, name string) (*model.DiamondEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := s.now()
	event := model.DiamondEvent{
		ID:        s.newID(),
		Name:      name,
		Meta:      model.NewDiamondMeta(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		p.DiamondEvents = append(p.DiamondEvents, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// RenameEvent changes an event name
func (s *Service) RenameEvent(ctx context.Context, projectID, eventID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	_, err := s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		e.Name = name
	})
	return err
}

// DeleteEvent removes an event from a project
func (s *Service) DeleteEvent(ctx context.Context, projectID, eventID string) error {
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		for i := range p.DiamondEvents {
			if p.DiamondEvents[i].ID == eventID {
				p.DiamondEvents = append(p.DiamondEvents[:i:i], p.DiamondEvents[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	})
	return err
}

// UpdateAdversary merges the set fields into the adversary vertex
func (s *Service) UpdateAdversary(ctx context.Context, projectID, eventID string, u AdversaryUpdate) (model.DiamondEvent, error) {
	return s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		v := &e.Adversary
		merge(&v.Name, u.Name)
		merge(&v.Aliases, u.Aliases)
		merge(&v.Motivation, u.Motivation)
		merge(&v.AttributionConfidence, u.AttributionConfidence)
	})
}

// UpdateCapability merges the set fields into the capability vertex
func (s *Service) UpdateCapability(ctx context.Context, projectID, eventID string, u CapabilityUpdate) (model.DiamondEvent, error) {
	return s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		v := &e.Capability
		merge(&v.Malware, u.Malware)
		merge(&v.Tools, u.Tools)
		merge(&v.Techniques, u.Techniques)
		merge(&v.AttackIDs, u.AttackIDs)
	})
}

// UpdateInfrastructure merges the set fields into the infrastructure vertex
func (s *Service) UpdateInfrastructure(ctx context.Context, projectID, eventID string, u InfrastructureUpdate) (model.DiamondEvent, error) {
	return s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		v := &e.Infrastructure
		merge(&v.C2Servers, u.C2Servers)
		merge(&v.Domains, u.Domains)
		merge(&v.IPs, u.IPs)
		merge(&v.HostingProviders, u.HostingProviders)
	})
}

// UpdateVictim merges the set fields into the victim vertex
func (s *Service) UpdateVictim(ctx context.Context, projectID, eventID string, u VictimUpdate) (model.DiamondEvent, error) {
	return s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		v := &e.Victim
		merge(&v.Organization, u.Organization)
		merge(&v.Sector, u.Sector)
		merge(&v.Geography, u.Geography)
		merge(&v.Impact, u.Impact)
	})
}

// UpdateMeta merges the set fields into the event meta
func (s *Service) UpdateMeta(ctx context.Context, projectID, eventID string, u MetaUpdate) (model.DiamondEvent, error) {
	if err := u.validate(); err != nil {
		return model.DiamondEvent{}, err
	}
	return s.mutateEvent(ctx, projectID, eventID, func(e *model.DiamondEvent) {
		m := &e.Meta
		merge(&m.Timestamp, u.Timestamp)
		merge(&m.Notes, u.Notes)
		if u.Phase != nil {
			m.Phase = *u.Phase
		}
		if u.Confidence != nil {
			m.Confidence = *u.Confidence
		}
		if u.SourceReliability != nil {
			m.SourceReliability = *u.SourceReliability
		}
	})
}

// ExportEvents returns the project's Diamond events as an indented JSON array
func (s *Service) ExportEvents(ctx context.Context, projectID string) ([]byte, error) {
	project, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	events := project.DiamondEvents
	if events == nil {
		events = []model.DiamondEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	return data, nil
}

// ImportEvents replaces the project's Diamond events with the normalized
// elements of a JSON array and returns how many were kept
func (s *Service) ImportEvents(ctx context.Context, projectID string, data []byte) (int, error) {
	events, err := s.normalizer.ParseEvents(data)
	if err != nil {
		return 0, fmt.Errorf("import events: %w", err)
	}

	_, err = s.mutate(ctx, projectID, func(p *model.Project) error {
		p.DiamondEvents = events
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("diamond events imported", "project", projectID, "events", len(events))
	return len(events), nil
}

// mutateEvent applies fn to one event, bumps its UpdatedAt and returns a copy
// of the result
func (s *Service) mutateEvent(ctx context.Context, projectID, eventID string, fn func(*model.DiamondEvent)) (model.DiamondEvent, error) {
	var updated model.DiamondEvent
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		e := p.Event(eventID)
		if e == nil {
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		fn(e)
		e.UpdatedAt = s.now()
		updated = *e
		return nil
	})
	return updated, err
}

func merge(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
