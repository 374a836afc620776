// Package workbench implements the project operations of the analyst
// workbench on top of a project store.
package workbench

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/intelbench/internal/bias"
	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/score"
	"github.com/ppiankov/intelbench/internal/store"
	"github.com/ppiankov/intelbench/internal/validate"
)

//go:embed sample.json
var sampleJSON []byte

// SampleProjectID is the id of the bundled sample project
const SampleProjectID = "proj-sandworm"

// Store is the persistence the service needs
type Store interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	Put(ctx context.Context, project *model.Project) error
	List(ctx context.Context) ([]model.Project, error)
	Delete(ctx context.Context, id string) error
}

// Versioned is implemented by stores that archive replaced documents
type Versioned interface {
	Versions(ctx context.Context, id string, limit int) ([]model.Project, error)
}

// Service applies workbench operations to stored projects. Every mutation
// loads the project, changes it and writes it back with fresh timestamps.
type Service struct {
	store      Store
	normalizer *validate.Normalizer
	scorer     *score.Scorer
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// NewService creates a service over store
func NewService(s Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:  s,
		scorer: score.NewScorer(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  newID,
	}
	svc.normalizer = validate.NewNormalizerWithClock(func() time.Time { return svc.now() })
	return svc
}

// newID returns a time-ordered UUID, falling back to a random one
func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// ProjectUpdate carries optional project field changes
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// HypothesisUpdate carries optional hypothesis field changes
type HypothesisUpdate struct {
	Name        *string
	Description *string
}

// EvidenceInput describes a new evidence row
type EvidenceInput struct {
	Description string
	Source      string
	Credibility model.Level
	Relevance   model.Level
}

// EvidenceUpdate carries optional evidence field changes
type EvidenceUpdate struct {
	Description *string
	Source      *string
	Credibility *model.Level
	Relevance   *model.Level
}

// CreateProject stores a new empty project
func (s *Service) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := s.now()
	project := &model.Project{
		ID:             s.newID(),
		Name:           name,
		Description:    description,
		ACHMatrices:    []model.ACHMatrix{},
		BiasChecklists: []model.BiasChecklist{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Put(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Debug("project created", "project", project.ID)
	return project, nil
}

// GetProject loads a project
func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.store.Get(ctx, id)
}

// ListProjects returns all projects
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.store.List(ctx)
}

// UpdateProject changes the name and/or description of a project
func (s *Service) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*model.Project, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, ErrEmptyName
	}
	return s.mutate(ctx, id, func(p *model.Project) error {
		if update.Name != nil {
			p.Name = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		return nil
	})
}

// DeleteProject removes a project
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.Debug("project deleted", "project", id)
	return nil
}

// ProjectVersions returns earlier versions of a project, newest first
func (s *Service) ProjectVersions(ctx context.Context, id string, limit int) ([]model.Project, error) {
	v, ok := s.store.(Versioned)
	if !ok {
		return nil, ErrNoHistory
	}
	return v.Versions(ctx, id, limit)
}

// LoadSample stores the bundled sample project unless it is already present
func (s *Service) LoadSample(ctx context.Context) (*model.Project, error) {
	existing, err := s.store.Get(ctx, SampleProjectID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	project, err := SampleProject()
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, project); err != nil {
		return nil, fmt.Errorf("store sample: %w", err)
	}
	return project, nil
}

// SampleProject decodes the bundled sample project
func SampleProject() (*model.Project, error) {
	project, err := validate.ParseProject(sampleJSON)
	if err != nil {
		return nil, fmt.Errorf("decode sample project: %w", err)
	}
	return project, nil
}

// ImportProject normalizes a JSON document and stores it, replacing any
// project with the same id. replaced reports whether one existed.
func (s *Service) ImportProject(ctx context.Context, data []byte) (project *model.Project, replaced bool, err error) {
	project, err = s.normalizer.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("import project: %w", err)
	}

	_, err = s.store.Get(ctx, project.ID)
	switch {
	case err == nil:
		replaced = true
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, false, err
	}

	if err := s.store.Put(ctx, project); err != nil {
		return nil, false, fmt.Errorf("import project: %w", err)
	}

	s.logger.Info("project imported", "project", project.ID, "replaced", replaced, "matrices", len(project.ACHMatrices))
	return project, replaced, nil
}

// ExportProject returns the project as indented JSON
func (s *Service) ExportProject(ctx context.Context, id string) ([]byte, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

// CreateMatrix adds an empty ACH matrix to a project
func (s *Service) CreateMatrix(ctx context.Context, projectID, name string) (*model.ACHMatrix, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := s.now()
	matrix := model.ACHMatrix{
		ID:         s.newID(),
		Name:       name,
		Hypotheses: []model.Hypothesis{},
		Evidence:   []model.Evidence{},
		Ratings:    model.Ratings{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		p.ACHMatrices = append(p.ACHMatrices, matrix)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &matrix, nil
}

// RenameMatrix changes a matrix name
func (s *Service) RenameMatrix(ctx context.Context, projectID, matrixID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		m.Name = name
		return nil
	})
}

// DeleteMatrix removes a matrix from a project
func (s *Service) DeleteMatrix(ctx context.Context, projectID, matrixID string) error {
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		for i := range p.ACHMatrices {
			if p.ACHMatrices[i].ID == matrixID {
				p.ACHMatrices = append(p.ACHMatrices[:i:i], p.ACHMatrices[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrMatrixNotFound, matrixID)
	})
	return err
}

// AddHypothesis appends a hypothesis column
func (s *Service) AddHypothesis(ctx context.Context, projectID, matrixID, name, description string) (model.Hypothesis, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Hypothesis{}, ErrEmptyName
	}

	h := model.Hypothesis{ID: s.newID(), Name: name, Description: description}
	err := s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		m.Hypotheses = append(m.Hypotheses, h)
		return nil
	})
	if err != nil {
		return model.Hypothesis{}, err
	}
	return h, nil
}

// UpdateHypothesis changes hypothesis fields
func (s *Service) UpdateHypothesis(ctx context.Context, projectID, matrixID, hypothesisID string, update HypothesisUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return ErrEmptyName
	}
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		idx := m.HypothesisIndex(hypothesisID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrHypothesisNotFound, hypothesisID)
		}
		if update.Name != nil {
			m.Hypotheses[idx].Name = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			m.Hypotheses[idx].Description = *update.Description
		}
		return nil
	})
}

// RemoveHypothesis deletes a hypothesis column and its ratings
func (s *Service) RemoveHypothesis(ctx context.Context, projectID, matrixID, hypothesisID string) error {
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		if !m.RemoveHypothesis(hypothesisID) {
			return fmt.Errorf("%w: %s", ErrHypothesisNotFound, hypothesisID)
		}
		return nil
	})
}

// AddEvidence appends an evidence row. Unknown grades become Medium.
func (s *Service) AddEvidence(ctx context.Context, projectID, matrixID string, input EvidenceInput) (model.Evidence, error) {
	e := model.Evidence{
		ID:          s.newID(),
		Description: input.Description,
		Source:      input.Source,
		Credibility: gradeOrMedium(input.Credibility),
		Relevance:   gradeOrMedium(input.Relevance),
	}
	err := s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		m.Evidence = append(m.Evidence, e)
		return nil
	})
	if err != nil {
		return model.Evidence{}, err
	}
	return e, nil
}

// UpdateEvidence changes evidence fields
func (s *Service) UpdateEvidence(ctx context.Context, projectID, matrixID, evidenceID string, update EvidenceUpdate) error {
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		idx := m.EvidenceIndex(evidenceID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrEvidenceNotFound, evidenceID)
		}
		e := &m.Evidence[idx]
		if update.Description != nil {
			e.Description = *update.Description
		}
		if update.Source != nil {
			e.Source = *update.Source
		}
		if update.Credibility != nil {
			e.Credibility = gradeOrMedium(*update.Credibility)
		}
		if update.Relevance != nil {
			e.Relevance = gradeOrMedium(*update.Relevance)
		}
		return nil
	})
}

// RemoveEvidence deletes an evidence row and its ratings
func (s *Service) RemoveEvidence(ctx context.Context, projectID, matrixID, evidenceID string) error {
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		if !m.RemoveEvidence(evidenceID) {
			return fmt.Errorf("%w: %s", ErrEvidenceNotFound, evidenceID)
		}
		return nil
	})
}

// SetRating stores the rating of one cell
func (s *Service) SetRating(ctx context.Context, projectID, matrixID, evidenceID, hypothesisID string, rating model.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	return s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		if err := checkCell(m, evidenceID, hypothesisID); err != nil {
			return err
		}
		m.Ratings.Set(evidenceID, hypothesisID, rating)
		return nil
	})
}

// CycleRating advances a cell to its next rating and returns it
func (s *Service) CycleRating(ctx context.Context, projectID, matrixID, evidenceID, hypothesisID string) (model.Rating, error) {
	var next model.Rating
	err := s.mutateMatrix(ctx, projectID, matrixID, func(m *model.ACHMatrix) error {
		if err := checkCell(m, evidenceID, hypothesisID); err != nil {
			return err
		}
		next = score.CycleRating(m.Ratings.Get(evidenceID, hypothesisID))
		m.Ratings.Set(evidenceID, hypothesisID, next)
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Score computes the scoring breakdown of a matrix
func (s *Service) Score(ctx context.Context, projectID, matrixID string) (score.MatrixScore, error) {
	project, err := s.store.Get(ctx, projectID)
	if err != nil {
		return score.MatrixScore{}, err
	}
	m := project.Matrix(matrixID)
	if m == nil {
		return score.MatrixScore{}, fmt.Errorf("%w: %s", ErrMatrixNotFound, matrixID)
	}
	return s.scorer.Calculate(*m), nil
}

// CreateChecklist adds a checklist seeded from the bias catalogue
func (s *Service) CreateChecklist(ctx context.Context, projectID, name string) (*model.BiasChecklist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	biases, err := bias.DefaultBiases()
	if err != nil {
		return nil, err
	}

	now := s.now()
	checklist := model.BiasChecklist{
		ID:        s.newID(),
		Name:      name,
		Biases:    biases,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.mutate(ctx, projectID, func(p *model.Project) error {
		p.BiasChecklists = append(p.BiasChecklists, checklist)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}

// DeleteChecklist removes a checklist from a project
func (s *Service) DeleteChecklist(ctx context.Context, projectID, checklistID string) error {
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		for i := range p.BiasChecklists {
			if p.BiasChecklists[i].ID == checklistID {
				p.BiasChecklists = append(p.BiasChecklists[:i:i], p.BiasChecklists[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrChecklistNotFound, checklistID)
	})
	return err
}

// ToggleBias flips the reviewed flag of a bias and returns the new value
func (s *Service) ToggleBias(ctx context.Context, projectID, checklistID, biasID string) (bool, error) {
	var checked bool
	err := s.mutateBias(ctx, projectID, checklistID, biasID, func(b *model.CognitiveBias) {
		b.Checked = !b.Checked
		checked = b.Checked
	})
	return checked, err
}

// SetBiasNotes replaces the mitigation notes of a bias
func (s *Service) SetBiasNotes(ctx context.Context, projectID, checklistID, biasID, notes string) error {
	return s.mutateBias(ctx, projectID, checklistID, biasID, func(b *model.CognitiveBias) {
		b.MitigationNotes = notes
	})
}

func (s *Service) mutateBias(ctx context.Context, projectID, checklistID, biasID string, fn func(*model.CognitiveBias)) error {
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		c := p.Checklist(checklistID)
		if c == nil {
			return fmt.Errorf("%w: %s", ErrChecklistNotFound, checklistID)
		}
		for i := range c.Biases {
			if c.Biases[i].ID == biasID {
				fn(&c.Biases[i])
				c.UpdatedAt = s.now()
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrBiasNotFound, biasID)
	})
	return err
}

// mutate loads a project, applies fn and stores the result. Nothing is
// written when fn fails.
func (s *Service) mutate(ctx context.Context, projectID string, fn func(*model.Project) error) (*model.Project, error) {
	project, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := fn(project); err != nil {
		return nil, err
	}
	project.UpdatedAt = s.now()
	if err := s.store.Put(ctx, project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

func (s *Service) mutateMatrix(ctx context.Context, projectID, matrixID string, fn func(*model.ACHMatrix) error) error {
	_, err := s.mutate(ctx, projectID, func(p *model.Project) error {
		m := p.Matrix(matrixID)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMatrixNotFound, matrixID)
		}
		if m.Ratings == nil {
			m.Ratings = model.Ratings{}
		}
		if err := fn(m); err != nil {
			return err
		}
		m.UpdatedAt = s.now()
		return nil
	})
	return err
}

func checkCell(m *model.ACHMatrix, evidenceID, hypothesisID string) error {
	if m.EvidenceIndex(evidenceID) < 0 {
		return fmt.Errorf("%w: %s", ErrEvidenceNotFound, evidenceID)
	}
	if m.HypothesisIndex(hypothesisID) < 0 {
		return fmt.Errorf("%w: %s", ErrHypothesisNotFound, hypothesisID)
	}
	return nil
}

func gradeOrMedium(l model.Level) model.Level {
	if l.Valid() {
		return l
	}
	return model.LevelMedium
}
