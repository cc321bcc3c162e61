// Package seed loads applicants and resources from a YAML file so an
// in-memory deployment starts with a usable registry.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	applicantmodels "dlms/internal/applicant/models"
	resourcemodels "dlms/internal/resource/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

// File is the seed document.
type File struct {
	Applicants []Applicant `yaml:"applicants"`
	Resources  []Resource  `yaml:"resources"`
}

type Applicant struct {
	NationalID        string             `yaml:"national_id"`
	FirstName         string             `yaml:"first_name"`
	LastName          string             `yaml:"last_name"`
	BirthDate         string             `yaml:"birth_date"`
	Address           string             `yaml:"address"`
	Email             string             `yaml:"email"`
	Phone             string             `yaml:"phone"`
	Disqualifications []Disqualification `yaml:"disqualifications"`
}

type Disqualification struct {
	Reason string     `yaml:"reason"`
	From   time.Time  `yaml:"from"`
	Until  *time.Time `yaml:"until"`
}

type Resource struct {
	Name     string                   `yaml:"name"`
	Type     string                   `yaml:"type"`
	Capacity int                      `yaml:"capacity"`
	OpensAt  resourcemodels.TimeOfDay `yaml:"opens_at"`
	ClosesAt resourcemodels.TimeOfDay `yaml:"closes_at"`
}

// ApplicantRegistrar is the part of the applicant service the loader drives.
type ApplicantRegistrar interface {
	Register(ctx context.Context, req applicantmodels.RegisterRequest) (*applicantmodels.Applicant, error)
	Disqualify(ctx context.Context, applicantID id.ApplicantID, req applicantmodels.DisqualifyRequest) (*applicantmodels.Applicant, error)
}

type ResourceCreator interface {
	Create(ctx context.Context, req resourcemodels.CreateRequest) (*resourcemodels.Resource, error)
}

// Load reads and parses path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Result counts what Apply created and what already existed.
type Result struct {
	Applicants int
	Resources  int
	Skipped    int
}

// Apply registers every entry through the services, so seeded data passes
// the same validation as API input. Entries that already exist are skipped.
func (f *File) Apply(ctx context.Context, applicants ApplicantRegistrar, resources ResourceCreator, logger *slog.Logger) (Result, error) {
	var res Result
	for _, a := range f.Applicants {
		created, err := applicants.Register(ctx, applicantmodels.RegisterRequest{
			NationalID: a.NationalID,
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			BirthDate:  a.BirthDate,
			Address:    a.Address,
			Email:      a.Email,
			Phone:      a.Phone,
		})
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed applicant %s: %w", a.NationalID, err)
		}
		for _, d := range a.Disqualifications {
			if _, err := applicants.Disqualify(ctx, created.ID, applicantmodels.DisqualifyRequest{Reason: d.Reason, From: d.From, Until: d.Until}); err != nil {
				return res, fmt.Errorf("seed disqualification for %s: %w", a.NationalID, err)
			}
		}
		res.Applicants++
	}

	for _, r := range f.Resources {
		_, err := resources.Create(ctx, resourcemodels.CreateRequest{
			Name:     r.Name,
			Type:     r.Type,
			Capacity: r.Capacity,
			OpensAt:  r.OpensAt,
			ClosesAt: r.ClosesAt,
		})
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed resource %s: %w", r.Name, err)
		}
		res.Resources++
	}

	if logger != nil {
		logger.InfoContext(ctx, "seed applied",
			"applicants", res.Applicants,
			"resources", res.Resources,
			"skipped", res.Skipped,
		)
	}
	return res, nil
}
