package persistence

import (
	"time"

	"github.com/pestline/pestline/domain/report"
)

// ReportMapper maps between domain Report and persistence ReportModel.
// Trees are stored separately and are not part of the mapping.
type ReportMapper struct{}

// ToDomain converts a ReportModel to a domain Report.
func (m ReportMapper) ToDomain(e ReportModel) report.Report {
	var serviceDate time.Time
	if e.ServiceDate != nil {
		serviceDate = e.ServiceDate.UTC()
	}
	return report.ReconstructReport(
		e.ID,
		e.Reference,
		report.Kind(e.Kind),
		e.Title,
		e.ClientName,
		e.SiteAddress,
		serviceDate,
		nil,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Report to a ReportModel.
func (m ReportMapper) ToModel(r report.Report) ReportModel {
	var serviceDate *time.Time
	if !r.ServiceDate().IsZero() {
		d := r.ServiceDate().UTC()
		serviceDate = &d
	}
	return ReportModel{
		ID:          r.ID(),
		Reference:   r.Reference(),
		Kind:        string(r.Kind()),
		Title:       r.Title(),
		ClientName:  r.ClientName(),
		SiteAddress: r.SiteAddress(),
		ServiceDate: serviceDate,
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}
