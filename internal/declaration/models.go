// Package declaration holds the conformity declaration (DJC) domain model:
// the closed field schema, the field validator, and the structural diff that
// feeds the audit trail.
package declaration

import (
	"fmt"
	"time"

	"declara/pkg/domain"
)

// DefaultLocality is appended to the default date-and-place string on
// creation. The field stays user-editable afterwards.
const DefaultLocality = "Buenos Aires, Argentina"

// DefaultResolution preselects the most recent applicable resolution.
const DefaultResolution = "Res. SIYC N° 16/2025"

// Representative is the optional authorized-representative sub-record.
type Representative struct {
	Name    string
	Address string
	TaxID   string
}

// Empty reports whether no representative field is set.
func (r Representative) Empty() bool {
	return r.Name == "" && r.Address == "" && r.TaxID == ""
}

// Declaration is the central entity: one regulatory conformity declaration
// for one product. Mutated only through the lifecycle service; never
// physically deleted by this subsystem.
type Declaration struct {
	ID domain.DeclarationID

	// Classification.
	Resolution     string
	TrackingNumber string

	// Manufacturer or importer party.
	LegalName    string
	TaxID        string
	BrandName    string
	LegalAddress string
	PlantAddress string
	Phone        string
	Email        string

	Representative Representative

	// Product reference.
	ProductCode           string
	Manufacturer          string
	ProductIdentification string

	// Compliance.
	Regulations        string
	TechnicalStandards string
	AssessmentDocument string

	// Other data.
	DeclarationLink string
	DatePlace       string

	// Artifact locators. DocumentURL non-empty implies SignatureURL
	// non-empty; both empty is a valid draft indefinitely.
	SignatureURL string
	DocumentURL  string

	CreatedBy string
	CreatedAt time.Time
}

// Status reports the lifecycle state derived from the artifact locators.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

func (d Declaration) Status() Status {
	if d.DocumentURL != "" {
		return StatusFinalized
	}
	return StatusDraft
}

// Input is the editable field set submitted by the UI layer. Signature is
// the staged canonical raster (PNG bytes), nil when none is attached.
type Input struct {
	Resolution     string
	TrackingNumber string

	LegalName    string
	TaxID        string
	BrandName    string
	LegalAddress string
	PlantAddress string
	Phone        string
	Email        string

	Representative Representative

	ProductCode           string
	Manufacturer          string
	ProductIdentification string

	Regulations        string
	TechnicalStandards string
	AssessmentDocument string

	DeclarationLink string
	DatePlace       string

	Signature []byte
}

// Apply merges the editable fields onto d, leaving identity, artifact
// locators, and audit fields untouched.
func (in Input) Apply(d Declaration) Declaration {
	d.Resolution = in.Resolution
	d.TrackingNumber = in.TrackingNumber
	d.LegalName = in.LegalName
	d.TaxID = in.TaxID
	d.BrandName = in.BrandName
	d.LegalAddress = in.LegalAddress
	d.PlantAddress = in.PlantAddress
	d.Phone = in.Phone
	d.Email = in.Email
	d.Representative = in.Representative
	d.ProductCode = in.ProductCode
	d.Manufacturer = in.Manufacturer
	d.ProductIdentification = in.ProductIdentification
	d.Regulations = in.Regulations
	d.TechnicalStandards = in.TechnicalStandards
	d.AssessmentDocument = in.AssessmentDocument
	d.DeclarationLink = in.DeclarationLink
	d.DatePlace = in.DatePlace
	return d
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// DefaultDatePlace renders the creation date in long Spanish form followed
// by the fixed locality, e.g. "12 de mayo de 2025, Buenos Aires, Argentina".
func DefaultDatePlace(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d, %s",
		t.Day(), spanishMonths[t.Month()-1], t.Year(), DefaultLocality)
}
