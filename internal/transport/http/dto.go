package httptransport

import (
	"encoding/base64"
	"time"

	"declara/internal/declaration"
	"declara/pkg/domainerrors"
)

// declarationRequest is the submitted field set. JSON keys match the
// validator's field keys so error maps line up with request fields.
type declarationRequest struct {
	Resolution     string `json:"resolution"`
	TrackingNumber string `json:"tracking_number"`

	LegalName    string `json:"legal_name"`
	TaxID        string `json:"tax_id"`
	BrandName    string `json:"brand_name"`
	LegalAddress string `json:"legal_address"`
	PlantAddress string `json:"plant_address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	RepresentativeName    string `json:"representative_name"`
	RepresentativeAddress string `json:"representative_address"`
	RepresentativeTaxID   string `json:"representative_tax_id"`

	ProductCode           string `json:"product_code"`
	Manufacturer          string `json:"manufacturer"`
	ProductIdentification string `json:"product_identification"`

	Regulations        string `json:"regulations"`
	TechnicalStandards string `json:"technical_standards"`
	AssessmentDocument string `json:"assessment_document"`

	DeclarationLink string `json:"declaration_link"`
	DatePlace       string `json:"date_place"`

	// Signature is a base64-encoded PNG, accepted only on finalization.
	Signature string `json:"signature,omitempty"`
}

func (req declarationRequest) toInput() (declaration.Input, error) {
	in := declaration.Input{
		Resolution:     req.Resolution,
		TrackingNumber: req.TrackingNumber,
		LegalName:      req.LegalName,
		TaxID:          req.TaxID,
		BrandName:      req.BrandName,
		LegalAddress:   req.LegalAddress,
		PlantAddress:   req.PlantAddress,
		Phone:          req.Phone,
		Email:          req.Email,
		Representative: declaration.Representative{
			Name:    req.RepresentativeName,
			Address: req.RepresentativeAddress,
			TaxID:   req.RepresentativeTaxID,
		},
		ProductCode:           req.ProductCode,
		Manufacturer:          req.Manufacturer,
		ProductIdentification: req.ProductIdentification,
		Regulations:           req.Regulations,
		TechnicalStandards:    req.TechnicalStandards,
		AssessmentDocument:    req.AssessmentDocument,
		DeclarationLink:       req.DeclarationLink,
		DatePlace:             req.DatePlace,
	}
	if req.Signature != "" {
		raster, err := base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			return declaration.Input{}, domainerrors.Wrap(err, domainerrors.CodeBadRequest, "signature must be base64-encoded")
		}
		in.Signature = raster
	}
	return in, nil
}

type declarationResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Resolution     string `json:"resolution"`
	TrackingNumber string `json:"tracking_number,omitempty"`

	LegalName    string `json:"legal_name"`
	TaxID        string `json:"tax_id,omitempty"`
	BrandName    string `json:"brand_name"`
	LegalAddress string `json:"legal_address"`
	PlantAddress string `json:"plant_address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	RepresentativeName    string `json:"representative_name,omitempty"`
	RepresentativeAddress string `json:"representative_address,omitempty"`
	RepresentativeTaxID   string `json:"representative_tax_id,omitempty"`

	ProductCode           string `json:"product_code"`
	Manufacturer          string `json:"manufacturer"`
	ProductIdentification string `json:"product_identification"`

	Regulations        string `json:"regulations"`
	TechnicalStandards string `json:"technical_standards"`
	AssessmentDocument string `json:"assessment_document"`

	DeclarationLink string `json:"declaration_link,omitempty"`
	DatePlace       string `json:"date_place"`

	SignatureURL string `json:"signature_url,omitempty"`
	DocumentURL  string `json:"document_url,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toDeclarationResponse(d declaration.Declaration) declarationResponse {
	return declarationResponse{
		ID:                    d.ID.String(),
		Status:                string(d.Status()),
		Resolution:            d.Resolution,
		TrackingNumber:        d.TrackingNumber,
		LegalName:             d.LegalName,
		TaxID:                 d.TaxID,
		BrandName:             d.BrandName,
		LegalAddress:          d.LegalAddress,
		PlantAddress:          d.PlantAddress,
		Phone:                 d.Phone,
		Email:                 d.Email,
		RepresentativeName:    d.Representative.Name,
		RepresentativeAddress: d.Representative.Address,
		RepresentativeTaxID:   d.Representative.TaxID,
		ProductCode:           d.ProductCode,
		Manufacturer:          d.Manufacturer,
		ProductIdentification: d.ProductIdentification,
		Regulations:           d.Regulations,
		TechnicalStandards:    d.TechnicalStandards,
		AssessmentDocument:    d.AssessmentDocument,
		DeclarationLink:       d.DeclarationLink,
		DatePlace:             d.DatePlace,
		SignatureURL:          d.SignatureURL,
		DocumentURL:           d.DocumentURL,
		CreatedBy:             d.CreatedBy,
		CreatedAt:             d.CreatedAt,
	}
}

type historyEntryResponse struct {
	ID            string            `json:"id"`
	Action        string            `json:"action"`
	ChangedFields map[string]string `json:"changed_fields"`
	ActorID       string            `json:"actor_id"`
	Timestamp     time.Time         `json:"timestamp"`
}

func toHistoryResponse(entries []declaration.AuditEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		changed := make(map[string]string, len(entry.ChangedFields))
		for key, value := range entry.ChangedFields {
			changed[string(key)] = value
		}
		out = append(out, historyEntryResponse{
			ID:            entry.ID.String(),
			Action:        string(entry.Action),
			ChangedFields: changed,
			ActorID:       entry.ActorID,
			Timestamp:     entry.Timestamp,
		})
	}
	return out
}
