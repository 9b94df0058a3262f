package declaration

// FieldKey names one field of the closed declaration schema. Validation
// errors and audit entries are keyed by these values, so the UI can map them
// straight onto form inputs.
type FieldKey string

const (
	FieldResolution     FieldKey = "resolution"
	FieldTrackingNumber FieldKey = "tracking_number"

	FieldLegalName    FieldKey = "legal_name"
	FieldTaxID        FieldKey = "tax_id"
	FieldBrandName    FieldKey = "brand_name"
	FieldLegalAddress FieldKey = "legal_address"
	FieldPlantAddress FieldKey = "plant_address"
	FieldPhone        FieldKey = "phone"
	FieldEmail        FieldKey = "email"

	FieldRepresentativeName    FieldKey = "representative_name"
	FieldRepresentativeAddress FieldKey = "representative_address"
	FieldRepresentativeTaxID   FieldKey = "representative_tax_id"

	FieldProductCode           FieldKey = "product_code"
	FieldManufacturer          FieldKey = "manufacturer"
	FieldProductIdentification FieldKey = "product_identification"

	FieldRegulations        FieldKey = "regulations"
	FieldTechnicalStandards FieldKey = "technical_standards"
	FieldAssessmentDocument FieldKey = "assessment_document"

	FieldDeclarationLink FieldKey = "declaration_link"
	FieldDatePlace       FieldKey = "date_place"

	FieldSignatureURL FieldKey = "signature_url"
	FieldDocumentURL  FieldKey = "document_url"

	// FieldSignature keys the "signature required" validation error. It is
	// not a stored column; the stored locator is FieldSignatureURL.
	FieldSignature FieldKey = "signature"
)

// requiredFields is the fixed required-field set with the localized labels
// used in validation messages. Order matters only for stable error output in
// logs; the result map is unordered either way.
var requiredFields = []struct {
	key   FieldKey
	label string
}{
	{FieldLegalName, "Razón Social"},
	{FieldBrandName, "Nombre Comercial o Marca Registrada"},
	{FieldLegalAddress, "Domicilio Legal"},
	{FieldPlantAddress, "Domicilio de la Planta de Producción"},
	{FieldPhone, "Teléfono"},
	{FieldEmail, "Correo Electrónico"},
	{FieldProductCode, "Código de Identificación Único del Producto"},
	{FieldManufacturer, "Fabricante"},
	{FieldProductIdentification, "Identificación del Producto"},
	{FieldRegulations, "Reglamento/s Aplicable/s"},
	{FieldTechnicalStandards, "Norma/s Técnica/s"},
	{FieldAssessmentDocument, "Documento de Evaluación de la Conformidad"},
	{FieldDatePlace, "Fecha y Lugar"},
}

// fieldValues enumerates every diffable field of a declaration. Identity and
// audit fields (ID, CreatedBy, CreatedAt) are excluded: they never change
// after creation and would only add noise to the trail.
func (d Declaration) fieldValues() []struct {
	key   FieldKey
	value string
} {
	return []struct {
		key   FieldKey
		value string
	}{
		{FieldResolution, d.Resolution},
		{FieldTrackingNumber, d.TrackingNumber},
		{FieldLegalName, d.LegalName},
		{FieldTaxID, d.TaxID},
		{FieldBrandName, d.BrandName},
		{FieldLegalAddress, d.LegalAddress},
		{FieldPlantAddress, d.PlantAddress},
		{FieldPhone, d.Phone},
		{FieldEmail, d.Email},
		{FieldRepresentativeName, d.Representative.Name},
		{FieldRepresentativeAddress, d.Representative.Address},
		{FieldRepresentativeTaxID, d.Representative.TaxID},
		{FieldProductCode, d.ProductCode},
		{FieldManufacturer, d.Manufacturer},
		{FieldProductIdentification, d.ProductIdentification},
		{FieldRegulations, d.Regulations},
		{FieldTechnicalStandards, d.TechnicalStandards},
		{FieldAssessmentDocument, d.AssessmentDocument},
		{FieldDeclarationLink, d.DeclarationLink},
		{FieldDatePlace, d.DatePlace},
		{FieldSignatureURL, d.SignatureURL},
		{FieldDocumentURL, d.DocumentURL},
	}
}

// inputValue returns the submitted value for a required field key.
func (in Input) inputValue(key FieldKey) string {
	switch key {
	case FieldLegalName:
		return in.LegalName
	case FieldBrandName:
		return in.BrandName
	case FieldLegalAddress:
		return in.LegalAddress
	case FieldPlantAddress:
		return in.PlantAddress
	case FieldPhone:
		return in.Phone
	case FieldEmail:
		return in.Email
	case FieldProductCode:
		return in.ProductCode
	case FieldManufacturer:
		return in.Manufacturer
	case FieldProductIdentification:
		return in.ProductIdentification
	case FieldRegulations:
		return in.Regulations
	case FieldTechnicalStandards:
		return in.TechnicalStandards
	case FieldAssessmentDocument:
		return in.AssessmentDocument
	case FieldDatePlace:
		return in.DatePlace
	default:
		return ""
	}
}
