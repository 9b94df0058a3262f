package declaration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declara/pkg/domain"
)

func sampleDeclaration() Declaration {
	return Declaration{
		ID:          domain.NewDeclarationID(),
		Resolution:  DefaultResolution,
		LegalName:   "Acme S.A.",
		BrandName:   "Acme",
		Email:       "legal@acme.com.ar",
		ProductCode: "ACME-001",
		DatePlace:   DefaultDatePlace(time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)),
		CreatedBy:   "user-1",
		CreatedAt:   time.Now(),
	}
}

func TestDiffCreateSnapshotsNonEmptyFields(t *testing.T) {
	d := sampleDeclaration()

	changed := Diff(nil, d)

	require.NotEmpty(t, changed)
	assert.Equal(t, d.LegalName, changed[FieldLegalName])
	assert.Equal(t, d.Resolution, changed[FieldResolution])
	_, present := changed[FieldTaxID]
	assert.False(t, present, "empty fields are not part of the creation snapshot")
}

func TestDiffReportsOnlyChangedFields(t *testing.T) {
	prev := sampleDeclaration()
	next := prev
	next.Phone = "+54 11 4000-0000"
	next.Email = "ventas@acme.com.ar"

	changed := Diff(&prev, next)

	assert.Equal(t, map[FieldKey]string{
		FieldPhone: "+54 11 4000-0000",
		FieldEmail: "ventas@acme.com.ar",
	}, changed)
}

func TestDiffRecordsClearedFieldAsEmpty(t *testing.T) {
	prev := sampleDeclaration()
	prev.TrackingNumber = "EXP-2025-001"
	next := prev
	next.TrackingNumber = ""

	changed := Diff(&prev, next)

	require.Contains(t, changed, FieldTrackingNumber)
	assert.Equal(t, "", changed[FieldTrackingNumber])
}

func TestDiffEqualSnapshotsIsEmpty(t *testing.T) {
	prev := sampleDeclaration()
	assert.Empty(t, Diff(&prev, prev))
}

func TestActionFor(t *testing.T) {
	prev := sampleDeclaration()

	assert.Equal(t, ActionCreate, ActionFor(nil, prev))

	signed := prev
	signed.SignatureURL = "mem://signature_ACME-001_1.png"
	assert.Equal(t, ActionSign, ActionFor(&prev, signed))

	resigned := signed
	resigned.SignatureURL = "mem://signature_ACME-001_2.png"
	assert.Equal(t, ActionUpdate, ActionFor(&signed, resigned))

	assert.Equal(t, ActionUpdate, ActionFor(&prev, prev))
}
