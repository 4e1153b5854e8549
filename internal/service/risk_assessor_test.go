package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eye-triage-server/internal/domain"
)

func TestRiskAssessor_NoRiskFactors(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	adjusted, factors := assessor.Assess(4.0, &domain.PatientContext{Age: "40"})

	assert.Equal(t, 4.0, adjusted)
	assert.Empty(t, factors)
}

func TestRiskAssessor_AgeModifiers(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	tests := []struct {
		name         string
		age          domain.LooseAge
		wantAdjusted float64
		wantFactors  int
	}{
		{"over sixty", "65", 4.0 * 1.3, 1},
		{"exactly sixty is not over", "60", 4.0, 0},
		{"under five", "3", 4.0 * 1.4, 1},
		{"exactly five is not under", "5", 4.0, 0},
		{"missing age", "", 4.0, 0},
		{"unparseable age", "altmış beş", 4.0, 0},
		{"numeric string with spaces", " 70 ", 4.0 * 1.3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjusted, factors := assessor.Assess(4.0, &domain.PatientContext{Age: tt.age})

			assert.InDelta(t, tt.wantAdjusted, adjusted, 1e-9)
			assert.Len(t, factors, tt.wantFactors)
		})
	}
}

func TestRiskAssessor_MedicalHistoryModifiers(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	tests := []struct {
		name       string
		patient    domain.PatientContext
		multiplier float64
		wantLabel  string
	}{
		{"diabetes", domain.PatientContext{HasDiabetes: true}, 1.4, "Şəkərli diabet"},
		{"retinal detachment history", domain.PatientContext{PreviousRetinalDetachment: true}, 1.5, "Retina ayrılması tarixçəsi"},
		{"only functional eye", domain.PatientContext{OnlyFunctionalEye: true}, 2.0, "Tək işləyən göz"},
		{"bilateral symptoms", domain.PatientContext{BilateralSymptoms: true}, 1.6, "Hər iki göz"},
		{"pregnancy", domain.PatientContext{IsPregnant: true}, 1.2, "Hamiləlik"},
		{"immunocompromised", domain.PatientContext{Immunocompromised: true}, 1.5, "İmmunitet zəifliyi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjusted, factors := assessor.Assess(4.0, &tt.patient)

			assert.InDelta(t, 4.0*tt.multiplier, adjusted, 1e-9)
			require.Len(t, factors, 1)
			assert.Contains(t, factors[0], tt.wantLabel)
		})
	}
}

func TestRiskAssessor_FactorsApplyInCatalogueOrder(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	_, factors := assessor.Assess(4.0, &domain.PatientContext{
		Age:               "70",
		HasDiabetes:       true,
		OnlyFunctionalEye: true,
	})

	require.Len(t, factors, 3)
	assert.Contains(t, factors[0], "Yaş 60+")
	assert.Contains(t, factors[1], "Şəkərli diabet")
	assert.Contains(t, factors[2], "Tək işləyən göz")
}

func TestRiskAssessor_CapsAtTen(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	adjusted, factors := assessor.Assess(9.0, &domain.PatientContext{
		Age:         "65",
		HasDiabetes: true,
	})

	assert.Equal(t, 10.0, adjusted)
	assert.Len(t, factors, 2)
}

func TestRiskAssessor_DurationBuckets(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	tests := []struct {
		name         string
		duration     string
		wantAdjusted float64
		wantFactor   string
	}{
		{"sudden onset", "birdən başladı", 4.0 * 1.5, "Müddət faktoru: sudden"},
		{"hours", "iki saat əvvəl", 4.0 * 1.3, "Müddət faktoru: hours"},
		{"days", "üç gün əvvəl", 4.0 * 1.1, "Müddət faktoru: days"},
		{"months", "aylar ərzində", 4.0 * 1.0, "Müddət faktoru: months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjusted, factors := assessor.Assess(4.0, &domain.PatientContext{SymptomDuration: tt.duration})

			assert.InDelta(t, tt.wantAdjusted, adjusted, 1e-9)
			require.Len(t, factors, 1)
			assert.Equal(t, tt.wantFactor, factors[0])
		})
	}
}

func TestRiskAssessor_FirstMatchingBucketWins(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	// "birdən" (sudden) and "gün" (days) both occur; the earlier-declared
	// bucket applies and matching stops.
	adjusted, factors := assessor.Assess(4.0, &domain.PatientContext{
		SymptomDuration: "üç gün əvvəl birdən başladı",
	})

	assert.InDelta(t, 4.0*1.5, adjusted, 1e-9)
	require.Len(t, factors, 1)
	assert.Equal(t, "Müddət faktoru: sudden", factors[0])
}

func TestRiskAssessor_Monotonicity(t *testing.T) {
	assessor := NewRiskAssessor(newTestLogger(), loadTestMatrix(t))

	// With the shipped matrix every factor is >= 1.0, so the adjusted
	// severity is never below the base.
	patients := []*domain.PatientContext{
		{},
		{Age: "80"},
		{HasDiabetes: true, BilateralSymptoms: true},
		{Age: "2", Immunocompromised: true, SymptomDuration: "birdən"},
		{Age: "70", HasDiabetes: true, OnlyFunctionalEye: true, PreviousRetinalDetachment: true},
	}

	for _, p := range patients {
		for _, base := range []float64{0, 2, 4, 8, 10} {
			adjusted, _ := assessor.Assess(base, p)
			assert.GreaterOrEqual(t, adjusted, base)
			assert.LessOrEqual(t, adjusted, 10.0)
		}
	}
}
