package pet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	assert.NoError(t, p.Validate())
	assert.Equal(t, "Lucky", p.Name)
	assert.Equal(t, "コーギー", p.Breed)
}

func TestNormalize(t *testing.T) {
	t.Run("custom breed name replaces placeholder", func(t *testing.T) {
		p := Profile{Name: "Momo", Breed: BreedCustom, CustomBreed: " ミックス "}.Normalize()
		assert.Equal(t, "ミックス", p.Breed)
		assert.Empty(t, p.CustomBreed)
	})

	t.Run("empty custom name keeps placeholder", func(t *testing.T) {
		p := Profile{Name: "Momo", Breed: BreedCustom}.Normalize()
		assert.Equal(t, BreedCustom, p.Breed)
	})

	t.Run("blank name falls back to default", func(t *testing.T) {
		p := Profile{Name: "  ", Breed: "柴犬"}.Normalize()
		assert.Equal(t, "Lucky", p.Name)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr bool
	}{
		{name: "minimum age", mutate: func(p *Profile) { p.Age = 0.5 }},
		{name: "maximum weight", mutate: func(p *Profile) { p.Weight = 30 }},
		{name: "age too low", mutate: func(p *Profile) { p.Age = 0 }, wantErr: true},
		{name: "age off step", mutate: func(p *Profile) { p.Age = 4.3 }, wantErr: true},
		{name: "weight too high", mutate: func(p *Profile) { p.Weight = 31 }, wantErr: true},
		{name: "sensitivity zero", mutate: func(p *Profile) { p.Sensitivity = 0 }, wantErr: true},
		{name: "sensitivity eleven", mutate: func(p *Profile) { p.Sensitivity = 11 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidProfile))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNote(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		contains string
	}{
		{name: "french bulldog", profile: Profile{Breed: BreedFrenchBulldog, Age: 3}, contains: "短頭種"},
		{name: "french bulldog senior prefers heat note", profile: Profile{Breed: BreedFrenchBulldog, Age: 12}, contains: "5°C"},
		{name: "senior by age", profile: Profile{Breed: "柴犬", Age: 10.5}, contains: "シニア犬"},
		{name: "senior by breed label", profile: Profile{Breed: "シニア犬 (柴)", Age: 3}, contains: "シニア犬"},
		{name: "age ten is not senior", profile: Profile{Breed: "柴犬", Age: 10}, contains: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := tt.profile.Note()
			if tt.contains == "" {
				assert.Empty(t, note)
			} else {
				assert.Contains(t, note, tt.contains)
			}
		})
	}
}

func TestIsBrachycephalic(t *testing.T) {
	assert.True(t, Profile{Breed: BreedPug}.IsBrachycephalic())
	assert.True(t, Profile{Breed: BreedFrenchBulldog}.IsBrachycephalic())
	assert.False(t, Profile{Breed: "チワワ"}.IsBrachycephalic())
}

func TestContext(t *testing.T) {
	p := Default()
	p.MedicalHistory = "気管虚脱"

	ctx := p.Context()
	assert.Contains(t, ctx, "Name: Lucky, Breed: コーギー, Age: 4.5, Owner Sensitivity: 8/10.")
	assert.Contains(t, ctx, "Brachycephalic: No")
	assert.Contains(t, ctx, "Weight: 13.5kg")
	assert.Contains(t, ctx, "Medical History: 気管虚脱")

	pug := Profile{Name: "Bun", Breed: BreedPug, Age: 2, Weight: 8, Sensitivity: 5}
	assert.Contains(t, pug.Context(), "Brachycephalic: Yes")
	assert.NotContains(t, pug.Context(), "Medical History")
}
