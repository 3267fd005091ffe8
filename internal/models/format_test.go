package models

import (
	"encoding/json"
	"errors"
	"testing"

	"fjacquet/ekstre-csv/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validFormat() FormatDescriptor {
	return FormatDescriptor{
		ID:                "garanti",
		Name:              "Garanti Bankası",
		HeaderIdentifiers: []string{"Tarih", "Açıklama", "Tutar", "Bakiye"},
		AmountCol:         "Tutar",
		Active:            true,
	}
}

func TestFormatDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FormatDescriptor)
		wantErr string
	}{
		{name: "valid single amount", mutate: func(f *FormatDescriptor) {}},
		{name: "valid debit credit", mutate: func(f *FormatDescriptor) {
			f.AmountCol = ""
			f.DebitCol = "Borç"
			f.CreditCol = "Alacak"
		}},
		{name: "missing id", mutate: func(f *FormatDescriptor) { f.ID = "" }, wantErr: "id is required"},
		{name: "bad id", mutate: func(f *FormatDescriptor) { f.ID = "Garanti Bank" }, wantErr: "lower-case"},
		{name: "missing name", mutate: func(f *FormatDescriptor) { f.Name = " " }, wantErr: "name is required"},
		{name: "no header tokens", mutate: func(f *FormatDescriptor) { f.HeaderIdentifiers = []string{" "} }, wantErr: "header identifier"},
		{name: "neither amount nor pair", mutate: func(f *FormatDescriptor) { f.AmountCol = "" }, wantErr: "either amount_col"},
		{name: "both amount and pair", mutate: func(f *FormatDescriptor) {
			f.DebitCol = "Borç"
			f.CreditCol = "Alacak"
		}, wantErr: "either amount_col"},
		{name: "half pair", mutate: func(f *FormatDescriptor) {
			f.AmountCol = ""
			f.DebitCol = "Borç"
		}, wantErr: "declared together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFormat()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			var vErr *parsererror.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestFormatDescriptor_KeywordsAndTokens(t *testing.T) {
	f := validFormat()
	f.ContentIndicators = []string{"GARANTİ"}
	assert.Equal(t, []string{"GARANTİ"}, f.Keywords())

	f.Fingerprints = []string{"BONUS", "PARAMATIK"}
	assert.Equal(t, []string{"BONUS", "PARAMATIK"}, f.Keywords())

	assert.Equal(t, []string{"tarih", "açıklama", "tutar", "bakiye"}, f.HeaderTokens())
}

func TestFormatDescriptor_Clone(t *testing.T) {
	f := validFormat()
	c := f.Clone()
	c.HeaderIdentifiers[0] = "changed"
	assert.Equal(t, "Tarih", f.HeaderIdentifiers[0])
}

func TestFormatDescriptor_ActiveDefault(t *testing.T) {
	tests := []struct {
		name   string
		decode func([]byte, interface{}) error
		input  string
		want   bool
	}{
		{"yaml missing key", yaml.Unmarshal, "id: demo\nname: Demo\n", true},
		{"yaml explicit false", yaml.Unmarshal, "id: demo\nactive: false\n", false},
		{"json missing key", json.Unmarshal, `{"id":"demo","name":"Demo"}`, true},
		{"json explicit false", json.Unmarshal, `{"id":"demo","active":false}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FormatDescriptor
			require.NoError(t, tt.decode([]byte(tt.input), &f))
			assert.Equal(t, "demo", f.ID)
			assert.Equal(t, tt.want, f.Active)
		})
	}
}
