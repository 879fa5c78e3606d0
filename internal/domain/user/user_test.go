package user

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpdateRequestTracksExplicitNull(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		clearPhone     bool
		clearBirthdate bool
		phone          *string
	}{
		{"absent fields", `{"name":"x"}`, false, false, nil},
		{"null phone", `{"phone":null}`, true, false, nil},
		{"null birthdate", `{"birthdate": null}`, false, true, nil},
		{"phone value", `{"phone":"123"}`, false, false, strPtr("123")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			require.Equal(t, tt.clearPhone, req.ClearPhone)
			require.Equal(t, tt.clearBirthdate, req.ClearBirthdate)
			require.Equal(t, tt.phone, req.Phone)
		})
	}
}

func TestUpdateRequestKeepsFieldOnTypeError(t *testing.T) {
	var req UpdateRequest
	err := json.Unmarshal([]byte(`{"phone":5}`), &req)

	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	require.Equal(t, "phone", typeErr.Field)
}

func TestApplyClearsAndSets(t *testing.T) {
	born := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	u := User{Name: "A", Phone: strPtr("555"), Birthdate: &born}

	got := UpdateRequest{ClearPhone: true}.Apply(u)
	require.Nil(t, got.Phone)
	require.Equal(t, &born, got.Birthdate)

	got = UpdateRequest{Phone: strPtr("777"), ClearBirthdate: true}.Apply(u)
	require.Equal(t, "777", *got.Phone)
	require.Nil(t, got.Birthdate)
}

func strPtr(s string) *string { return &s }
