package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	SlotID string `json:"slot_id" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{SlotID: "s1", Date: "2025-01-10"}))

	errs := Validate(sample{Date: "10-01-2025"})
	assert.Equal(t, map[string]string{"slot_id": "required", "date": "datetime"}, errs)
}
